package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/brandpulse/brandpulse/pkg/models"
)

// ErrMalformed marks a batch response that failed the schema or
// array-length check. Recoverable: the batch is retried, then defaulted.
var ErrMalformed = errors.New("classify: malformed batch response")

// rawClassification is the wire shape of one element of the model's JSON
// array answer. All fields are re-validated before use.
type rawClassification struct {
	Sentiment  string   `json:"sentiment"`
	Intent     string   `json:"intent"`
	Category   string   `json:"strategic_category"`
	Urgency    string   `json:"urgency"`
	Products   []string `json:"products"`
	Themes     []string `json:"themes"`
	Confidence int      `json:"confidence"`
	KeyQuote   string   `json:"key_quote"`
}

// StripFences removes a wrapping markdown code fence, if present, so the
// remainder can be parsed as plain JSON. Pure; no other normalization.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseBatch decodes a model response for a batch of n posts. The response
// must be a JSON array of exactly n objects; order correlates elements to
// posts. Enum values outside their fixed sets are replaced by defaults,
// never propagated.
func ParseBatch(content string, n int) ([]models.Classification, error) {
	var raw []rawClassification
	if err := json.Unmarshal([]byte(StripFences(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) != n {
		return nil, fmt.Errorf("%w: got %d results for %d posts", ErrMalformed, len(raw), n)
	}

	out := make([]models.Classification, n)
	for i, r := range raw {
		out[i] = validate(r)
	}
	return out, nil
}

// validate maps one raw element onto the typed Classification, applying
// the documented defaults field by field.
func validate(r rawClassification) models.Classification {
	c := models.Classification{
		Sentiment:  models.ParseSentiment(r.Sentiment),
		Intent:     models.ParseIntent(r.Intent),
		Category:   models.ParseCategory(r.Category),
		Urgency:    models.ParseUrgency(r.Urgency),
		Confidence: clampConfidence(r.Confidence),
		KeyQuote:   strings.TrimSpace(r.KeyQuote),
	}
	for _, p := range r.Products {
		if product, ok := models.ParseProduct(p); ok {
			c.Products = append(c.Products, product)
		}
	}
	for _, t := range r.Themes {
		if t = strings.TrimSpace(t); t != "" {
			c.Themes = append(c.Themes, t)
		}
	}
	return c
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// DefaultBatch returns n all-default classifications, the terminal
// fallback after retries are exhausted. Guarantees one classification per
// post regardless of upstream behavior.
func DefaultBatch(n int) []models.Classification {
	out := make([]models.Classification, n)
	for i := range out {
		out[i] = models.DefaultClassification()
	}
	return out
}
