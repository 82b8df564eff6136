package models

import "time"

// Trend compares the current run's sentiment score against stored history.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendDeclining Trend = "DECLINING"
	TrendStable    Trend = "STABLE"
	TrendUnknown   Trend = "UNKNOWN"
)

// PostRef is a lightweight reference to a post used inside a Report, so
// the serialized report stays small while messages can still quote and
// link the underlying posts.
type PostRef struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	Text       string `json:"text"`
	URL        string `json:"url,omitempty"`
	Engagement int    `json:"engagement"`
}

// ThemeGroup is one ranked theme with up to N example posts, ordered by
// engagement descending.
type ThemeGroup struct {
	Theme    string    `json:"theme"`
	Count    int       `json:"count"`
	Examples []PostRef `json:"examples,omitempty"`
}

// Highlight is a post carrying a non-empty strategic category.
type Highlight struct {
	Post       PostRef           `json:"post"`
	Category   StrategicCategory `json:"category"`
	Urgency    Urgency           `json:"urgency"`
	Confidence int               `json:"confidence"`
}

// FlaggedPost is a post matched by the negative phrase scan, labeled with
// the concern category that matched it.
type FlaggedPost struct {
	Post  PostRef `json:"post"`
	Label string  `json:"label"`
}

// CostSummary aggregates the spend of one classification run.
type CostSummary struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	USD            float64 `json:"usd"`
	Batches        int     `json:"batches"`
	BatchesFailed  int     `json:"batches_failed"`
	CacheHits      int     `json:"cache_hits"`
	BudgetExceeded bool    `json:"budget_exceeded,omitempty"`
}

// Report is the aggregated snapshot of one pipeline run. Built once by the
// aggregator, immutable afterwards, and serialized as-is to files and the
// API. Round-trips through JSON to an equal value.
type Report struct {
	RunID       string    `json:"run_id"`
	Brand       string    `json:"brand"`
	GeneratedAt time.Time `json:"generated_at"`
	WindowHours int       `json:"window_hours"`

	TotalCount     int     `json:"total_count"`
	PositiveCount  int     `json:"positive_count"`
	NegativeCount  int     `json:"negative_count"`
	NeutralCount   int     `json:"neutral_count"`
	MixedCount     int     `json:"mixed_count"`
	SentimentScore float64 `json:"sentiment_score"`
	Trend          Trend   `json:"trend"`

	ProductMentions map[Product]int `json:"product_mentions,omitempty"`
	PositiveThemes  []ThemeGroup    `json:"positive_themes,omitempty"`
	NegativeThemes  []ThemeGroup    `json:"negative_themes,omitempty"`
	PhraseCounts    map[string]int  `json:"phrase_counts,omitempty"`

	Highlights []Highlight   `json:"highlights,omitempty"`
	Flagged    []FlaggedPost `json:"flagged,omitempty"`

	CriticalCount  int `json:"critical_count"`
	ViolationCount int `json:"violation_count"`

	Cost CostSummary `json:"cost"`
}
