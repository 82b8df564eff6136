package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Sentiment
	}{
		{"positive", "POSITIVE", SentimentPositive},
		{"negative", "NEGATIVE", SentimentNegative},
		{"mixed", "MIXED", SentimentMixed},
		{"lowercase is invalid", "positive", SentimentNeutral},
		{"unknown value", "ANGRY", SentimentNeutral},
		{"empty", "", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSentiment(tt.input); got != tt.want {
				t.Errorf("ParseSentiment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Intent
	}{
		{"praise", "PRAISE", IntentPraise},
		{"affiliate violation", "AFFILIATE_VIOLATION", IntentAffiliateViolation},
		{"unknown defaults to general mention", "RANT", IntentGeneralMention},
		{"empty", "", IntentGeneralMention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseIntent(tt.input); got != tt.want {
				t.Errorf("ParseIntent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  StrategicCategory
	}{
		{"critical fud", "CRITICAL_FUD", CategoryCriticalFUD},
		{"strategic win", "STRATEGIC_WIN", CategoryStrategicWin},
		{"unknown defaults to none", "SOMETHING_ELSE", CategoryNone},
		{"empty is none", "", CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCategory(tt.input); got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseProduct(t *testing.T) {
	if p, ok := ParseProduct("nansen_mobile"); !ok || p != ProductMobile {
		t.Errorf("ParseProduct(nansen_mobile) = %q, %v", p, ok)
	}
	if _, ok := ParseProduct("unknown_product"); ok {
		t.Error("ParseProduct should reject values outside the catalog")
	}
	if got := len(ProductCatalog()); got != 5 {
		t.Errorf("catalog size = %d, want 5", got)
	}
}

func TestDefaultClassification(t *testing.T) {
	d := DefaultClassification()
	if d.Sentiment != SentimentNeutral {
		t.Errorf("default sentiment = %q, want NEUTRAL", d.Sentiment)
	}
	if d.Intent != IntentGeneralMention {
		t.Errorf("default intent = %q, want GENERAL_MENTION", d.Intent)
	}
	if d.Category != CategoryNone {
		t.Errorf("default category = %q, want none", d.Category)
	}
	if d.Confidence != 0 {
		t.Errorf("default confidence = %d, want 0", d.Confidence)
	}
	if len(d.Products) != 0 || len(d.Themes) != 0 {
		t.Error("default products/themes must be empty")
	}
}

func TestMetricsTotal(t *testing.T) {
	m := Metrics{Likes: 10, Replies: 3, Shares: 5, Quotes: 2}
	if got := m.Total(); got != 20 {
		t.Errorf("Total() = %d, want 20", got)
	}
}

func TestReportRoundTrip(t *testing.T) {
	original := Report{
		RunID:          "run-42",
		Brand:          "Nansen",
		GeneratedAt:    time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC),
		WindowHours:    24,
		TotalCount:     3,
		PositiveCount:  1,
		NegativeCount:  1,
		NeutralCount:   1,
		SentimentScore: 0,
		Trend:          TrendStable,
		ProductMentions: map[Product]int{
			ProductMobile: 1,
		},
		PositiveThemes: []ThemeGroup{
			{Theme: "mobile app", Count: 1, Examples: []PostRef{
				{ID: "1", Author: "alice", Text: "love the mobile app", Engagement: 40},
			}},
		},
		NegativeThemes: []ThemeGroup{
			{Theme: "trust", Count: 1, Examples: []PostRef{
				{ID: "2", Author: "bob", Text: "this is a scam", Engagement: 12},
			}},
		},
		PhraseCounts: map[string]int{"scam_fraud": 1},
		Highlights: []Highlight{
			{Post: PostRef{ID: "2", Author: "bob", Text: "this is a scam", Engagement: 12},
				Category: CategoryCriticalFUD, Urgency: UrgencyHigh, Confidence: 90},
		},
		Flagged: []FlaggedPost{
			{Post: PostRef{ID: "2", Author: "bob", Text: "this is a scam", Engagement: 12}, Label: "[SCAM]"},
		},
		CriticalCount: 1,
		Cost: CostSummary{
			InputTokens:  1200,
			OutputTokens: 400,
			USD:          0.0096,
			Batches:      1,
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}
