package utils

import (
	"strings"
	"testing"
	"time"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  string
	}{
		{"zero", 0, "0"},
		{"under threshold", 999, "999"},
		{"exactly one thousand", 1000, "1.0K"},
		{"thousands", 1234, "1.2K"},
		{"millions", 1500000, "1.5M"},
		{"billions", 2000000000, "2.0B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCount(tt.input); got != tt.want {
				t.Errorf("FormatCount(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"fits unchanged", "short text", 20, "short text"},
		{"word boundary", "The quick brown fox", 12, "The quick..."},
		{"exact fit", "exact", 5, "exact"},
		{"single long word", "supercalifragilistic", 10, "superca..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if len(got) > tt.max {
				t.Errorf("result length %d exceeds max %d", len(got), tt.max)
			}
		})
	}
}

func TestTruncateWordsNeverSplitsWords(t *testing.T) {
	input := "The quick brown fox"
	got := TruncateWords(input, 12)
	for _, w := range strings.Fields(strings.TrimSuffix(got, "...")) {
		if !strings.Contains(input, w) {
			t.Errorf("word %q was split mid-word", w)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"control chars stripped", "hello\x00world", "hello world"},
		{"whitespace collapsed", "a  b\t\tc\n\nd", "a b c d"},
		{"leading and trailing trimmed", "  padded  ", "padded"},
		{"clean text unchanged", "already clean", "already clean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEngagementRate(t *testing.T) {
	if got := EngagementRate(10, 5, 5, 1000); got != 0.02 {
		t.Errorf("EngagementRate = %v, want 0.02", got)
	}
	if got := EngagementRate(10, 5, 5, 0); got != 0 {
		t.Errorf("zero followers must yield 0, got %v", got)
	}
	if got := EngagementRate(0, 0, 0, 500); got != 0 {
		t.Errorf("zero engagement must yield 0, got %v", got)
	}
}

func TestIsSpam(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"normal mention", "Really enjoying the new mobile app update", false},
		{"hashtag flood", "#a #b #c #d #e #f #g #h #i #j #k wow", true},
		{"mention flood", "@a @b @c @d @e @f check this", true},
		{"link flood", "https://a.co https://b.co https://c.co https://d.co", true},
		{"repeated run", "soooooo good", true},
		{"shouting", "THIS IS ABSOLUTELY THE BEST THING EVER MADE", true},
		{"short caps exempt", "GM NANSEN", false},
		{"spam phrase", "Free airdrop for everyone, hurry", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSpam(tt.text); got != tt.want {
				t.Errorf("IsSpam(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSlackLink(t *testing.T) {
	if got := SlackLink("https://x.com/a/status/1", "@a"); got != "<https://x.com/a/status/1|@a>" {
		t.Errorf("SlackLink = %q", got)
	}
	if got := SlackLink("", "@a"); got != "@a" {
		t.Errorf("SlackLink without URL = %q, want bare text", got)
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	got := WindowStart(now, 24)
	want := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("WindowStart = %v, want %v", got, want)
	}
	if got := WindowStart(now, 0); !got.Equal(want) {
		t.Errorf("zero hours should default to 24, got %v", got)
	}
}
