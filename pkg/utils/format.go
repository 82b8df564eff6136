package utils

import "fmt"

// FormatCount formats a count with K/M/B suffixes for display in chat
// messages. Values under 1,000 are printed as-is; larger values keep one
// decimal place: 1000 -> "1.0K", 1500000 -> "1.5M", 2000000000 -> "2.0B".
func FormatCount(n int) string {
	v := float64(n)
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FormatUSD renders a dollar amount for report output.
func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.4f", v)
}

// SlackLink builds a Slack-flavored hyperlink "<url|text>". Falls back to
// the bare text when no URL is available.
func SlackLink(url, text string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("<%s|%s>", url, text)
}
