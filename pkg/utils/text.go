package utils

import (
	"strings"
	"unicode"
)

const ellipsis = "..."

// Sanitize strips control characters and collapses runs of whitespace to a
// single space. Semantic content is left untouched.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TruncateWords shortens s to at most max characters without cutting a word
// in half. The ellipsis marker counts against max. Strings already within
// the budget are returned unchanged.
func TruncateWords(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return ellipsis[:max]
	}

	budget := max - len(ellipsis)
	words := strings.Fields(s)
	var b strings.Builder
	for _, w := range words {
		need := len(w)
		if b.Len() > 0 {
			need++ // separating space
		}
		if b.Len()+need > budget {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}

	if b.Len() == 0 {
		// First word alone exceeds the budget; hard-cut it.
		return s[:budget] + ellipsis
	}
	return b.String() + ellipsis
}

// EngagementRate computes (likes+replies+shares)/followers. Authors with
// zero followers yield 0 rather than a division error.
func EngagementRate(likes, replies, shares, followers int) float64 {
	if followers <= 0 {
		return 0
	}
	return float64(likes+replies+shares) / float64(followers)
}
