package utils

import "strings"

// spamPhrases are fixed substrings that mark a post as promotional noise.
var spamPhrases = []string{
	"click here",
	"dm me",
	"check my bio",
	"follow me",
	"free airdrop",
	"guaranteed returns",
	"100x gem",
	"limited offer",
}

// IsSpam applies cheap heuristics to filter promotional noise before
// classification: excessive hashtags/mentions/links, long repeated
// character runs, shouting, or known spam phrases. Never errors; borderline
// posts pass through to the classifier.
func IsSpam(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	var hashtags, mentions, urls int
	for _, w := range strings.Fields(text) {
		switch {
		case strings.HasPrefix(w, "#"):
			hashtags++
		case strings.HasPrefix(w, "@"):
			mentions++
		case strings.HasPrefix(w, "http://"), strings.HasPrefix(w, "https://"):
			urls++
		}
	}
	if hashtags > 10 || mentions > 5 || urls > 3 {
		return true
	}

	if hasRepeatedRun(text, 5) {
		return true
	}

	return isShouting(text)
}

// hasRepeatedRun reports whether any character repeats n or more times in
// a row.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// isShouting reports whether more than 70% of the letters are uppercase.
// Short texts are exempt to avoid flagging tickers and acronyms.
func isShouting(s string) bool {
	if len(s) <= 20 {
		return false
	}
	var letters, upper int
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			letters++
		} else if r >= 'A' && r <= 'Z' {
			letters++
			upper++
		}
	}
	if letters == 0 {
		return false
	}
	return float64(upper)/float64(letters) > 0.7
}
