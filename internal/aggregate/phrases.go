package aggregate

import "strings"

// phraseCategory is one fixed set of concerning vocabulary scanned for in
// NEGATIVE/MIXED posts. Labels are the tags shown in chat messages.
type phraseCategory struct {
	Label    string
	Patterns []string
}

var phraseCategories = []phraseCategory{
	{
		Label: "[SCAM]",
		Patterns: []string{
			"scam", "fraud", "rug pull", "rugpull", "ponzi", "stealing",
			"stole my", "exit scam",
		},
	},
	{
		Label: "[AFFILIATE-VIOLATION]",
		Patterns: []string{
			"guaranteed returns", "guaranteed profit", "risk free",
			"can't lose", "cant lose", "100x guaranteed",
		},
	},
	{
		Label: "[EXECUTION]",
		Patterns: []string{
			"withdrawal stuck", "can't withdraw", "cant withdraw",
			"order failed", "failed trade", "outage", "down again",
			"not working",
		},
	},
	{
		Label: "[SUBSCRIPTION]",
		Patterns: []string{
			"too expensive", "overpriced", "price increase",
			"cancel my subscription", "not worth the price",
		},
	},
}

// matchPhrases returns the labels of every category the text matches. A
// post matching multiple categories is counted in each.
func matchPhrases(text string) []string {
	lower := strings.ToLower(text)
	var labels []string
	for _, cat := range phraseCategories {
		for _, p := range cat.Patterns {
			if strings.Contains(lower, p) {
				labels = append(labels, cat.Label)
				break
			}
		}
	}
	return labels
}
