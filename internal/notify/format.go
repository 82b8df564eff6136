package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brandpulse/brandpulse/pkg/models"
	"github.com/brandpulse/brandpulse/pkg/utils"
)

// maxMessageLength is Slack's practical ceiling for one message body.
const maxMessageLength = 40000

const maxDetailHighlights = 10

// FormatSummary renders the first (headline) chat message. mention is
// prepended when the run escalates; empty otherwise.
func FormatSummary(r models.Report, mention string) string {
	var b strings.Builder

	if mention != "" {
		fmt.Fprintf(&b, "%s ", mention)
	}
	fmt.Fprintf(&b, ":bar_chart: *%s Brand Pulse* (last %dh)\n\n", r.Brand, r.WindowHours)

	fmt.Fprintf(&b, "*%s mentions*: %d positive / %d negative / %d neutral / %d mixed\n",
		utils.FormatCount(r.TotalCount), r.PositiveCount, r.NegativeCount, r.NeutralCount, r.MixedCount)
	fmt.Fprintf(&b, "Sentiment score: %+.2f (%s)\n", r.SentimentScore, r.Trend)

	if r.CriticalCount > 0 || r.ViolationCount > 0 {
		fmt.Fprintf(&b, ":rotating_light: %d critical FUD, %d affiliate violations\n",
			r.CriticalCount, r.ViolationCount)
	}

	if line := themeLine("Top positive", r.PositiveThemes); line != "" {
		b.WriteString(line)
	}
	if line := themeLine("Top negative", r.NegativeThemes); line != "" {
		b.WriteString(line)
	}
	if line := productLine(r.ProductMentions); line != "" {
		b.WriteString(line)
	}

	fmt.Fprintf(&b, "\nCost: %s (%d batches", utils.FormatUSD(r.Cost.USD), r.Cost.Batches)
	if r.Cost.CacheHits > 0 {
		fmt.Fprintf(&b, ", %d cached", r.Cost.CacheHits)
	}
	b.WriteString(")")
	if r.Cost.BudgetExceeded {
		b.WriteString(" :warning: budget ceiling hit, partial results")
	}

	return utils.TruncateWords(b.String(), maxMessageLength)
}

// FormatDetail renders the second (threaded) message with examples and
// flagged posts.
func FormatDetail(r models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Detail for run %s*\n", r.RunID)

	writeThemeSection(&b, ":thumbsup: Positive themes", r.PositiveThemes)
	writeThemeSection(&b, ":thumbsdown: Negative themes", r.NegativeThemes)

	if len(r.Highlights) > 0 {
		b.WriteString("\n*Strategic highlights*\n")
		limit := len(r.Highlights)
		if limit > maxDetailHighlights {
			limit = maxDetailHighlights
		}
		for _, h := range r.Highlights[:limit] {
			fmt.Fprintf(&b, "- [%s/%s] %s: %q (confidence %d)\n",
				h.Category, h.Urgency,
				utils.SlackLink(h.Post.URL, "@"+h.Post.Author),
				utils.TruncateWords(h.Post.Text, 160), h.Confidence)
		}
	}

	if len(r.Flagged) > 0 {
		b.WriteString("\n*Flagged phrases*\n")
		for _, f := range r.Flagged {
			fmt.Fprintf(&b, "- %s %s: %q\n",
				f.Label,
				utils.SlackLink(f.Post.URL, "@"+f.Post.Author),
				utils.TruncateWords(f.Post.Text, 160))
		}
	}

	if b.Len() == 0 {
		b.WriteString("No notable posts this window.")
	}
	return utils.TruncateWords(b.String(), maxMessageLength)
}

func themeLine(label string, groups []models.ThemeGroup) string {
	if len(groups) == 0 {
		return ""
	}
	limit := len(groups)
	if limit > 3 {
		limit = 3
	}
	parts := make([]string, 0, limit)
	for _, g := range groups[:limit] {
		parts = append(parts, fmt.Sprintf("%s (%d)", g.Theme, g.Count))
	}
	return fmt.Sprintf("%s: %s\n", label, strings.Join(parts, ", "))
}

func productLine(mentions map[models.Product]int) string {
	if len(mentions) == 0 {
		return ""
	}
	// Stable order for readable (and testable) output.
	products := make([]models.Product, 0, len(mentions))
	for p := range mentions {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if mentions[products[i]] != mentions[products[j]] {
			return mentions[products[i]] > mentions[products[j]]
		}
		return products[i] < products[j]
	})

	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, fmt.Sprintf("%s (%d)", p, mentions[p]))
	}
	return fmt.Sprintf("Products: %s\n", strings.Join(parts, ", "))
}

func writeThemeSection(b *strings.Builder, header string, groups []models.ThemeGroup) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", header)
	for _, g := range groups {
		fmt.Fprintf(b, "*%s* (%d)\n", g.Theme, g.Count)
		for _, ex := range g.Examples {
			fmt.Fprintf(b, "  - %s: %q [%s]\n",
				utils.SlackLink(ex.URL, "@"+ex.Author),
				utils.TruncateWords(ex.Text, 160),
				utils.FormatCount(ex.Engagement))
		}
	}
}
