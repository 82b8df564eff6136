// Package aggregate folds classified posts into a single immutable Report.
// Pure: no external calls, no mutation of inputs.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/brandpulse/brandpulse/pkg/models"
	"github.com/brandpulse/brandpulse/pkg/utils"
)

// ErrCountMismatch signals that an externally-supplied expected post count
// disagrees with the input list, guarding against silent truncation
// upstream. Never coerced.
var ErrCountMismatch = errors.New("aggregate: post count mismatch")

const defaultThemeExamples = 3

// Options carries run metadata and knobs into Build.
type Options struct {
	RunID       string
	Brand       string
	GeneratedAt time.Time
	WindowHours int

	// ValidateCount enables the expected-count check against ExpectedCount.
	ValidateCount bool
	ExpectedCount int

	// MaxThemeExamples caps example posts per theme (default 3).
	MaxThemeExamples int

	Cost  models.CostSummary
	Trend models.Trend
}

// Build constructs the Report for one run. Zero posts produce a well-formed
// zero report, never an error.
func Build(posts []models.ClassifiedPost, opts Options) (models.Report, error) {
	if opts.ValidateCount && opts.ExpectedCount != len(posts) {
		return models.Report{}, fmt.Errorf("%w: expected %d posts, got %d",
			ErrCountMismatch, opts.ExpectedCount, len(posts))
	}
	if opts.MaxThemeExamples <= 0 {
		opts.MaxThemeExamples = defaultThemeExamples
	}
	if opts.Trend == "" {
		opts.Trend = models.TrendUnknown
	}

	report := models.Report{
		RunID:       opts.RunID,
		Brand:       opts.Brand,
		GeneratedAt: opts.GeneratedAt,
		WindowHours: opts.WindowHours,
		TotalCount:  len(posts),
		Trend:       opts.Trend,
		Cost:        opts.Cost,
	}

	for _, cp := range posts {
		switch cp.Classification.Sentiment {
		case models.SentimentPositive:
			report.PositiveCount++
		case models.SentimentNegative:
			report.NegativeCount++
		case models.SentimentMixed:
			report.MixedCount++
		default:
			report.NeutralCount++
		}
	}
	if report.TotalCount > 0 {
		report.SentimentScore = float64(report.PositiveCount-report.NegativeCount) / float64(report.TotalCount)
	}

	report.ProductMentions = countProducts(posts)
	report.PositiveThemes = groupThemes(posts, models.SentimentPositive, opts.MaxThemeExamples)
	report.NegativeThemes = groupThemes(posts, models.SentimentNegative, opts.MaxThemeExamples)
	report.PhraseCounts, report.Flagged = scanPhrases(posts)
	report.Highlights = collectHighlights(posts)

	for _, h := range report.Highlights {
		switch h.Category {
		case models.CategoryCriticalFUD:
			report.CriticalCount++
		case models.CategoryAffiliateViolation:
			report.ViolationCount++
		}
	}

	return report, nil
}

// countProducts increments each mentioned product's counter independently;
// one post can contribute to several products.
func countProducts(posts []models.ClassifiedPost) map[models.Product]int {
	counts := make(map[models.Product]int)
	for _, cp := range posts {
		for _, p := range cp.Classification.Products {
			counts[p]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

// themeAccum tracks one theme while scanning posts in input order.
type themeAccum struct {
	theme     string
	count     int
	firstSeen int
	carriers  []int // indexes of posts carrying the theme
}

// groupThemes ranks the themes of posts with the given sentiment by
// occurrence count descending, ties broken by first-seen post order. Each
// group carries up to maxExamples posts chosen by engagement.
func groupThemes(posts []models.ClassifiedPost, sentiment models.Sentiment, maxExamples int) []models.ThemeGroup {
	accums := make(map[string]*themeAccum)
	var order []string

	for i, cp := range posts {
		if cp.Classification.Sentiment != sentiment {
			continue
		}
		for _, theme := range cp.Classification.Themes {
			acc, ok := accums[theme]
			if !ok {
				acc = &themeAccum{theme: theme, firstSeen: i}
				accums[theme] = acc
				order = append(order, theme)
			}
			acc.count++
			acc.carriers = append(acc.carriers, i)
		}
	}
	if len(order) == 0 {
		return nil
	}

	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := accums[order[a]], accums[order[b]]
		if ta.count != tb.count {
			return ta.count > tb.count
		}
		return ta.firstSeen < tb.firstSeen
	})

	groups := make([]models.ThemeGroup, 0, len(order))
	for _, theme := range order {
		acc := accums[theme]

		carriers := append([]int(nil), acc.carriers...)
		// Highest engagement first; ties keep first-seen order.
		sort.SliceStable(carriers, func(a, b int) bool {
			return posts[carriers[a]].Post.Metrics.Total() > posts[carriers[b]].Post.Metrics.Total()
		})
		if len(carriers) > maxExamples {
			carriers = carriers[:maxExamples]
		}

		group := models.ThemeGroup{Theme: theme, Count: acc.count}
		for _, i := range carriers {
			group.Examples = append(group.Examples, postRef(posts[i].Post))
		}
		groups = append(groups, group)
	}
	return groups
}

// scanPhrases runs the fixed phrase patterns over NEGATIVE/MIXED posts.
func scanPhrases(posts []models.ClassifiedPost) (map[string]int, []models.FlaggedPost) {
	counts := make(map[string]int)
	var flagged []models.FlaggedPost

	for _, cp := range posts {
		s := cp.Classification.Sentiment
		if s != models.SentimentNegative && s != models.SentimentMixed {
			continue
		}
		for _, label := range matchPhrases(cp.Post.Text) {
			counts[label]++
			flagged = append(flagged, models.FlaggedPost{
				Post:  postRef(cp.Post),
				Label: label,
			})
		}
	}

	if len(counts) == 0 {
		return nil, nil
	}
	return counts, flagged
}

// collectHighlights gathers posts with a non-empty strategic category,
// deduplicated by post ID, ordered by confidence descending then
// engagement descending.
func collectHighlights(posts []models.ClassifiedPost) []models.Highlight {
	seen := make(map[string]struct{})
	var highlights []models.Highlight

	for _, cp := range posts {
		if cp.Classification.Category == models.CategoryNone {
			continue
		}
		if _, dup := seen[cp.Post.ID]; dup {
			continue
		}
		seen[cp.Post.ID] = struct{}{}
		highlights = append(highlights, models.Highlight{
			Post:       postRef(cp.Post),
			Category:   cp.Classification.Category,
			Urgency:    cp.Classification.Urgency,
			Confidence: cp.Classification.Confidence,
		})
	}

	sort.SliceStable(highlights, func(a, b int) bool {
		if highlights[a].Confidence != highlights[b].Confidence {
			return highlights[a].Confidence > highlights[b].Confidence
		}
		return highlights[a].Post.Engagement > highlights[b].Post.Engagement
	})
	return highlights
}

func postRef(p models.Post) models.PostRef {
	return models.PostRef{
		ID:         p.ID,
		Author:     p.AuthorHandle,
		Text:       utils.TruncateWords(p.Text, 280),
		URL:        p.URL,
		Engagement: p.Metrics.Total(),
	}
}
