package source

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/brandpulse/pkg/models"
	"github.com/brandpulse/brandpulse/pkg/utils"
)

// RSS is a supplemental mention source that scans news/blog feeds for
// items naming the brand. A failing feed is skipped with a warning, never
// fatal, so one dead feed cannot starve the run.
type RSS struct {
	feeds  []string
	parser *gofeed.Parser
	log    *logrus.Logger
}

// NewRSS creates the feed source.
func NewRSS(feeds []string, log *logrus.Logger) *RSS {
	if log == nil {
		log = logrus.New()
	}
	return &RSS{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		log:    log,
	}
}

func (r *RSS) Name() string { return "rss" }

// Fetch parses every configured feed and keeps items inside the window
// that mention one of the query keywords.
func (r *RSS) Fetch(ctx context.Context, q Query) ([]models.Post, error) {
	cutoff := utils.WindowStart(time.Now(), q.WindowHours)

	var posts []models.Post
	for _, feedURL := range r.feeds {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"source": r.Name(),
				"feed":   feedURL,
			}).WithError(err).Warn("skipping feed")
			continue
		}

		for _, item := range feed.Items {
			published := itemTime(item)
			if published.Before(cutoff) {
				continue
			}
			body := utils.Sanitize(stripHTML(pickBody(item)))
			if !mentionsAny(item.Title+" "+body, q.Keywords) {
				continue
			}
			posts = append(posts, models.Post{
				ID:           itemID(item),
				AuthorHandle: feed.Title,
				Text:         utils.TruncateWords(item.Title+": "+body, 500),
				CreatedAt:    published,
				URL:          item.Link,
				Source:       "rss",
			})
			if q.MaxResults > 0 && len(posts) >= q.MaxResults {
				return posts, nil
			}
		}
	}
	return posts, nil
}

func itemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func pickBody(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// stripHTML extracts plain text from feed item markup.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// mentionsAny reports whether text contains any keyword, case-insensitive.
func mentionsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
