package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/brandpulse/internal/infra"
	"github.com/brandpulse/brandpulse/pkg/models"
	"github.com/brandpulse/brandpulse/pkg/utils"
)

const (
	twitterAPIBase  = "https://api.twitter.com"
	twitterPageSize = 100
)

// Twitter fetches recent brand mentions from the X API v2 search endpoint,
// paginating within the time window. Transient failures (network, 429, 5xx)
// are retried with exponential backoff; auth errors are surfaced
// immediately as ErrAuth.
type Twitter struct {
	bearer   string
	baseURL  string
	client   *http.Client
	limiter  *infra.RateLimiter
	executor failsafe.Executor[*http.Response]
	log      *logrus.Logger
}

// TwitterOption configures the Twitter source.
type TwitterOption func(*Twitter)

// WithTwitterBaseURL overrides the API base URL.
func WithTwitterBaseURL(base string) TwitterOption {
	return func(t *Twitter) { t.baseURL = strings.TrimRight(base, "/") }
}

// WithTwitterHTTPClient sets a custom HTTP client.
func WithTwitterHTTPClient(c *http.Client) TwitterOption {
	return func(t *Twitter) { t.client = c }
}

// WithTwitterLogger sets the logger.
func WithTwitterLogger(log *logrus.Logger) TwitterOption {
	return func(t *Twitter) { t.log = log }
}

// NewTwitter creates the X search source.
func NewTwitter(bearerToken string, opts ...TwitterOption) (*Twitter, error) {
	if bearerToken == "" {
		return nil, fmt.Errorf("%w: missing bearer token", ErrAuth)
	}
	t := &Twitter{
		bearer:  bearerToken,
		baseURL: twitterAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		// Recent search allows bursts well above this; stay conservative.
		limiter: infra.NewRateLimiter(10, time.Second),
		log:     logrus.New(),
	}
	for _, opt := range opts {
		opt(t)
	}

	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(time.Second, 8*time.Second).
		WithJitterFactor(0.1).
		WithMaxRetries(3).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			if resp == nil {
				return true
			}
			switch resp.StatusCode {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				return true
			}
			return false
		}).
		Build()
	t.executor = failsafe.With(retry)

	return t, nil
}

func (t *Twitter) Name() string { return "twitter" }

// Fetch pages through the recent-search endpoint until the window is
// exhausted or MaxResults is reached.
func (t *Twitter) Fetch(ctx context.Context, q Query) ([]models.Post, error) {
	startTime := utils.WindowStart(time.Now(), q.WindowHours)
	query := buildSearchQuery(q.Keywords)

	var (
		posts     []models.Post
		nextToken string
	)
	for {
		if err := t.limiter.Wait(ctx); err != nil {
			return posts, err
		}

		page, err := t.fetchPage(ctx, query, startTime, nextToken, remaining(q.MaxResults, len(posts)))
		if err != nil {
			return posts, err
		}

		for _, tw := range page.Data {
			posts = append(posts, page.toPost(tw))
		}

		t.log.WithFields(logrus.Fields{
			"source":  t.Name(),
			"page":    page.Meta.ResultCount,
			"total":   len(posts),
			"has_more": page.Meta.NextToken != "",
		}).Debug("fetched search page")

		nextToken = page.Meta.NextToken
		if nextToken == "" || (q.MaxResults > 0 && len(posts) >= q.MaxResults) {
			break
		}
	}

	if q.MaxResults > 0 && len(posts) > q.MaxResults {
		posts = posts[:q.MaxResults]
	}
	return posts, nil
}

// remaining caps the per-page size against what is still needed.
func remaining(max, have int) int {
	size := twitterPageSize
	if max > 0 && max-have < size {
		size = max - have
	}
	if size < 10 {
		size = 10 // API minimum for max_results
	}
	return size
}

// buildSearchQuery OR-joins keywords and excludes retweets.
func buildSearchQuery(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		if strings.ContainsAny(k, " ") {
			quoted[i] = `"` + k + `"`
		} else {
			quoted[i] = k
		}
	}
	return "(" + strings.Join(quoted, " OR ") + ") -is:retweet lang:en"
}

func (t *Twitter) fetchPage(ctx context.Context, query string, startTime time.Time, nextToken string, pageSize int) (*searchPage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(pageSize))
	params.Set("start_time", startTime.UTC().Format(time.RFC3339))
	params.Set("tweet.fields", "created_at,public_metrics,author_id,referenced_tweets")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username,public_metrics")
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	endpoint := t.baseURL + "/2/tweets/search/recent?" + params.Encode()

	resp, err := t.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+t.bearer)
		return t.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("twitter: search request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: twitter returned status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("twitter: HTTP %d", resp.StatusCode)
	}

	var page searchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("twitter: decode response: %w", err)
	}
	page.indexUsers()
	return &page, nil
}

// ── Wire types ──

type searchPage struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`

	usersByID map[string]twitterUser
}

type tweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
		LikeCount    int `json:"like_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

type twitterUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
	} `json:"public_metrics"`
}

func (p *searchPage) indexUsers() {
	p.usersByID = make(map[string]twitterUser, len(p.Includes.Users))
	for _, u := range p.Includes.Users {
		p.usersByID[u.ID] = u
	}
}

func (p *searchPage) toPost(tw tweet) models.Post {
	user := p.usersByID[tw.AuthorID]
	created, _ := time.Parse(time.RFC3339, tw.CreatedAt)

	post := models.Post{
		ID:              tw.ID,
		AuthorHandle:    user.Username,
		AuthorFollowers: user.PublicMetrics.FollowersCount,
		Text:            utils.Sanitize(tw.Text),
		CreatedAt:       created,
		Source:          "twitter",
		Metrics: models.Metrics{
			Likes:   tw.PublicMetrics.LikeCount,
			Replies: tw.PublicMetrics.ReplyCount,
			Shares:  tw.PublicMetrics.RetweetCount,
			Quotes:  tw.PublicMetrics.QuoteCount,
		},
	}
	if user.Username != "" {
		post.URL = fmt.Sprintf("https://x.com/%s/status/%s", user.Username, tw.ID)
	}
	for _, ref := range tw.ReferencedTweets {
		if ref.Type == "replied_to" {
			post.ParentID = ref.ID
			break
		}
	}
	return post
}
