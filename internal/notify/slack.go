// Package notify delivers finished reports to chat. Slack is the only
// backend: either an incoming webhook or a bot token. With a bot token the
// detail message is threaded under the summary; webhooks cannot thread, so
// both land as top-level messages.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/brandpulse/pkg/models"
)

const slackAPIBase = "https://slack.com"

// ErrDelivery wraps non-retryable Slack failures (bad webhook, invalid
// token, channel not found).
var ErrDelivery = errors.New("notify: delivery failed")

// Slack posts report summaries to a Slack channel.
type Slack struct {
	webhookURL        string
	botToken          string
	channel           string
	escalationMention string
	criticalThreshold int

	baseURL  string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
	log      *logrus.Logger
}

// SlackOption configures the notifier.
type SlackOption func(*Slack)

// WithSlackBaseURL overrides the Slack API base URL.
func WithSlackBaseURL(base string) SlackOption {
	return func(s *Slack) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithSlackHTTPClient sets a custom HTTP client.
func WithSlackHTTPClient(c *http.Client) SlackOption {
	return func(s *Slack) { s.client = c }
}

// WithSlackLogger sets the logger.
func WithSlackLogger(log *logrus.Logger) SlackOption {
	return func(s *Slack) { s.log = log }
}

// WithEscalation sets the mention directive prepended to the summary when a
// run escalates, and the critical-count threshold that triggers it.
func WithEscalation(mention string, criticalThreshold int) SlackOption {
	return func(s *Slack) {
		s.escalationMention = mention
		if criticalThreshold > 0 {
			s.criticalThreshold = criticalThreshold
		}
	}
}

// NewSlack creates the notifier. Exactly one of webhookURL or botToken must
// be set; botToken additionally needs a channel.
func NewSlack(webhookURL, botToken, channel string, opts ...SlackOption) (*Slack, error) {
	if webhookURL == "" && botToken == "" {
		return nil, fmt.Errorf("%w: neither webhook URL nor bot token configured", ErrDelivery)
	}
	if botToken != "" && channel == "" {
		return nil, fmt.Errorf("%w: bot token requires a channel", ErrDelivery)
	}

	s := &Slack{
		webhookURL:        webhookURL,
		botToken:          botToken,
		channel:           channel,
		criticalThreshold: 5,
		baseURL:           slackAPIBase,
		client:            &http.Client{Timeout: 15 * time.Second},
		log:               logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
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
			return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		}).
		Build()
	s.executor = failsafe.With(retry)

	return s, nil
}

// Escalates reports whether the report trips the escalation rule: more
// critical posts than the threshold, or any affiliate violation at all.
func (s *Slack) Escalates(r models.Report) bool {
	return r.CriticalCount > s.criticalThreshold || r.ViolationCount > 0
}

// Deliver sends the summary message followed by the detail message. With a
// bot token the detail is threaded under the summary.
func (s *Slack) Deliver(ctx context.Context, r models.Report) error {
	mention := ""
	if s.Escalates(r) && s.escalationMention != "" {
		mention = s.escalationMention
	}
	summary := FormatSummary(r, mention)
	detail := FormatDetail(r)

	if s.botToken != "" {
		ts, err := s.postMessage(ctx, summary, "")
		if err != nil {
			return err
		}
		if _, err := s.postMessage(ctx, detail, ts); err != nil {
			return err
		}
	} else {
		if err := s.postWebhook(ctx, summary); err != nil {
			return err
		}
		if err := s.postWebhook(ctx, detail); err != nil {
			return err
		}
	}

	s.log.WithFields(logrus.Fields{
		"run_id":    r.RunID,
		"escalated": mention != "",
	}).Info("report delivered to slack")
	return nil
}

func (s *Slack) postWebhook(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	resp, err := s.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return s.client.Do(req)
	})
	if err != nil {
		return fmt.Errorf("notify: webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: webhook returned HTTP %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}

// postMessage calls chat.postMessage and returns the message timestamp, used
// as thread_ts for the follow-up.
func (s *Slack) postMessage(ctx context.Context, text, threadTS string) (string, error) {
	payload := map[string]string{
		"channel": s.channel,
		"text":    text,
	}
	if threadTS != "" {
		payload["thread_ts"] = threadTS
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := s.baseURL + "/api/chat.postMessage"
	resp, err := s.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		req.Header.Set("Authorization", "Bearer "+s.botToken)
		return s.client.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("notify: chat.postMessage request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: chat.postMessage returned HTTP %d", ErrDelivery, resp.StatusCode)
	}

	var result struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("notify: decode chat.postMessage response: %w", err)
	}
	if !result.OK {
		return "", fmt.Errorf("%w: slack error %q", ErrDelivery, result.Error)
	}
	return result.TS, nil
}
