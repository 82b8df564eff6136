// Package classify turns raw posts into validated classifications by
// batching them through an LLM provider, with caching, cost tracking
// against a budget ceiling, and retry-then-default degradation.
package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandpulse/brandpulse/internal/llm"
	"github.com/brandpulse/brandpulse/pkg/models"
)

// batchState tracks one batch through the retry machine.
type batchState int

const (
	batchPending batchState = iota
	batchRetrying
	batchSucceeded
	batchDefaulted
)

func (s batchState) String() string {
	switch s {
	case batchPending:
		return "pending"
	case batchRetrying:
		return "retrying"
	case batchSucceeded:
		return "succeeded"
	case batchDefaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

// Config holds the classifier's tunables.
type Config struct {
	Brand       string
	Model       string
	BatchSize   int           // posts per upstream call, default 15
	MaxAttempts int           // attempts per batch before defaulting, default 3
	MaxTokens   int
	Temperature float64
	BaseBackoff time.Duration // first retry delay, doubled per attempt
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 15
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 8192
	}
	if c.Temperature == 0 {
		c.Temperature = 0.15
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	return c
}

// Classifier drives batched classification. Batches run strictly one at a
// time; each fully resolves (success or exhausted-retry default) before
// the next starts.
type Classifier struct {
	provider llm.Provider
	cache    Cache // nil disables caching
	cfg      Config
	log      *logrus.Logger
}

// New creates a classifier. cache may be nil.
func New(provider llm.Provider, cache Cache, cfg Config, log *logrus.Logger) *Classifier {
	if log == nil {
		log = logrus.New()
	}
	return &Classifier{
		provider: provider,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// ClassifyAll classifies every post, preserving input order. The tracker
// accumulates spend across batches; when the ceiling is breached,
// remaining batches are skipped, already-classified posts are kept, and
// ErrBudgetExceeded is returned alongside the partial results.
//
// Auth errors are fatal and returned immediately with whatever was
// classified before them.
func (c *Classifier) ClassifyAll(ctx context.Context, posts []models.Post, tracker *CostTracker) ([]models.ClassifiedPost, error) {
	results := make([]models.ClassifiedPost, len(posts))
	done := make([]bool, len(posts))

	// Serve what we can from cache first.
	var pending []int
	for i, p := range posts {
		if c.cache != nil {
			if cls, hit, err := c.cache.Get(ctx, CacheKey(p.ID)); err == nil && hit {
				results[i] = models.ClassifiedPost{Post: p, Classification: cls, FromCache: true}
				done[i] = true
				tracker.RecordCacheHit()
				continue
			}
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += c.cfg.BatchSize {
		if tracker.Exceeded() {
			c.log.WithFields(logrus.Fields{
				"spent_usd": tracker.USD(),
				"remaining": len(pending) - start,
			}).Warn("budget ceiling reached, skipping remaining batches")
			c.defaultRemaining(posts, results, done, pending[start:])
			return results, ErrBudgetExceeded
		}

		end := start + c.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		idx := pending[start:end]

		batch := make([]models.Post, len(idx))
		for j, i := range idx {
			batch[j] = posts[i]
		}

		classifications, usage, err := c.runBatch(ctx, batch, tracker)
		if err != nil {
			// Fatal (auth or cancellation): default what this run cannot reach
			// so every post stays accounted for, then surface the error.
			c.defaultRemaining(posts, results, done, pending[start:])
			return results, err
		}

		perPost := splitUsage(usage, len(idx))
		for j, i := range idx {
			results[i] = models.ClassifiedPost{
				Post:           posts[i],
				Classification: classifications[j],
				Tokens:         perPost,
			}
			done[i] = true
			if c.cache != nil {
				if err := c.cache.Set(ctx, CacheKey(posts[i].ID), classifications[j]); err != nil {
					c.log.WithError(err).Debug("cache write failed")
				}
			}
		}
	}

	if tracker.Exceeded() {
		return results, ErrBudgetExceeded
	}
	return results, nil
}

// runBatch resolves one batch through the state machine:
// Pending -> Retrying(n) -> Succeeded | Defaulted.
func (c *Classifier) runBatch(ctx context.Context, batch []models.Post, tracker *CostTracker) ([]models.Classification, llm.Usage, error) {
	state := batchPending
	var total llm.Usage

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			state = batchRetrying
			if err := sleepCtx(ctx, c.backoff(attempt-1)); err != nil {
				return nil, total, err
			}
		}

		resp, err := c.provider.Complete(ctx, llm.Request{
			System:      SystemPrompt(c.cfg.Brand),
			Prompt:      BuildUserPrompt(batch),
			Model:       c.cfg.Model,
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
		})
		if resp != nil {
			total.InputTokens += resp.Usage.InputTokens
			total.OutputTokens += resp.Usage.OutputTokens
			tracker.Record(resp.Usage)
		}

		switch {
		case err == nil:
			classifications, perr := ParseBatch(resp.Content, len(batch))
			if perr == nil {
				state = batchSucceeded
				tracker.RecordBatch(false)
				c.log.WithFields(logrus.Fields{
					"batch_size": len(batch),
					"attempt":    attempt,
					"state":      state.String(),
				}).Debug("batch classified")
				return classifications, total, nil
			}
			c.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"state":   state.String(),
			}).WithError(perr).Warn("malformed batch response")

		case errors.Is(err, llm.ErrNoAPIKey):
			return nil, total, fmt.Errorf("classifier auth: %w", err)

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, total, err

		default:
			// Transient (rate limit, provider down): same retry path as a
			// malformed response.
			c.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"state":   state.String(),
			}).WithError(err).Warn("batch call failed")
		}
	}

	state = batchDefaulted
	tracker.RecordBatch(true)
	c.log.WithFields(logrus.Fields{
		"batch_size": len(batch),
		"state":      state.String(),
	}).Warn("batch defaulted after exhausting retries")
	return DefaultBatch(len(batch)), total, nil
}

// defaultRemaining fills unprocessed slots with default classifications.
func (c *Classifier) defaultRemaining(posts []models.Post, results []models.ClassifiedPost, done []bool, idx []int) {
	for _, i := range idx {
		if done[i] {
			continue
		}
		results[i] = models.ClassifiedPost{
			Post:           posts[i],
			Classification: models.DefaultClassification(),
		}
		done[i] = true
	}
}

// backoff doubles per completed attempt: base, 2*base, 4*base, ...
func (c *Classifier) backoff(retries int) time.Duration {
	d := c.cfg.BaseBackoff
	for i := 1; i < retries; i++ {
		d *= 2
	}
	return d
}

// splitUsage spreads a batch's token usage evenly over its posts.
func splitUsage(u llm.Usage, n int) models.TokenUsage {
	if n == 0 {
		return models.TokenUsage{}
	}
	return models.TokenUsage{
		Input:  u.InputTokens / n,
		Output: u.OutputTokens / n,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
