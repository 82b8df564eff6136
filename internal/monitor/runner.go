// Package monitor orchestrates one monitoring run end to end: fetch
// mentions, classify them, aggregate the report, persist it, and deliver it
// to chat.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brandpulse/brandpulse/internal/aggregate"
	"github.com/brandpulse/brandpulse/internal/classify"
	"github.com/brandpulse/brandpulse/internal/source"
	"github.com/brandpulse/brandpulse/internal/store"
	"github.com/brandpulse/brandpulse/pkg/models"
)

// trendWindow is how many prior runs feed the trend baseline.
const trendWindow = 10

// Notifier delivers a finished report to chat.
type Notifier interface {
	Deliver(ctx context.Context, r models.Report) error
}

// History persists report history and serves prior scores for the trend.
type History interface {
	Save(ctx context.Context, r models.Report) error
	RecentScores(ctx context.Context, brand string, n int) ([]float64, error)
}

// Event is one progress update emitted during a run.
type Event struct {
	RunID   string    `json:"run_id"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Sink receives progress events. May be nil.
type Sink func(Event)

// Options are the per-run knobs from the CLI or API trigger.
type Options struct {
	Hours      int
	DryRun     bool   // render the chat messages but do not send or record history
	OutputPath string // extra copy of the report JSON, empty for none
}

// Runner wires the pipeline stages together. Any of notifier, files, and
// history may be nil; the corresponding step is skipped.
type Runner struct {
	brand         string
	keywords      []string
	maxResults    int
	retentionDays int

	sources    []source.Source
	classifier *classify.Classifier
	pricing    classify.Pricing
	budgetUSD  float64

	files    *store.FileStore
	history  History
	notifier Notifier

	log  *logrus.Logger
	sink Sink
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithFileStore enables on-disk report persistence.
func WithFileStore(fs *store.FileStore, retentionDays int) RunnerOption {
	return func(r *Runner) {
		r.files = fs
		r.retentionDays = retentionDays
	}
}

// WithHistory enables report history and trend calculation.
func WithHistory(h History) RunnerOption {
	return func(r *Runner) { r.history = h }
}

// WithNotifier enables chat delivery.
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithSink registers a progress event receiver.
func WithSink(s Sink) RunnerOption {
	return func(r *Runner) { r.sink = s }
}

// WithMaxResults caps posts fetched per source.
func WithMaxResults(n int) RunnerOption {
	return func(r *Runner) { r.maxResults = n }
}

// NewRunner assembles a runner over the given sources and classifier.
func NewRunner(brand string, keywords []string, sources []source.Source,
	classifier *classify.Classifier, pricing classify.Pricing, budgetUSD float64,
	log *logrus.Logger, opts ...RunnerOption) *Runner {

	if log == nil {
		log = logrus.New()
	}
	r := &Runner{
		brand:      brand,
		keywords:   keywords,
		sources:    sources,
		classifier: classifier,
		pricing:    pricing,
		budgetUSD:  budgetUSD,
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one full monitoring cycle and returns the finished report.
//
// A budget breach with at least one successful batch still yields a usable
// partial report: it is persisted and delivered with a warning, and Run
// returns it without error. A breach before any batch succeeded, an auth
// failure, or cancellation is fatal.
func (r *Runner) Run(ctx context.Context, opts Options) (models.Report, error) {
	runID := uuid.NewString()
	startedAt := time.Now().UTC()
	log := r.log.WithField("run_id", runID)

	if opts.Hours <= 0 {
		opts.Hours = 24
	}

	r.emit(runID, "fetch", fmt.Sprintf("fetching mentions from %d sources", len(r.sources)))
	posts, err := r.fetch(ctx, opts.Hours)
	if err != nil {
		r.emit(runID, "error", err.Error())
		return models.Report{}, err
	}
	log.WithField("posts", len(posts)).Info("mentions fetched")

	r.emit(runID, "classify", fmt.Sprintf("classifying %d posts", len(posts)))
	tracker := classify.NewCostTracker(r.pricing, r.budgetUSD)
	classified, cerr := r.classifier.ClassifyAll(ctx, posts, tracker)
	if cerr != nil {
		if !errors.Is(cerr, classify.ErrBudgetExceeded) {
			r.emit(runID, "error", cerr.Error())
			return models.Report{}, cerr
		}
		summary := tracker.Summary()
		if summary.Batches == summary.BatchesFailed && summary.CacheHits == 0 {
			r.emit(runID, "error", cerr.Error())
			return models.Report{}, fmt.Errorf("no usable classifications before ceiling: %w", cerr)
		}
		log.WithField("spent_usd", summary.USD).Warn("budget ceiling hit, delivering partial report")
	}

	r.emit(runID, "aggregate", "building report")
	report, err := aggregate.Build(classified, aggregate.Options{
		RunID:         runID,
		Brand:         r.brand,
		GeneratedAt:   startedAt,
		WindowHours:   opts.Hours,
		ValidateCount: true,
		ExpectedCount: len(posts),
		Cost:          tracker.Summary(),
	})
	if err != nil {
		r.emit(runID, "error", err.Error())
		return models.Report{}, err
	}

	if r.history != nil {
		scores, err := r.history.RecentScores(ctx, r.brand, trendWindow)
		if err != nil {
			log.WithError(err).Warn("score history unavailable, trend unknown")
		} else {
			report.Trend = store.ClassifyTrend(report.SentimentScore, scores)
		}
	}

	if err := r.persist(ctx, report, opts, log); err != nil {
		r.emit(runID, "error", err.Error())
		return report, err
	}

	if r.notifier != nil && !opts.DryRun {
		r.emit(runID, "deliver", "posting to chat")
		if err := r.notifier.Deliver(ctx, report); err != nil {
			r.emit(runID, "error", err.Error())
			return report, err
		}
	}

	r.emit(runID, "done", fmt.Sprintf("%d posts, score %+.2f, %s",
		report.TotalCount, report.SentimentScore, report.Trend))
	log.WithFields(logrus.Fields{
		"posts":    report.TotalCount,
		"score":    report.SentimentScore,
		"cost_usd": report.Cost.USD,
		"duration": time.Since(startedAt).Round(time.Millisecond).String(),
	}).Info("run complete")
	return report, nil
}

// fetch queries all sources concurrently and merges the results. A source
// that fails transiently contributes nothing; an auth failure aborts the
// whole run.
func (r *Runner) fetch(ctx context.Context, hours int) ([]models.Post, error) {
	q := source.Query{
		Keywords:    r.keywords,
		WindowHours: hours,
		MaxResults:  r.maxResults,
	}

	g, gctx := errgroup.WithContext(ctx)
	batches := make([][]models.Post, len(r.sources))
	for i, src := range r.sources {
		i, src := i, src
		g.Go(func() error {
			posts, err := src.Fetch(gctx, q)
			if err != nil {
				if errors.Is(err, source.ErrAuth) {
					return fmt.Errorf("source %s: %w", src.Name(), err)
				}
				r.log.WithField("source", src.Name()).WithError(err).Warn("source fetch failed")
				return nil
			}
			batches[i] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return source.Merge(batches...), nil
}

func (r *Runner) persist(ctx context.Context, report models.Report, opts Options, log *logrus.Entry) error {
	if r.files != nil {
		path, err := r.files.Save(report)
		if err != nil {
			return err
		}
		log.WithField("path", path).Debug("report written")

		if removed, err := r.files.CleanupOld(r.retentionDays); err != nil {
			log.WithError(err).Warn("report cleanup failed")
		} else if removed > 0 {
			log.WithField("removed", removed).Debug("old reports cleaned up")
		}
	}

	if opts.OutputPath != "" {
		if err := store.WriteReport(opts.OutputPath, report); err != nil {
			return err
		}
	}

	// Dry runs stay out of history so they cannot skew the trend baseline.
	if r.history != nil && !opts.DryRun {
		if err := r.history.Save(ctx, report); err != nil {
			log.WithError(err).Warn("history save failed")
		}
	}
	return nil
}

func (r *Runner) emit(runID, stage, message string) {
	if r.sink == nil {
		return
	}
	r.sink(Event{RunID: runID, Stage: stage, Message: message, Time: time.Now().UTC()})
}
