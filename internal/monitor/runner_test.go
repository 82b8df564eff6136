package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandpulse/brandpulse/internal/classify"
	"github.com/brandpulse/brandpulse/internal/llm"
	"github.com/brandpulse/brandpulse/internal/source"
	"github.com/brandpulse/brandpulse/internal/store"
	"github.com/brandpulse/brandpulse/pkg/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// ── fakes ──

type fakeSource struct {
	name  string
	posts []models.Post
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, q source.Query) ([]models.Post, error) {
	return f.posts, f.err
}

// fakeProvider answers each Complete call from a scripted list, repeating
// the last entry once the script runs out.
type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	replies []fakeReply
}

type fakeReply struct {
	content string
	usage   llm.Usage
	err     error
}

func (f *fakeProvider) Name() string                   { return "fake" }
func (f *fakeProvider) Ping(ctx context.Context) error { return nil }

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	f.calls++
	r := f.replies[i]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Response{Content: r.content, Usage: r.usage}, nil
}

// batchJSON builds a well-formed response for n posts with the given
// sentiments cycling over the batch.
func batchJSON(sentiments ...string) string {
	items := make([]string, len(sentiments))
	for i, s := range sentiments {
		items[i] = fmt.Sprintf(`{"sentiment":%q,"intent":"GENERAL_MENTION","urgency":"LOW","confidence":80}`, s)
	}
	return "[" + strings.Join(items, ",") + "]"
}

type fakeNotifier struct {
	mu        sync.Mutex
	delivered []models.Report
	err       error
}

func (f *fakeNotifier) Deliver(ctx context.Context, r models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, r)
	return nil
}

type fakeHistory struct {
	mu     sync.Mutex
	saved  []models.Report
	scores []float64
}

func (f *fakeHistory) Save(ctx context.Context, r models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeHistory) RecentScores(ctx context.Context, brand string, n int) ([]float64, error) {
	return f.scores, nil
}

func post(id string, age time.Duration) models.Post {
	return models.Post{
		ID:           id,
		AuthorHandle: "user" + id,
		Text:         "nansen mention " + id,
		CreatedAt:    time.Now().Add(-age),
		Source:       "twitter",
	}
}

func newTestRunner(t *testing.T, provider llm.Provider, budget float64, opts ...RunnerOption) *Runner {
	t.Helper()
	classifier := classify.New(provider, nil, classify.Config{
		Brand:       "Nansen",
		BatchSize:   2,
		MaxAttempts: 1,
	}, quietLogger())

	pricing := classify.Pricing{InputPerMTok: 3, OutputPerMTok: 15}
	sources := []source.Source{
		&fakeSource{name: "twitter", posts: []models.Post{post("1", time.Hour), post("2", 2*time.Hour)}},
		&fakeSource{name: "rss", posts: []models.Post{post("3", 3*time.Hour), post("1", time.Hour)}}, // "1" is a duplicate
	}

	return NewRunner("Nansen", []string{"nansen"}, sources, classifier, pricing, budget, quietLogger(), opts...)
}

func TestRunEndToEnd(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: batchJSON("POSITIVE", "NEGATIVE"), usage: llm.Usage{InputTokens: 100, OutputTokens: 50}},
		{content: batchJSON("NEUTRAL"), usage: llm.Usage{InputTokens: 60, OutputTokens: 20}},
	}}

	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	notifier := &fakeNotifier{}
	history := &fakeHistory{scores: []float64{-0.4, -0.3}}

	var events []Event
	runner := newTestRunner(t, provider, 5,
		WithFileStore(fs, 30),
		WithHistory(history),
		WithNotifier(notifier),
		WithSink(func(e Event) { events = append(events, e) }),
	)

	report, err := runner.Run(context.Background(), Options{Hours: 24})
	if err != nil {
		t.Fatal(err)
	}

	// Duplicate post "1" merged away: 3 distinct posts in 2 batches.
	if report.TotalCount != 3 {
		t.Fatalf("total = %d, want 3", report.TotalCount)
	}
	if report.PositiveCount != 1 || report.NegativeCount != 1 || report.NeutralCount != 1 {
		t.Errorf("counts = %d/%d/%d", report.PositiveCount, report.NegativeCount, report.NeutralCount)
	}
	if report.Cost.Batches != 2 || report.Cost.BatchesFailed != 0 {
		t.Errorf("cost = %+v", report.Cost)
	}

	// Prior scores average -0.35; score 0 is a clear improvement.
	if report.Trend != models.TrendImproving {
		t.Errorf("trend = %q, want IMPROVING", report.Trend)
	}

	if len(notifier.delivered) != 1 {
		t.Fatalf("delivered = %d reports, want 1", len(notifier.delivered))
	}
	if len(history.saved) != 1 {
		t.Errorf("history saved = %d, want 1", len(history.saved))
	}

	latest, err := fs.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.RunID != report.RunID {
		t.Errorf("persisted run = %q, want %q", latest.RunID, report.RunID)
	}

	var stages []string
	for _, e := range events {
		if e.RunID != report.RunID {
			t.Errorf("event run id = %q", e.RunID)
		}
		stages = append(stages, e.Stage)
	}
	want := []string{"fetch", "classify", "aggregate", "deliver", "done"}
	if strings.Join(stages, ",") != strings.Join(want, ",") {
		t.Errorf("stages = %v, want %v", stages, want)
	}
}

func TestRunAuthFailureIsFatal(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{{content: batchJSON("NEUTRAL")}}}
	runner := newTestRunner(t, provider, 5)
	runner.sources = []source.Source{
		&fakeSource{name: "twitter", err: fmt.Errorf("%w: bad token", source.ErrAuth)},
	}

	if _, err := runner.Run(context.Background(), Options{}); !errors.Is(err, source.ErrAuth) {
		t.Errorf("want ErrAuth, got %v", err)
	}
}

func TestRunTransientSourceFailureSkipsSource(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: batchJSON("NEUTRAL", "NEUTRAL")},
	}}
	runner := newTestRunner(t, provider, 5)
	runner.sources = []source.Source{
		&fakeSource{name: "twitter", posts: []models.Post{post("1", time.Hour), post("2", 2*time.Hour)}},
		&fakeSource{name: "rss", err: errors.New("feed timeout")},
	}

	report, err := runner.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("transient source failure should not abort: %v", err)
	}
	if report.TotalCount != 2 {
		t.Errorf("total = %d, want 2 from the healthy source", report.TotalCount)
	}
}

func TestRunDryRunSkipsDeliveryAndHistory(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: batchJSON("POSITIVE", "POSITIVE")},
		{content: batchJSON("POSITIVE")},
	}}

	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	notifier := &fakeNotifier{}
	history := &fakeHistory{}

	runner := newTestRunner(t, provider, 5,
		WithFileStore(fs, 30),
		WithHistory(history),
		WithNotifier(notifier),
	)

	if _, err := runner.Run(context.Background(), Options{DryRun: true}); err != nil {
		t.Fatal(err)
	}

	if len(notifier.delivered) != 0 {
		t.Error("dry run must not deliver to chat")
	}
	if len(history.saved) != 0 {
		t.Error("dry run must not enter history")
	}
	if _, err := fs.Latest(); err != nil {
		t.Errorf("dry run should still write the report file: %v", err)
	}
}

func TestRunBudgetExceededDeliversPartial(t *testing.T) {
	// First batch succeeds but its spend passes the ceiling; the second
	// batch is skipped and its post defaulted.
	provider := &fakeProvider{replies: []fakeReply{
		{content: batchJSON("POSITIVE", "POSITIVE"), usage: llm.Usage{InputTokens: 400_000}},
	}}
	notifier := &fakeNotifier{}
	runner := newTestRunner(t, provider, 1, WithNotifier(notifier))

	report, err := runner.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("partial report should be delivered without error: %v", err)
	}

	if report.TotalCount != 3 {
		t.Fatalf("total = %d, want 3", report.TotalCount)
	}
	if report.PositiveCount != 2 || report.NeutralCount != 1 {
		t.Errorf("counts = %d positive / %d neutral, want 2/1", report.PositiveCount, report.NeutralCount)
	}
	if !report.Cost.BudgetExceeded {
		t.Error("cost summary should flag the ceiling breach")
	}
	if len(notifier.delivered) != 1 {
		t.Errorf("delivered = %d, want 1", len(notifier.delivered))
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second batch skipped)", provider.calls)
	}
}

func TestRunBudgetExceededWithNothingUsableIsFatal(t *testing.T) {
	// Every attempt burns tokens but returns garbage: the only batch
	// defaults and the ceiling is already breached, so nothing usable
	// exists and the run fails.
	provider := &fakeProvider{replies: []fakeReply{
		{content: "not json", usage: llm.Usage{InputTokens: 600_000}},
	}}
	notifier := &fakeNotifier{}
	runner := newTestRunner(t, provider, 1, WithNotifier(notifier))

	_, err := runner.Run(context.Background(), Options{})
	if !errors.Is(err, classify.ErrBudgetExceeded) {
		t.Fatalf("want ErrBudgetExceeded, got %v", err)
	}
	if len(notifier.delivered) != 0 {
		t.Error("nothing should be delivered")
	}
}

func TestRunNotifierFailureSurfaces(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: batchJSON("NEUTRAL", "NEUTRAL")},
		{content: batchJSON("NEUTRAL")},
	}}
	notifier := &fakeNotifier{err: errors.New("webhook gone")}
	runner := newTestRunner(t, provider, 5, WithNotifier(notifier))

	if _, err := runner.Run(context.Background(), Options{}); err == nil {
		t.Error("delivery failure should surface")
	}
}
