package classify

import (
	"errors"

	"github.com/brandpulse/brandpulse/internal/llm"
	"github.com/brandpulse/brandpulse/pkg/models"
)

// ErrBudgetExceeded signals that the cumulative classification cost passed
// the run's ceiling. Remaining batches are skipped; results classified so
// far are kept and returned alongside this error.
var ErrBudgetExceeded = errors.New("classify: budget ceiling exceeded")

// Pricing is the per-model price table in USD per million tokens.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// CostTracker accumulates token usage and spend for one run. It is
// run-scoped state passed explicitly through the classification loop, not
// a global; a future parallel batch executor would need to add locking.
type CostTracker struct {
	pricing   Pricing
	budgetUSD float64

	inputTokens  int
	outputTokens int
	batches      int
	failed       int
	cacheHits    int
	exceeded     bool
}

// NewCostTracker creates a tracker with the given price table and ceiling.
func NewCostTracker(pricing Pricing, budgetUSD float64) *CostTracker {
	return &CostTracker{pricing: pricing, budgetUSD: budgetUSD}
}

// Record adds the usage of one upstream call. Called for every call that
// reached the API, successful or not.
func (t *CostTracker) Record(u llm.Usage) {
	t.inputTokens += u.InputTokens
	t.outputTokens += u.OutputTokens
}

// RecordBatch counts a completed batch; failed marks a defaulted one.
func (t *CostTracker) RecordBatch(failed bool) {
	t.batches++
	if failed {
		t.failed++
	}
}

// RecordCacheHit counts a post served from cache.
func (t *CostTracker) RecordCacheHit() { t.cacheHits++ }

// USD returns the cumulative spend.
func (t *CostTracker) USD() float64 {
	return float64(t.inputTokens)/1_000_000*t.pricing.InputPerMTok +
		float64(t.outputTokens)/1_000_000*t.pricing.OutputPerMTok
}

// Exceeded reports whether the ceiling has been breached. Once true it
// stays true for the rest of the run.
func (t *CostTracker) Exceeded() bool {
	if t.exceeded {
		return true
	}
	if t.budgetUSD > 0 && t.USD() >= t.budgetUSD {
		t.exceeded = true
	}
	return t.exceeded
}

// Summary snapshots the tracker into report form.
func (t *CostTracker) Summary() models.CostSummary {
	return models.CostSummary{
		InputTokens:    t.inputTokens,
		OutputTokens:   t.outputTokens,
		USD:            t.USD(),
		Batches:        t.batches,
		BatchesFailed:  t.failed,
		CacheHits:      t.cacheHits,
		BudgetExceeded: t.exceeded,
	}
}
