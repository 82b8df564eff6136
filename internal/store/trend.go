package store

import "github.com/brandpulse/brandpulse/pkg/models"

// trendBand is the dead zone around the historical mean inside which the
// trend reads STABLE.
const trendBand = 0.05

// ClassifyTrend compares the current sentiment score against the mean of
// prior scores. No history means UNKNOWN.
func ClassifyTrend(current float64, prior []float64) models.Trend {
	if len(prior) == 0 {
		return models.TrendUnknown
	}

	var sum float64
	for _, s := range prior {
		sum += s
	}
	mean := sum / float64(len(prior))

	switch diff := current - mean; {
	case diff > trendBand:
		return models.TrendImproving
	case diff < -trendBand:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}
