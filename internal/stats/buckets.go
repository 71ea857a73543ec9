package stats

import (
	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// cutPoint pairs a stored percentile with its cohort cut-point value.
type cutPoint struct {
	pct   float64
	value float64
}

func cutPointLadder(cp model.CutPoints) []cutPoint {
	return []cutPoint{
		{25, cp.P25},
		{50, cp.P50},
		{75, cp.P75},
		{90, cp.P90},
		{95, cp.P95},
		{99, cp.P99},
		{99.9, cp.P999},
	}
}

// EstimatePercentile places a raw review count on the cohort's
// distribution by interpolating between the stored cut points. Values
// below p25 scale linearly from zero; values above p99.9 saturate.
func EstimatePercentile(value float64, cp model.CutPoints) float64 {
	ladder := cutPointLadder(cp)

	if value >= ladder[len(ladder)-1].value && ladder[len(ladder)-1].value > 0 {
		return 99.9
	}
	prev := cutPoint{0, 0}
	for _, step := range ladder {
		if value < step.value {
			if step.value == prev.value {
				return prev.pct
			}
			frac := (value - prev.value) / (step.value - prev.value)
			if frac < 0 {
				frac = 0
			}
			return prev.pct + frac*(step.pct-prev.pct)
		}
		prev = step
	}
	return prev.pct
}

// ReviewCountBucket labels a raw review count against its cohort
// distribution.
func ReviewCountBucket(reviewCount int, stats *model.MarketStats) string {
	if stats == nil || stats.CohortSize == 0 {
		return "below minimum"
	}
	return BucketLabel(EstimatePercentile(float64(reviewCount), stats.CutPoints))
}
