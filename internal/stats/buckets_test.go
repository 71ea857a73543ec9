package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

func hvacStats() *model.MarketStats {
	return &model.MarketStats{
		BusinessType: "hvac_contractor",
		CohortSize:   200,
		CutPoints: model.CutPoints{
			P25: 20, P50: 55, P75: 120, P90: 300, P95: 520, P99: 1400, P999: 4200,
		},
		MedianRating: 4.6,
	}
}

func TestEstimatePercentile(t *testing.T) {
	cp := hvacStats().CutPoints

	assert.InDelta(t, 25, EstimatePercentile(20, cp), 1e-9)
	assert.InDelta(t, 90, EstimatePercentile(300, cp), 1e-9)
	// Midway between p90 (300) and p95 (520).
	assert.InDelta(t, 92.5, EstimatePercentile(410, cp), 1e-9)
	// Below p25 scales from zero.
	assert.InDelta(t, 12.5, EstimatePercentile(10, cp), 1e-9)
	// Beyond p99.9 saturates.
	assert.InDelta(t, 99.9, EstimatePercentile(9000, cp), 1e-9)
}

func TestReviewCountBucket(t *testing.T) {
	stats := hvacStats()

	// A lead sitting at roughly the 92nd percentile of review count.
	assert.Equal(t, "90th–95th percentile", ReviewCountBucket(390, stats))
	assert.Equal(t, "99.9th+ percentile", ReviewCountBucket(5000, stats))
	assert.Equal(t, "below minimum", ReviewCountBucket(1, stats))
	assert.Equal(t, "below minimum", ReviewCountBucket(100, nil))
}

func TestMarketContext(t *testing.T) {
	lead := &model.Lead{ReviewCount: 390, Rating: 4.8, BusinessType: "hvac_contractor"}

	text := MarketContext(lead, hvacStats())
	assert.Contains(t, text, `"hvac_contractor"`)
	assert.Contains(t, text, "200 in cohort")
	assert.Contains(t, text, "390 reviews")
	assert.Contains(t, text, "90th–95th percentile")
	assert.Contains(t, text, "at or above the cohort median")

	assert.Empty(t, MarketContext(lead, nil))
}
