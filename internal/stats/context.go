package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// MarketContext renders a short paragraph describing where a lead sits
// in its cohort, for use as scoring-prompt context. Returns "" when no
// cohort stats exist.
func MarketContext(lead *model.Lead, byType *model.MarketStats) string {
	if byType == nil || byType.CohortSize == 0 {
		return ""
	}

	cp := byType.CutPoints
	pct := EstimatePercentile(float64(lead.ReviewCount), cp)

	var b strings.Builder
	fmt.Fprintf(&b, "Market context for %q businesses (%d in cohort): ", byType.BusinessType, byType.CohortSize)
	fmt.Fprintf(&b, "median review count %.0f, p75 %.0f, p90 %.0f, p99 %.0f; median rating %.1f. ",
		cp.P50, cp.P75, cp.P90, cp.P99, byType.MedianRating)
	fmt.Fprintf(&b, "This lead has %d reviews (approx. %s percentile, bucket %q)",
		lead.ReviewCount, ordinal(int(math.Round(pct))), BucketLabel(pct))
	if lead.Rating > 0 {
		side := "below"
		if lead.Rating >= byType.MedianRating {
			side = "at or above"
		}
		fmt.Fprintf(&b, " and a %.1f rating, %s the cohort median", lead.Rating, side)
	}
	b.WriteString(".")
	return b.String()
}
