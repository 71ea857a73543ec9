package model

import "time"

// CutPoints holds the percentile cut points of a cohort's review-count
// distribution.
type CutPoints struct {
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	P999 float64 `json:"p999"`
}

// MarketStats is one materialized cohort distribution row. The grouping
// key is BusinessType, State, or City+State depending on the dimension.
type MarketStats struct {
	BusinessType string    `json:"business_type,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	CohortSize   int       `json:"cohort_size"`
	CutPoints    CutPoints `json:"cut_points"`
	MedianRating float64   `json:"median_rating"`
	RefreshedAt  time.Time `json:"refreshed_at"`
}

// PercentileSet holds a lead's computed market-relative standing.
// Nil fields mean the cohort was too small (or the lead unqualified)
// for that dimension.
type PercentileSet struct {
	LeadID           int64    `json:"lead_id"`
	QualityPctByType *float64 `json:"quality_pct_by_type,omitempty"`
	QualityPctByCity *float64 `json:"quality_pct_by_city,omitempty"`
	ExitPctByType    *float64 `json:"exit_pct_by_type,omitempty"`
	ExitPctByCity    *float64 `json:"exit_pct_by_city,omitempty"`
	CompositeScore   *float64 `json:"composite_score,omitempty"`
}
