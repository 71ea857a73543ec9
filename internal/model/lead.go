package model

import "time"

// ScoreInsufficientEvidence is the sentinel for "not enough evidence to
// score", distinct from any valid 1-10 score.
const ScoreInsufficientEvidence = -1

// Lead is one candidate business discovered by ingestion.
type Lead struct {
	ID            int64  `json:"id"`
	PlaceID       string `json:"place_id"` // provider identifier, globally unique
	SearchQueryID int64  `json:"search_query_id"`
	CampaignRunID string `json:"campaign_run_id"`
	FranchiseID   *int64 `json:"franchise_id,omitempty"`

	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	BusinessType   string `json:"business_type,omitempty"`

	Street  string  `json:"street,omitempty"`
	City    string  `json:"city,omitempty"`
	State   string  `json:"state,omitempty"`
	ZipCode string  `json:"zip_code,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`

	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`

	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	PriceLevel  string  `json:"price_level,omitempty"`

	// Scrape-derived fields, written by the extraction engine.
	FoundedYear        *int   `json:"founded_year,omitempty"`
	YearsInBusiness    *int   `json:"years_in_business,omitempty"`
	EmployeeCount      *int   `json:"employee_count,omitempty"`
	AcquisitionFlag    bool   `json:"acquisition_flag"`
	AcquisitionSummary string `json:"acquisition_summary,omitempty"`
	ContactPageURL     string `json:"contact_page_url,omitempty"`

	// Scores written by the scoring engine. 1-10, or -1 for insufficient
	// evidence; nil means never scored.
	QualityScore   *int   `json:"quality_score,omitempty"`
	ExitScore      *int   `json:"exit_score,omitempty"`
	OwnershipType  string `json:"ownership_type,omitempty"`
	ScoreRationale string `json:"score_rationale,omitempty"`
	IsExcluded     bool   `json:"is_excluded"`
	ExcludeReason  string `json:"exclude_reason,omitempty"`

	// Market-relative standing, written by the statistics engine.
	QualityPctByType *float64 `json:"quality_pct_by_type,omitempty"`
	QualityPctByCity *float64 `json:"quality_pct_by_city,omitempty"`
	ExitPctByType    *float64 `json:"exit_pct_by_type,omitempty"`
	ExitPctByCity    *float64 `json:"exit_pct_by_city,omitempty"`
	CompositeScore   *float64 `json:"composite_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasValidScores reports whether the lead qualifies for percentile
// ranking: both scores present and neither the sentinel.
func (l *Lead) HasValidScores() bool {
	return l.QualityScore != nil && l.ExitScore != nil &&
		*l.QualityScore != ScoreInsufficientEvidence &&
		*l.ExitScore != ScoreInsufficientEvidence
}

// Franchise groups leads sharing one normalized business name.
// Created lazily on first duplicate-name detection.
type Franchise struct {
	ID             int64     `json:"id"`
	NormalizedName string    `json:"normalized_name"`
	DisplayName    string    `json:"display_name"`
	LeadCount      int       `json:"lead_count"`
	CreatedAt      time.Time `json:"created_at"`
}
