// Package store provides persistence for the lead-generation pipeline.
package store

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// RunFilter specifies criteria for listing campaign runs.
type RunFilter struct {
	CampaignID string          `json:"campaign_id,omitempty"`
	Status     model.RunStatus `json:"status,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	CampaignRunID string `json:"campaign_run_id,omitempty"`
	BusinessType  string `json:"business_type,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	ScoredOnly    bool   `json:"scored_only,omitempty"`
	UnscoredOnly  bool   `json:"unscored_only,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the pipeline.
type Store interface {
	// Campaigns
	CreateCampaign(ctx context.Context, name, description string) (*model.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context) ([]model.Campaign, error)

	// Campaign runs
	CreateCampaignRun(ctx context.Context, campaignID string) (*model.CampaignRun, error)
	GetCampaignRun(ctx context.Context, runID string) (*model.CampaignRun, error)
	ListCampaignRuns(ctx context.Context, filter RunFilter) ([]model.CampaignRun, error)
	UpdateCampaignRunStatus(ctx context.Context, runID string, status model.RunStatus, errorMessage string) error
	UpdateCampaignRunCounters(ctx context.Context, run *model.CampaignRun) error
	FinishCampaignRun(ctx context.Context, run *model.CampaignRun) error

	// Jobs
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.RunStatus, errorMessage string) error

	// Search queries
	RecentSearchExists(ctx context.Context, textQuery, includedType string, window time.Duration) (bool, error)
	CreateSearchQuery(ctx context.Context, q *model.SearchQuery) error
	SetSearchQueryResultCount(ctx context.Context, id int64, count int) error

	// Leads
	InsertLead(ctx context.Context, lead *model.Lead) (bool, error)
	GetLead(ctx context.Context, id int64) (*model.Lead, error)
	GetLeadByPlaceID(ctx context.Context, placeID string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLeadExtraction(ctx context.Context, data *model.ExtractedData) error
	UpdateLeadScores(ctx context.Context, lead *model.Lead) error
	UpdateLeadPercentiles(ctx context.Context, sets []model.PercentileSet) error

	// Franchises
	GetFranchise(ctx context.Context, normalizedName string) (*model.Franchise, error)
	CreateFranchise(ctx context.Context, normalizedName, displayName string) (*model.Franchise, error)
	CountLeadsByName(ctx context.Context, normalizedName string) (int, error)
	LinkLeadsToFranchise(ctx context.Context, franchiseID int64, normalizedName string) (int, error)

	// Scrape runs and pages
	CreateScrapeRun(ctx context.Context, leadID int64) (*model.ScrapeRun, error)
	CompleteScrapeRun(ctx context.Context, runID string, status model.RunStatus, pagesFound int) error
	InsertScrapedPages(ctx context.Context, pages []model.ScrapedPage) error
	ListScrapedPages(ctx context.Context, scrapeRunID string) ([]model.ScrapedPage, error)

	// Extracted data (append-only audit history)
	AppendExtractedData(ctx context.Context, data *model.ExtractedData) error
	GetLatestExtractedData(ctx context.Context, leadID int64) (*model.ExtractedData, error)

	// Market statistics
	RefreshMarketStats(ctx context.Context, minCohortSize int) error
	GetMarketStatsByType(ctx context.Context, businessType string) (*model.MarketStats, error)
	GetMarketStatsByCity(ctx context.Context, city, state string) (*model.MarketStats, error)
	GetMarketStatsByState(ctx context.Context, state string) (*model.MarketStats, error)
	ListQualifiedLeads(ctx context.Context) ([]model.Lead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
