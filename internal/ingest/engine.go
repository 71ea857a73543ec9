// Package ingest executes place-search jobs: it expands a campaign's
// search list against the Places API and persists new leads.
package ingest

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-pipeline/internal/config"
	"github.com/sells-group/leadgen-pipeline/internal/model"
	"github.com/sells-group/leadgen-pipeline/internal/resilience"
	"github.com/sells-group/leadgen-pipeline/pkg/google"
)

// maxResultsCeiling is the hard per-query result cap regardless of the
// job descriptor.
const maxResultsCeiling = 60

// Store is the persistence surface the engine needs.
type Store interface {
	UpdateJobStatus(ctx context.Context, jobID string, status model.RunStatus, errorMessage string) error
	UpdateCampaignRunStatus(ctx context.Context, runID string, status model.RunStatus, errorMessage string) error
	UpdateCampaignRunCounters(ctx context.Context, run *model.CampaignRun) error
	FinishCampaignRun(ctx context.Context, run *model.CampaignRun) error
	RecentSearchExists(ctx context.Context, textQuery, includedType string, window time.Duration) (bool, error)
	CreateSearchQuery(ctx context.Context, q *model.SearchQuery) error
	SetSearchQueryResultCount(ctx context.Context, id int64, count int) error
	InsertLead(ctx context.Context, lead *model.Lead) (bool, error)
	GetFranchise(ctx context.Context, normalizedName string) (*model.Franchise, error)
	CreateFranchise(ctx context.Context, normalizedName, displayName string) (*model.Franchise, error)
	CountLeadsByName(ctx context.Context, normalizedName string) (int, error)
	LinkLeadsToFranchise(ctx context.Context, franchiseID int64, normalizedName string) (int, error)
}

// Engine runs ingestion jobs. The rate limiter is owned per instance so
// concurrent engines never share token buckets.
type Engine struct {
	store      Store
	google     google.Client
	limiter    *rate.Limiter
	httpClient *http.Client
	cfg        *config.Config

	tokenDelay time.Duration
	sleep      func(time.Duration)
}

// NewEngine creates an ingestion engine.
func NewEngine(store Store, g google.Client, cfg *config.Config) *Engine {
	rps := cfg.Google.RequestsPerSec
	if rps <= 0 {
		rps = 0.5
	}
	delay := time.Duration(cfg.Google.PageTokenDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Engine{
		store:      store,
		google:     g,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		tokenDelay: delay,
		sleep:      time.Sleep,
	}
}

// Run executes one ingestion job end to end. The campaign_runs row is
// the sole status channel: counters and terminal status are written
// there, and the job row mirrors the terminal state.
func (e *Engine) Run(ctx context.Context, job *model.Job) (*model.CampaignRun, error) {
	if job == nil || job.ID == "" || job.CampaignID == "" || job.CampaignRunID == "" {
		return nil, eris.New("ingest: job descriptor is missing required fields")
	}

	log := zap.L().With(
		zap.String("job_id", job.ID),
		zap.String("campaign_run_id", job.CampaignRunID),
	)

	list, err := LoadSearchList(ctx, e.httpClient, job.SearchListURL)
	if err != nil {
		e.fail(ctx, job, err)
		return nil, err
	}

	if err := e.store.UpdateJobStatus(ctx, job.ID, model.RunStatusRunning, ""); err != nil {
		return nil, eris.Wrap(err, "ingest: mark job running")
	}
	if err := e.store.UpdateCampaignRunStatus(ctx, job.CampaignRunID, model.RunStatusRunning, ""); err != nil {
		return nil, eris.Wrap(err, "ingest: mark run running")
	}

	maxResults := job.MaxResultsPerQuery
	if maxResults <= 0 {
		maxResults = e.cfg.Ingest.MaxResultsPerQuery
	}
	if maxResults <= 0 || maxResults > maxResultsCeiling {
		maxResults = maxResultsCeiling
	}

	cacheWindow := time.Duration(e.cfg.Ingest.CacheWindowDays) * 24 * time.Hour
	if cacheWindow <= 0 {
		cacheWindow = 30 * 24 * time.Hour
	}

	run := &model.CampaignRun{
		ID:         job.CampaignRunID,
		CampaignID: job.CampaignID,
		Status:     model.RunStatusRunning,
	}

	// Place IDs already handled this run. Repeat hits across overlapping
	// searches are duplicates, not new leads.
	seen := make(map[string]struct{})

	for _, search := range list.Searches {
		if ctx.Err() != nil {
			break
		}

		if job.SkipCachedSearches {
			exists, err := e.store.RecentSearchExists(ctx, search.TextQuery, search.IncludedType, cacheWindow)
			if err != nil {
				log.Warn("cache check failed", zap.String("query", search.TextQuery), zap.Error(err))
				run.Errors++
			} else if exists {
				log.Info("skipping cached search", zap.String("query", search.TextQuery))
				continue
			}
		}

		sq := &model.SearchQuery{
			CampaignID:    job.CampaignID,
			CampaignRunID: job.CampaignRunID,
			TextQuery:     search.TextQuery,
			IncludedType:  search.IncludedType,
		}
		if err := e.store.CreateSearchQuery(ctx, sq); err != nil {
			log.Warn("persist search query failed", zap.String("query", search.TextQuery), zap.Error(err))
			run.Errors++
			continue
		}

		found, dups, rowErrs, err := e.runQuery(ctx, sq, maxResults, seen)
		run.QueriesExecuted++
		run.LeadsFound += found
		run.DuplicatesSkipped += dups
		run.Errors += rowErrs
		if err != nil {
			// Provider failure aborts this query's pagination only.
			log.Warn("search failed", zap.String("query", search.TextQuery), zap.Error(err))
			run.Errors++
		}

		if err := e.store.SetSearchQueryResultCount(ctx, sq.ID, found); err != nil {
			log.Warn("update result count failed", zap.Int64("search_query_id", sq.ID), zap.Error(err))
		}

		// Counters land after every query so a watcher sees live progress,
		// not just the terminal snapshot.
		if err := e.store.UpdateCampaignRunCounters(ctx, run); err != nil {
			log.Warn("persist run counters failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	run.Status = model.RunStatusCompleted
	if err := e.store.FinishCampaignRun(ctx, run); err != nil {
		e.fail(ctx, job, err)
		return run, eris.Wrap(err, "ingest: finish campaign run")
	}
	if err := e.store.UpdateJobStatus(ctx, job.ID, model.RunStatusCompleted, ""); err != nil {
		return run, eris.Wrap(err, "ingest: mark job completed")
	}

	log.Info("ingestion complete",
		zap.Int("queries_executed", run.QueriesExecuted),
		zap.Int("leads_found", run.LeadsFound),
		zap.Int("duplicates_skipped", run.DuplicatesSkipped),
		zap.Int("errors", run.Errors),
	)
	return run, nil
}

// fail marks the job and run failed. Best effort: the original error is
// what the caller sees.
func (e *Engine) fail(ctx context.Context, job *model.Job, cause error) {
	msg := cause.Error()
	if err := e.store.UpdateCampaignRunStatus(ctx, job.CampaignRunID, model.RunStatusFailed, msg); err != nil {
		zap.L().Error("mark run failed", zap.String("campaign_run_id", job.CampaignRunID), zap.Error(err))
	}
	if err := e.store.UpdateJobStatus(ctx, job.ID, model.RunStatusFailed, msg); err != nil {
		zap.L().Error("mark job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// runQuery paginates one text search up to maxResults, filtering closed
// and repeat places, and inserts surviving leads.
func (e *Engine) runQuery(ctx context.Context, sq *model.SearchQuery, maxResults int, seen map[string]struct{}) (found, dups, rowErrs int, err error) {
	log := zap.L().With(zap.String("query", sq.TextQuery))

	var (
		pageToken  string
		emptyPages int
		fetched    int
	)

	emptyLimit := e.cfg.Ingest.EmptyPageLimit
	if emptyLimit <= 0 {
		emptyLimit = 3
	}

	for {
		if pageToken != "" {
			// Continuation tokens are not valid immediately.
			e.sleep(e.tokenDelay)
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return found, dups, rowErrs, eris.Wrap(err, "ingest: rate limit wait")
		}

		remaining := maxResults - fetched
		req := google.TextSearchRequest{
			TextQuery:      sq.TextQuery,
			IncludedType:   sq.IncludedType,
			PageToken:      pageToken,
			MaxResultCount: min(remaining, google.MaxPageSize),
		}

		resp, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) (*google.TextSearchResponse, error) {
			return e.google.TextSearch(ctx, req)
		})
		if err != nil {
			return found, dups, rowErrs, eris.Wrap(err, "ingest: text search")
		}

		if len(resp.Places) == 0 {
			emptyPages++
			if emptyPages >= emptyLimit {
				log.Debug("stopping after consecutive empty pages", zap.Int("empty_pages", emptyPages))
				break
			}
		} else {
			emptyPages = 0
		}

		for _, place := range resp.Places {
			fetched++
			if place.IsClosedPermanently() {
				continue
			}
			if _, ok := seen[place.ID]; ok {
				dups++
				continue
			}
			seen[place.ID] = struct{}{}

			lead := leadFromPlace(&place, sq)
			inserted, err := e.store.InsertLead(ctx, lead)
			if err != nil {
				log.Warn("insert lead failed", zap.String("place_id", place.ID), zap.Error(err))
				rowErrs++
				continue
			}
			if !inserted {
				dups++
				continue
			}
			found++

			e.linkFranchise(ctx, lead)

			if fetched >= maxResults {
				break
			}
		}

		if fetched >= maxResults || resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return found, dups, rowErrs, nil
}

// linkFranchise attaches the lead to a franchise group when a second
// lead with the same normalized name exists. Failures are logged and
// never block the lead itself.
func (e *Engine) linkFranchise(ctx context.Context, lead *model.Lead) {
	if lead.NormalizedName == "" {
		return
	}
	log := zap.L().With(zap.String("normalized_name", lead.NormalizedName))

	count, err := e.store.CountLeadsByName(ctx, lead.NormalizedName)
	if err != nil {
		log.Warn("franchise count failed", zap.Error(err))
		return
	}
	if count < 2 {
		return
	}

	franchise, err := e.store.GetFranchise(ctx, lead.NormalizedName)
	if err != nil {
		log.Warn("franchise lookup failed", zap.Error(err))
		return
	}
	if franchise == nil {
		franchise, err = e.store.CreateFranchise(ctx, lead.NormalizedName, lead.Name)
		if err != nil {
			log.Warn("franchise create failed", zap.Error(err))
			return
		}
	}

	linked, err := e.store.LinkLeadsToFranchise(ctx, franchise.ID, lead.NormalizedName)
	if err != nil {
		log.Warn("franchise backfill failed", zap.Int64("franchise_id", franchise.ID), zap.Error(err))
		return
	}
	log.Debug("franchise linked", zap.Int64("franchise_id", franchise.ID), zap.Int("leads_linked", linked))
}

// leadFromPlace maps an API place onto a lead row.
func leadFromPlace(p *google.Place, sq *model.SearchQuery) *model.Lead {
	lead := &model.Lead{
		PlaceID:        p.ID,
		SearchQueryID:  sq.ID,
		CampaignRunID:  sq.CampaignRunID,
		Name:           p.DisplayName.Text,
		NormalizedName: NormalizeName(p.DisplayName.Text),
		BusinessType:   p.PrimaryType,
		Phone:          p.NationalPhoneNumber,
		Website:        p.WebsiteURI,
		Rating:         p.Rating,
		ReviewCount:    p.UserRatingCount,
		PriceLevel:     p.PriceLevel,
	}

	if p.Location != nil {
		lead.Lat = p.Location.Latitude
		lead.Lng = p.Location.Longitude
	}

	streetNumber := p.AddressComponent("street_number")
	route := p.AddressComponent("route")
	switch {
	case streetNumber != "" && route != "":
		lead.Street = streetNumber + " " + route
	case route != "":
		lead.Street = route
	}
	lead.City = p.AddressComponent("locality")
	lead.State = addressComponentShort(p, "administrative_area_level_1")
	lead.ZipCode = p.AddressComponent("postal_code")

	return lead
}

func addressComponentShort(p *google.Place, typ string) string {
	for _, c := range p.AddressComponents {
		for _, t := range c.Types {
			if t == typ {
				if c.ShortText != "" {
					return c.ShortText
				}
				return c.LongText
			}
		}
	}
	return ""
}
