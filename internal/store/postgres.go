package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-pipeline/internal/db"
	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest ingestion-path operations.
var preparedStatements = map[string]string{
	"recent_search_exists": `SELECT EXISTS (SELECT 1 FROM search_queries WHERE text_query = $1 AND included_type = $2 AND executed_at > $3)`,
	"get_lead_by_place":    `SELECT id FROM leads WHERE place_id = $1`,
	"count_leads_by_name":  `SELECT COUNT(*) FROM leads WHERE normalized_name = $1`,
	"get_franchise":        `SELECT id, normalized_name, display_name, lead_count, created_at FROM franchises WHERE normalized_name = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_runs (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	campaign_id        TEXT NOT NULL REFERENCES campaigns(id),
	status             TEXT NOT NULL DEFAULT 'queued',
	queries_executed   INTEGER NOT NULL DEFAULT 0,
	leads_found        INTEGER NOT NULL DEFAULT 0,
	duplicates_skipped INTEGER NOT NULL DEFAULT 0,
	errors             INTEGER NOT NULL DEFAULT 0,
	error_message      TEXT,
	started_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at       TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_campaign_runs_campaign ON campaign_runs(campaign_id);
CREATE INDEX IF NOT EXISTS idx_campaign_runs_status ON campaign_runs(status);

CREATE TABLE IF NOT EXISTS jobs (
	id                     TEXT PRIMARY KEY,
	campaign_id            TEXT NOT NULL,
	campaign_run_id        TEXT NOT NULL,
	search_list_url        TEXT NOT NULL,
	skip_cached_searches   BOOLEAN NOT NULL DEFAULT true,
	max_results_per_search INTEGER NOT NULL DEFAULT 60,
	status                 TEXT NOT NULL DEFAULT 'queued',
	error_message          TEXT,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_queries (
	id              BIGSERIAL PRIMARY KEY,
	campaign_id     TEXT NOT NULL,
	campaign_run_id TEXT NOT NULL,
	text_query      TEXT NOT NULL,
	included_type   TEXT NOT NULL DEFAULT '',
	result_count    INTEGER NOT NULL DEFAULT 0,
	executed_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_search_queries_text_type ON search_queries(text_query, included_type, executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_search_queries_run ON search_queries(campaign_run_id);

CREATE TABLE IF NOT EXISTS franchises (
	id              BIGSERIAL PRIMARY KEY,
	normalized_name TEXT NOT NULL UNIQUE,
	display_name    TEXT NOT NULL,
	lead_count      INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id                  BIGSERIAL PRIMARY KEY,
	place_id            TEXT NOT NULL UNIQUE,
	search_query_id     BIGINT REFERENCES search_queries(id),
	campaign_run_id     TEXT,
	franchise_id        BIGINT REFERENCES franchises(id),
	name                TEXT NOT NULL,
	normalized_name     TEXT NOT NULL,
	business_type       TEXT NOT NULL DEFAULT '',
	street              TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	state               TEXT NOT NULL DEFAULT '',
	zip_code            TEXT NOT NULL DEFAULT '',
	lat                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	lng                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	phone               TEXT NOT NULL DEFAULT '',
	website             TEXT NOT NULL DEFAULT '',
	rating              DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count        INTEGER NOT NULL DEFAULT 0,
	price_level         TEXT NOT NULL DEFAULT '',
	founded_year        INTEGER,
	years_in_business   INTEGER,
	employee_count      INTEGER,
	acquisition_flag    BOOLEAN NOT NULL DEFAULT false,
	acquisition_summary TEXT NOT NULL DEFAULT '',
	contact_page_url    TEXT NOT NULL DEFAULT '',
	quality_score       INTEGER,
	exit_score          INTEGER,
	ownership_type      TEXT NOT NULL DEFAULT '',
	score_rationale     TEXT NOT NULL DEFAULT '',
	is_excluded         BOOLEAN NOT NULL DEFAULT false,
	exclude_reason      TEXT NOT NULL DEFAULT '',
	quality_pct_by_type DOUBLE PRECISION,
	quality_pct_by_city DOUBLE PRECISION,
	exit_pct_by_type    DOUBLE PRECISION,
	exit_pct_by_city    DOUBLE PRECISION,
	composite_score     DOUBLE PRECISION,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_normalized_name ON leads(normalized_name);
CREATE INDEX IF NOT EXISTS idx_leads_business_type ON leads(business_type);
CREATE INDEX IF NOT EXISTS idx_leads_city_state ON leads(city, state);
CREATE INDEX IF NOT EXISTS idx_leads_campaign_run ON leads(campaign_run_id);
CREATE INDEX IF NOT EXISTS idx_leads_franchise ON leads(franchise_id);

CREATE TABLE IF NOT EXISTS scrape_runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id      BIGINT NOT NULL REFERENCES leads(id),
	status       TEXT NOT NULL DEFAULT 'running',
	pages_found  INTEGER NOT NULL DEFAULT 0,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scrape_runs_lead ON scrape_runs(lead_id);

CREATE TABLE IF NOT EXISTS scraped_pages (
	id            BIGSERIAL PRIMARY KEY,
	scrape_run_id TEXT NOT NULL REFERENCES scrape_runs(id),
	url           TEXT NOT NULL,
	depth         INTEGER NOT NULL DEFAULT 0,
	status_code   INTEGER NOT NULL DEFAULT 0,
	html          TEXT NOT NULL DEFAULT '',
	page_text     TEXT NOT NULL DEFAULT '',
	fetched_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scraped_pages_run ON scraped_pages(scrape_run_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_scraped_pages_run_url ON scraped_pages(scrape_run_id, url);

CREATE TABLE IF NOT EXISTS extracted_emails (
	id             BIGSERIAL PRIMARY KEY,
	lead_id        BIGINT NOT NULL REFERENCES leads(id),
	scrape_run_id  TEXT NOT NULL,
	value          TEXT NOT NULL,
	source_page_id BIGINT,
	source_url     TEXT NOT NULL DEFAULT '',
	authoritative  BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extracted_phones (
	id             BIGSERIAL PRIMARY KEY,
	lead_id        BIGINT NOT NULL REFERENCES leads(id),
	scrape_run_id  TEXT NOT NULL,
	value          TEXT NOT NULL,
	source_page_id BIGINT,
	source_url     TEXT NOT NULL DEFAULT '',
	authoritative  BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extracted_social_profiles (
	id             BIGSERIAL PRIMARY KEY,
	lead_id        BIGINT NOT NULL REFERENCES leads(id),
	scrape_run_id  TEXT NOT NULL,
	network        TEXT NOT NULL,
	url            TEXT NOT NULL,
	source_page_id BIGINT,
	source_url     TEXT NOT NULL DEFAULT '',
	authoritative  BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extracted_team_members (
	id             BIGSERIAL PRIMARY KEY,
	lead_id        BIGINT NOT NULL REFERENCES leads(id),
	scrape_run_id  TEXT NOT NULL,
	name           TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	first_only     BOOLEAN NOT NULL DEFAULT false,
	source_page_id BIGINT,
	source_url     TEXT NOT NULL DEFAULT '',
	authoritative  BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extracted_acquisition_signals (
	id             BIGSERIAL PRIMARY KEY,
	lead_id        BIGINT NOT NULL REFERENCES leads(id),
	scrape_run_id  TEXT NOT NULL,
	signal_text    TEXT NOT NULL,
	signal_date    TEXT NOT NULL DEFAULT '',
	source_page_id BIGINT,
	source_url     TEXT NOT NULL DEFAULT '',
	authoritative  BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extracted_snippets (
	id             BIGSERIAL PRIMARY KEY,
	lead_id        BIGINT NOT NULL REFERENCES leads(id),
	scrape_run_id  TEXT NOT NULL,
	category       TEXT NOT NULL,
	snippet_text   TEXT NOT NULL,
	source_page_id BIGINT,
	source_url     TEXT NOT NULL DEFAULT '',
	authoritative  BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_extracted_emails_lead ON extracted_emails(lead_id);
CREATE INDEX IF NOT EXISTS idx_extracted_phones_lead ON extracted_phones(lead_id);
CREATE INDEX IF NOT EXISTS idx_extracted_social_lead ON extracted_social_profiles(lead_id);
CREATE INDEX IF NOT EXISTS idx_extracted_team_lead ON extracted_team_members(lead_id);
CREATE INDEX IF NOT EXISTS idx_extracted_acq_lead ON extracted_acquisition_signals(lead_id);
CREATE INDEX IF NOT EXISTS idx_extracted_snippets_lead ON extracted_snippets(lead_id);

CREATE TABLE IF NOT EXISTS extraction_results (
	id            BIGSERIAL PRIMARY KEY,
	lead_id       BIGINT NOT NULL REFERENCES leads(id),
	scrape_run_id TEXT NOT NULL,
	data          JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_extraction_results_lead ON extraction_results(lead_id, created_at DESC);

CREATE TABLE IF NOT EXISTS market_stats_by_type (
	business_type TEXT PRIMARY KEY,
	cohort_size   INTEGER NOT NULL,
	p25           DOUBLE PRECISION NOT NULL,
	p50           DOUBLE PRECISION NOT NULL,
	p75           DOUBLE PRECISION NOT NULL,
	p90           DOUBLE PRECISION NOT NULL,
	p95           DOUBLE PRECISION NOT NULL,
	p99           DOUBLE PRECISION NOT NULL,
	p999          DOUBLE PRECISION NOT NULL,
	median_rating DOUBLE PRECISION NOT NULL,
	refreshed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS market_stats_by_city (
	city          TEXT NOT NULL,
	state         TEXT NOT NULL,
	cohort_size   INTEGER NOT NULL,
	p25           DOUBLE PRECISION NOT NULL,
	p50           DOUBLE PRECISION NOT NULL,
	p75           DOUBLE PRECISION NOT NULL,
	p90           DOUBLE PRECISION NOT NULL,
	p95           DOUBLE PRECISION NOT NULL,
	p99           DOUBLE PRECISION NOT NULL,
	p999          DOUBLE PRECISION NOT NULL,
	median_rating DOUBLE PRECISION NOT NULL,
	refreshed_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (city, state)
);

CREATE TABLE IF NOT EXISTS market_stats_by_state (
	state         TEXT PRIMARY KEY,
	cohort_size   INTEGER NOT NULL,
	p25           DOUBLE PRECISION NOT NULL,
	p50           DOUBLE PRECISION NOT NULL,
	p75           DOUBLE PRECISION NOT NULL,
	p90           DOUBLE PRECISION NOT NULL,
	p95           DOUBLE PRECISION NOT NULL,
	p99           DOUBLE PRECISION NOT NULL,
	p999          DOUBLE PRECISION NOT NULL,
	median_rating DOUBLE PRECISION NOT NULL,
	refreshed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, name, description string) (*model.Campaign, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		id, name, description, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert campaign %s", name)
	}

	return &model.Campaign{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   now,
	}, nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get campaign %s", id)
	}
	return &c, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at FROM campaigns ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list campaigns")
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "postgres: list campaigns iterate")
}

func (s *PostgresStore) CreateCampaignRun(ctx context.Context, campaignID string) (*model.CampaignRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO campaign_runs (id, campaign_id, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, campaignID, string(model.RunStatusQueued), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert campaign run for %s", campaignID)
	}

	return &model.CampaignRun{
		ID:         id,
		CampaignID: campaignID,
		Status:     model.RunStatusQueued,
		StartedAt:  now,
	}, nil
}

func (s *PostgresStore) GetCampaignRun(ctx context.Context, runID string) (*model.CampaignRun, error) {
	var r model.CampaignRun
	err := s.pool.QueryRow(ctx,
		`SELECT id, campaign_id, status, queries_executed, leads_found, duplicates_skipped,
		        errors, COALESCE(error_message, ''), started_at, completed_at
		 FROM campaign_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.CampaignID, &r.Status, &r.QueriesExecuted, &r.LeadsFound,
		&r.DuplicatesSkipped, &r.Errors, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get campaign run %s", runID)
	}
	return &r, nil
}

func (s *PostgresStore) ListCampaignRuns(ctx context.Context, filter RunFilter) ([]model.CampaignRun, error) {
	query := `SELECT id, campaign_id, status, queries_executed, leads_found, duplicates_skipped,
	                 errors, COALESCE(error_message, ''), started_at, completed_at
	          FROM campaign_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.CampaignID != "" {
		query += fmt.Sprintf(` AND campaign_id = $%d`, argIdx)
		args = append(args, filter.CampaignID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list campaign runs")
	}
	defer rows.Close()

	var runs []model.CampaignRun
	for rows.Next() {
		var r model.CampaignRun
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.Status, &r.QueriesExecuted, &r.LeadsFound,
			&r.DuplicatesSkipped, &r.Errors, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list campaign runs iterate")
}

func (s *PostgresStore) UpdateCampaignRunStatus(ctx context.Context, runID string, status model.RunStatus, errorMessage string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaign_runs SET status = $1, error_message = NULLIF($2, '') WHERE id = $3`,
		string(status), errorMessage, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update campaign run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("campaign run not found: %s", runID)
	}
	return nil
}

// UpdateCampaignRunCounters persists the in-flight run counters so progress
// is visible while the run is still executing.
func (s *PostgresStore) UpdateCampaignRunCounters(ctx context.Context, run *model.CampaignRun) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaign_runs
		 SET queries_executed = $1, leads_found = $2, duplicates_skipped = $3, errors = $4
		 WHERE id = $5`,
		run.QueriesExecuted, run.LeadsFound, run.DuplicatesSkipped, run.Errors, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update campaign run counters %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("campaign run not found: %s", run.ID)
	}
	return nil
}

// FinishCampaignRun writes the run counters and its terminal status in a
// single statement so consumers never observe a completed run with stale
// counters.
func (s *PostgresStore) FinishCampaignRun(ctx context.Context, run *model.CampaignRun) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE campaign_runs
		 SET status = $1, queries_executed = $2, leads_found = $3, duplicates_skipped = $4,
		     errors = $5, error_message = NULLIF($6, ''), completed_at = $7
		 WHERE id = $8`,
		string(run.Status), run.QueriesExecuted, run.LeadsFound, run.DuplicatesSkipped,
		run.Errors, run.ErrorMessage, now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish campaign run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("campaign run not found: %s", run.ID)
	}
	run.CompletedAt = &now
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *model.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = model.RunStatusQueued
	}
	now := time.Now().UTC()
	job.CreatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, campaign_id, campaign_run_id, search_list_url,
		                   skip_cached_searches, max_results_per_search, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.CampaignID, job.CampaignRunID, job.SearchListURL,
		job.SkipCachedSearches, job.MaxResultsPerQuery, string(job.Status), now,
	)
	return eris.Wrapf(err, "postgres: insert job %s", job.ID)
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var j model.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, campaign_id, campaign_run_id, search_list_url, skip_cached_searches,
		        max_results_per_search, status, COALESCE(error_message, ''), created_at
		 FROM jobs WHERE id = $1`,
		jobID,
	).Scan(&j.ID, &j.CampaignID, &j.CampaignRunID, &j.SearchListURL, &j.SkipCachedSearches,
		&j.MaxResultsPerQuery, &j.Status, &j.ErrorMessage, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	return &j, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.RunStatus, errorMessage string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, error_message = NULLIF($2, '') WHERE id = $3`,
		string(status), errorMessage, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", jobID)
	}
	return nil
}

// RecentSearchExists reports whether an identical (text, type) search was
// executed within the window. Used for the cache-skip check before any
// provider call.
func (s *PostgresStore) RecentSearchExists(ctx context.Context, textQuery, includedType string, window time.Duration) (bool, error) {
	cutoff := time.Now().UTC().Add(-window)
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM search_queries
		 WHERE text_query = $1 AND included_type = $2 AND executed_at > $3)`,
		textQuery, includedType, cutoff,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: recent search exists")
	}
	return exists, nil
}

func (s *PostgresStore) CreateSearchQuery(ctx context.Context, q *model.SearchQuery) error {
	now := time.Now().UTC()
	q.ExecutedAt = now
	err := s.pool.QueryRow(ctx,
		`INSERT INTO search_queries (campaign_id, campaign_run_id, text_query, included_type, executed_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		q.CampaignID, q.CampaignRunID, q.TextQuery, q.IncludedType, now,
	).Scan(&q.ID)
	return eris.Wrapf(err, "postgres: insert search query %q", q.TextQuery)
}

func (s *PostgresStore) SetSearchQueryResultCount(ctx context.Context, id int64, count int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE search_queries SET result_count = $1 WHERE id = $2`,
		count, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set search query result count %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("search query not found: %d", id)
	}
	return nil
}
