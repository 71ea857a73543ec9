package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-pipeline/internal/db"
	"github.com/sells-group/leadgen-pipeline/internal/model"
)

func (s *PostgresStore) CreateScrapeRun(ctx context.Context, leadID int64) (*model.ScrapeRun, error) {
	now := time.Now().UTC()
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scrape_runs (lead_id, status, started_at) VALUES ($1, $2, $3) RETURNING id`,
		leadID, string(model.RunStatusRunning), now,
	).Scan(&id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert scrape run for lead %d", leadID)
	}

	return &model.ScrapeRun{
		ID:        id,
		LeadID:    leadID,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteScrapeRun(ctx context.Context, runID string, status model.RunStatus, pagesFound int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scrape_runs SET status = $1, pages_found = $2, completed_at = now() WHERE id = $3`,
		string(status), pagesFound, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete scrape run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scrape run not found: %s", runID)
	}
	return nil
}

// InsertScrapedPages bulk-loads pages. Pages already stored for the same
// run and URL are left untouched, so a retried crawl load is idempotent.
func (s *PostgresStore) InsertScrapedPages(ctx context.Context, pages []model.ScrapedPage) error {
	if len(pages) == 0 {
		return nil
	}

	rows := make([][]any, len(pages))
	for i, p := range pages {
		fetchedAt := p.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now().UTC()
		}
		rows[i] = []any{p.ScrapeRunID, p.URL, p.Depth, p.StatusCode, p.HTML, p.Text, fetchedAt}
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "scraped_pages",
		Columns:      []string{"scrape_run_id", "url", "depth", "status_code", "html", "page_text", "fetched_at"},
		ConflictKeys: []string{"scrape_run_id", "url"},
		DoNothing:    true,
	}, rows)
	return eris.Wrap(err, "postgres: insert scraped pages")
}

func (s *PostgresStore) ListScrapedPages(ctx context.Context, scrapeRunID string) ([]model.ScrapedPage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scrape_run_id, url, depth, status_code, html, page_text, fetched_at
		 FROM scraped_pages WHERE scrape_run_id = $1 ORDER BY id`,
		scrapeRunID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list scraped pages %s", scrapeRunID)
	}
	defer rows.Close()

	var pages []model.ScrapedPage
	for rows.Next() {
		var p model.ScrapedPage
		if err := rows.Scan(&p.ID, &p.ScrapeRunID, &p.URL, &p.Depth, &p.StatusCode,
			&p.HTML, &p.Text, &p.FetchedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scraped page")
		}
		pages = append(pages, p)
	}
	return pages, eris.Wrap(rows.Err(), "postgres: list scraped pages iterate")
}

// AppendExtractedData persists one extraction pass: per-category rows with
// provenance plus a JSONB snapshot of the aggregate, all in one
// transaction. Rows are append-only audit history and never overwritten.
func (s *PostgresStore) AppendExtractedData(ctx context.Context, data *model.ExtractedData) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin extracted append")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	provCols := []string{"source_page_id", "source_url", "authoritative", "created_at"}
	prov := func(p model.Provenance) []any {
		return []any{nullablePageID(p.SourcePageID), p.SourceURL, p.Authoritative, now}
	}

	var rows [][]any
	for _, e := range data.Emails {
		rows = append(rows, append([]any{data.LeadID, data.ScrapeRunID, e.Value}, prov(e.Provenance)...))
	}
	if err := copyCategory(ctx, tx, "extracted_emails",
		append([]string{"lead_id", "scrape_run_id", "value"}, provCols...), rows); err != nil {
		return err
	}

	rows = nil
	for _, p := range data.Phones {
		rows = append(rows, append([]any{data.LeadID, data.ScrapeRunID, p.Value}, prov(p.Provenance)...))
	}
	if err := copyCategory(ctx, tx, "extracted_phones",
		append([]string{"lead_id", "scrape_run_id", "value"}, provCols...), rows); err != nil {
		return err
	}

	rows = nil
	for _, sp := range data.SocialProfiles {
		rows = append(rows, append([]any{data.LeadID, data.ScrapeRunID, sp.Network, sp.URL}, prov(sp.Provenance)...))
	}
	if err := copyCategory(ctx, tx, "extracted_social_profiles",
		append([]string{"lead_id", "scrape_run_id", "network", "url"}, provCols...), rows); err != nil {
		return err
	}

	rows = nil
	for _, m := range data.TeamMembers {
		rows = append(rows, append([]any{data.LeadID, data.ScrapeRunID, m.Name, m.Title, m.FirstOnly}, prov(m.Provenance)...))
	}
	if err := copyCategory(ctx, tx, "extracted_team_members",
		append([]string{"lead_id", "scrape_run_id", "name", "title", "first_only"}, provCols...), rows); err != nil {
		return err
	}

	rows = nil
	for _, a := range data.AcquisitionSignals {
		rows = append(rows, append([]any{data.LeadID, data.ScrapeRunID, a.Text, a.Date}, prov(a.Provenance)...))
	}
	if err := copyCategory(ctx, tx, "extracted_acquisition_signals",
		append([]string{"lead_id", "scrape_run_id", "signal_text", "signal_date"}, provCols...), rows); err != nil {
		return err
	}

	rows = nil
	for _, sn := range data.Snippets {
		rows = append(rows, append([]any{data.LeadID, data.ScrapeRunID, sn.Category, sn.Text}, prov(sn.Provenance)...))
	}
	if err := copyCategory(ctx, tx, "extracted_snippets",
		append([]string{"lead_id", "scrape_run_id", "category", "snippet_text"}, provCols...), rows); err != nil {
		return err
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal extracted data")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO extraction_results (lead_id, scrape_run_id, data, created_at) VALUES ($1, $2, $3, $4)`,
		data.LeadID, data.ScrapeRunID, dataJSON, now,
	); err != nil {
		return eris.Wrap(err, "postgres: insert extraction result")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit extracted append")
}

func copyCategory(ctx context.Context, c db.Copier, table string, columns []string, rows [][]any) error {
	_, err := db.CopyFrom(ctx, c, table, columns, rows)
	return eris.Wrapf(err, "postgres: load %s", table)
}

// nullablePageID maps the zero SourcePageID (page row unknown) to SQL NULL.
func nullablePageID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// GetLatestExtractedData returns the most recent extraction snapshot for
// the lead, or nil when the lead was never extracted.
func (s *PostgresStore) GetLatestExtractedData(ctx context.Context, leadID int64) (*model.ExtractedData, error) {
	var dataJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM extraction_results WHERE lead_id = $1 ORDER BY created_at DESC LIMIT 1`,
		leadID,
	).Scan(&dataJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get latest extracted data %d", leadID)
	}

	var data model.ExtractedData
	if err := json.Unmarshal(dataJSON, &data); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal extracted data")
	}
	return &data, nil
}
