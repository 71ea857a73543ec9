package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-pipeline/internal/db"
	"github.com/sells-group/leadgen-pipeline/internal/model"
)

const leadColumns = `id, place_id, search_query_id, campaign_run_id, franchise_id,
	name, normalized_name, business_type, street, city, state, zip_code, lat, lng,
	phone, website, rating, review_count, price_level,
	founded_year, years_in_business, employee_count,
	acquisition_flag, acquisition_summary, contact_page_url,
	quality_score, exit_score, ownership_type, score_rationale, is_excluded, exclude_reason,
	quality_pct_by_type, quality_pct_by_city, exit_pct_by_type, exit_pct_by_city, composite_score,
	created_at, updated_at`

func scanLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var searchQueryID *int64
	var campaignRunID *string
	err := row.Scan(&l.ID, &l.PlaceID, &searchQueryID, &campaignRunID, &l.FranchiseID,
		&l.Name, &l.NormalizedName, &l.BusinessType, &l.Street, &l.City, &l.State,
		&l.ZipCode, &l.Lat, &l.Lng, &l.Phone, &l.Website, &l.Rating, &l.ReviewCount,
		&l.PriceLevel, &l.FoundedYear, &l.YearsInBusiness, &l.EmployeeCount,
		&l.AcquisitionFlag, &l.AcquisitionSummary, &l.ContactPageURL,
		&l.QualityScore, &l.ExitScore, &l.OwnershipType, &l.ScoreRationale,
		&l.IsExcluded, &l.ExcludeReason,
		&l.QualityPctByType, &l.QualityPctByCity, &l.ExitPctByType, &l.ExitPctByCity,
		&l.CompositeScore, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if searchQueryID != nil {
		l.SearchQueryID = *searchQueryID
	}
	if campaignRunID != nil {
		l.CampaignRunID = *campaignRunID
	}
	return &l, nil
}

// InsertLead inserts the lead, skipping silently when the place ID already
// exists. Returns true when a new row was written. First writer wins: an
// existing lead is never mutated by ingestion.
func (s *PostgresStore) InsertLead(ctx context.Context, lead *model.Lead) (bool, error) {
	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO leads (place_id, search_query_id, campaign_run_id, name, normalized_name,
		                    business_type, street, city, state, zip_code, lat, lng,
		                    phone, website, rating, review_count, price_level, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
		 ON CONFLICT (place_id) DO NOTHING
		 RETURNING id`,
		lead.PlaceID, lead.SearchQueryID, lead.CampaignRunID, lead.Name, lead.NormalizedName,
		lead.BusinessType, lead.Street, lead.City, lead.State, lead.ZipCode, lead.Lat, lead.Lng,
		lead.Phone, lead.Website, lead.Rating, lead.ReviewCount, lead.PriceLevel, now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict: the place already exists.
			return false, nil
		}
		return false, eris.Wrapf(err, "postgres: insert lead %s", lead.PlaceID)
	}
	lead.ID = id
	lead.CreatedAt = now
	lead.UpdatedAt = now
	return true, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id int64) (*model.Lead, error) {
	lead, err := scanLead(s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get lead %d", id)
	}
	return lead, nil
}

func (s *PostgresStore) GetLeadByPlaceID(ctx context.Context, placeID string) (*model.Lead, error) {
	lead, err := scanLead(s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE place_id = $1`, placeID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get lead by place %s", placeID)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.CampaignRunID != "" {
		query += fmt.Sprintf(` AND campaign_run_id = $%d`, argIdx)
		args = append(args, filter.CampaignRunID)
		argIdx++
	}
	if filter.BusinessType != "" {
		query += fmt.Sprintf(` AND business_type = $%d`, argIdx)
		args = append(args, filter.BusinessType)
		argIdx++
	}
	if filter.City != "" {
		query += fmt.Sprintf(` AND city = $%d`, argIdx)
		args = append(args, filter.City)
		argIdx++
	}
	if filter.State != "" {
		query += fmt.Sprintf(` AND state = $%d`, argIdx)
		args = append(args, filter.State)
		argIdx++
	}
	if filter.ScoredOnly {
		query += ` AND quality_score IS NOT NULL AND exit_score IS NOT NULL`
	}
	if filter.UnscoredOnly {
		query += ` AND quality_score IS NULL AND exit_score IS NULL AND is_excluded = false`
	}
	query += ` ORDER BY created_at DESC`

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
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

// UpdateLeadExtraction writes extraction-derived fields onto the lead row.
func (s *PostgresStore) UpdateLeadExtraction(ctx context.Context, data *model.ExtractedData) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads
		 SET founded_year = COALESCE($1, founded_year),
		     years_in_business = COALESCE($2, years_in_business),
		     employee_count = COALESCE($3, employee_count),
		     acquisition_flag = $4,
		     acquisition_summary = $5,
		     contact_page_url = CASE WHEN $6 <> '' THEN $6 ELSE contact_page_url END,
		     updated_at = now()
		 WHERE id = $7`,
		data.FoundedYear, data.YearsInBusiness, data.EmployeeCount,
		data.AcquisitionFlag, data.AcquisitionSummary, data.ContactPageURL, data.LeadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead extraction %d", data.LeadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %d", data.LeadID)
	}
	return nil
}

// UpdateLeadScores overwrites the scoring fields. Re-scoring a lead is
// idempotent: the latest result wins.
func (s *PostgresStore) UpdateLeadScores(ctx context.Context, lead *model.Lead) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads
		 SET quality_score = $1, exit_score = $2, ownership_type = $3, score_rationale = $4,
		     is_excluded = $5, exclude_reason = $6, updated_at = now()
		 WHERE id = $7`,
		lead.QualityScore, lead.ExitScore, lead.OwnershipType, lead.ScoreRationale,
		lead.IsExcluded, lead.ExcludeReason, lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead scores %d", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %d", lead.ID)
	}
	return nil
}

// UpdateLeadPercentiles writes computed percentiles and composite scores
// for a batch of leads through one staged temp-table update.
func (s *PostgresStore) UpdateLeadPercentiles(ctx context.Context, sets []model.PercentileSet) error {
	if len(sets) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(sets))
	for i, p := range sets {
		rows[i] = []any{p.LeadID, p.QualityPctByType, p.QualityPctByCity,
			p.ExitPctByType, p.ExitPctByCity, p.CompositeScore, now}
	}

	_, err := db.BulkUpdate(ctx, s.pool, db.UpdateConfig{
		Table:   "leads",
		KeyCols: []string{"id"},
		SetCols: []string{"quality_pct_by_type", "quality_pct_by_city",
			"exit_pct_by_type", "exit_pct_by_city", "composite_score", "updated_at"},
	}, rows)
	return eris.Wrap(err, "postgres: update lead percentiles")
}

// ListQualifiedLeads returns leads eligible for percentile ranking: both
// scores present, neither the insufficient-evidence sentinel, not excluded.
func (s *PostgresStore) ListQualifiedLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE quality_score IS NOT NULL AND exit_score IS NOT NULL
		   AND quality_score <> $1 AND exit_score <> $1
		   AND is_excluded = false`,
		model.ScoreInsufficientEvidence,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list qualified leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan qualified lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list qualified leads iterate")
}

func (s *PostgresStore) GetFranchise(ctx context.Context, normalizedName string) (*model.Franchise, error) {
	var f model.Franchise
	err := s.pool.QueryRow(ctx,
		`SELECT id, normalized_name, display_name, lead_count, created_at
		 FROM franchises WHERE normalized_name = $1`,
		normalizedName,
	).Scan(&f.ID, &f.NormalizedName, &f.DisplayName, &f.LeadCount, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get franchise %s", normalizedName)
	}
	return &f, nil
}

// CreateFranchise inserts a franchise row, returning the existing one on
// a name collision so concurrent ingesters converge on a single group.
func (s *PostgresStore) CreateFranchise(ctx context.Context, normalizedName, displayName string) (*model.Franchise, error) {
	now := time.Now().UTC()
	var f model.Franchise
	err := s.pool.QueryRow(ctx,
		`INSERT INTO franchises (normalized_name, display_name, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (normalized_name) DO UPDATE SET display_name = franchises.display_name
		 RETURNING id, normalized_name, display_name, lead_count, created_at`,
		normalizedName, displayName, now,
	).Scan(&f.ID, &f.NormalizedName, &f.DisplayName, &f.LeadCount, &f.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: create franchise %s", normalizedName)
	}
	return &f, nil
}

func (s *PostgresStore) CountLeadsByName(ctx context.Context, normalizedName string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads WHERE normalized_name = $1`,
		normalizedName,
	).Scan(&count)
	return count, eris.Wrapf(err, "postgres: count leads by name %s", normalizedName)
}

// LinkLeadsToFranchise backfills franchise_id on every lead sharing the
// normalized name and refreshes the franchise lead count. Returns the
// number of leads linked.
func (s *PostgresStore) LinkLeadsToFranchise(ctx context.Context, franchiseID int64, normalizedName string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin franchise link")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE leads SET franchise_id = $1, updated_at = now() WHERE normalized_name = $2`,
		franchiseID, normalizedName,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: link leads to franchise %d", franchiseID)
	}

	_, err = tx.Exec(ctx,
		`UPDATE franchises SET lead_count = (SELECT COUNT(*) FROM leads WHERE franchise_id = $1) WHERE id = $1`,
		franchiseID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: refresh franchise lead count %d", franchiseID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit franchise link")
	}
	return int(tag.RowsAffected()), nil
}
