package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// Each refresh statement recomputes one market-stats dimension from the
// leads table using percentile_cont over the cohort's review counts.
const refreshByTypeSQL = `
INSERT INTO market_stats_by_type
	(business_type, cohort_size, p25, p50, p75, p90, p95, p99, p999, median_rating, refreshed_at)
SELECT business_type,
	COUNT(*),
	percentile_cont(0.25)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.50)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.75)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.90)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.95)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.99)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.999) WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.50)  WITHIN GROUP (ORDER BY rating),
	now()
FROM leads
WHERE business_type <> ''
GROUP BY business_type
HAVING COUNT(*) >= $1`

const refreshByCitySQL = `
INSERT INTO market_stats_by_city
	(city, state, cohort_size, p25, p50, p75, p90, p95, p99, p999, median_rating, refreshed_at)
SELECT city, state,
	COUNT(*),
	percentile_cont(0.25)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.50)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.75)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.90)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.95)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.99)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.999) WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.50)  WITHIN GROUP (ORDER BY rating),
	now()
FROM leads
WHERE city <> '' AND state <> ''
GROUP BY city, state
HAVING COUNT(*) >= $1`

const refreshByStateSQL = `
INSERT INTO market_stats_by_state
	(state, cohort_size, p25, p50, p75, p90, p95, p99, p999, median_rating, refreshed_at)
SELECT state,
	COUNT(*),
	percentile_cont(0.25)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.50)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.75)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.90)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.95)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.99)  WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.999) WITHIN GROUP (ORDER BY review_count),
	percentile_cont(0.50)  WITHIN GROUP (ORDER BY rating),
	now()
FROM leads
WHERE state <> ''
GROUP BY state
HAVING COUNT(*) >= $1`

// RefreshMarketStats fully replaces all three stats dimensions inside one
// transaction. Readers keep seeing the previous snapshot until commit.
func (s *PostgresStore) RefreshMarketStats(ctx context.Context, minCohortSize int) error {
	if minCohortSize < 1 {
		minCohortSize = 1
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin stats refresh")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, table := range []string{"market_stats_by_type", "market_stats_by_city", "market_stats_by_state"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return eris.Wrapf(err, "postgres: clear %s", table)
		}
	}

	if _, err := tx.Exec(ctx, refreshByTypeSQL, minCohortSize); err != nil {
		return eris.Wrap(err, "postgres: refresh stats by type")
	}
	if _, err := tx.Exec(ctx, refreshByCitySQL, minCohortSize); err != nil {
		return eris.Wrap(err, "postgres: refresh stats by city")
	}
	if _, err := tx.Exec(ctx, refreshByStateSQL, minCohortSize); err != nil {
		return eris.Wrap(err, "postgres: refresh stats by state")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit stats refresh")
}

func scanStats(row pgx.Row, ms *model.MarketStats, keyCols ...*string) error {
	dest := make([]any, 0, 12)
	for _, k := range keyCols {
		dest = append(dest, k)
	}
	dest = append(dest,
		&ms.CohortSize,
		&ms.CutPoints.P25, &ms.CutPoints.P50, &ms.CutPoints.P75,
		&ms.CutPoints.P90, &ms.CutPoints.P95, &ms.CutPoints.P99, &ms.CutPoints.P999,
		&ms.MedianRating, &ms.RefreshedAt,
	)
	return row.Scan(dest...)
}

func (s *PostgresStore) GetMarketStatsByType(ctx context.Context, businessType string) (*model.MarketStats, error) {
	var ms model.MarketStats
	err := scanStats(s.pool.QueryRow(ctx,
		`SELECT business_type, cohort_size, p25, p50, p75, p90, p95, p99, p999, median_rating, refreshed_at
		 FROM market_stats_by_type WHERE business_type = $1`,
		businessType,
	), &ms, &ms.BusinessType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get stats by type %s", businessType)
	}
	return &ms, nil
}

func (s *PostgresStore) GetMarketStatsByCity(ctx context.Context, city, state string) (*model.MarketStats, error) {
	var ms model.MarketStats
	err := scanStats(s.pool.QueryRow(ctx,
		`SELECT city, state, cohort_size, p25, p50, p75, p90, p95, p99, p999, median_rating, refreshed_at
		 FROM market_stats_by_city WHERE city = $1 AND state = $2`,
		city, state,
	), &ms, &ms.City, &ms.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get stats by city %s, %s", city, state)
	}
	return &ms, nil
}

func (s *PostgresStore) GetMarketStatsByState(ctx context.Context, state string) (*model.MarketStats, error) {
	var ms model.MarketStats
	err := scanStats(s.pool.QueryRow(ctx,
		`SELECT state, cohort_size, p25, p50, p75, p90, p95, p99, p999, median_rating, refreshed_at
		 FROM market_stats_by_state WHERE state = $1`,
		state,
	), &ms, &ms.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get stats by state %s", state)
	}
	return &ms, nil
}
