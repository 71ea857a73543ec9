package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpdateConfig defines the parameters for a bulk update operation.
type UpdateConfig struct {
	Table   string   // target table (e.g., "leads")
	KeyCols []string // columns identifying the row to update
	SetCols []string // columns written from the staged values
}

// BulkUpdate updates existing rows in bulk via a temp table:
// 1. Creates a temp table shaped like the key + set columns (no constraints)
// 2. COPY rows into it (each row is KeyCols values followed by SetCols values)
// 3. UPDATE target ... FROM temp joined on the key columns
//
// Rows whose keys match nothing in the target are silently ignored.
// Returns the number of rows actually updated.
func BulkUpdate(ctx context.Context, pool Pool, cfg UpdateConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	if len(cfg.KeyCols) == 0 {
		return 0, eris.New("db: update: no key columns specified")
	}
	if len(cfg.SetCols) == 0 {
		return 0, eris.New("db: update: no set columns specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: update: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tempTable := fmt.Sprintf("_tmp_update_%s", strings.ReplaceAll(cfg.Table, ".", "_"))
	columns := append(append([]string{}, cfg.KeyCols...), cfg.SetCols...)

	// SELECT ... WITH NO DATA keeps the column types but none of the
	// target's constraints, so partial-column staging is legal.
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s FROM %s WITH NO DATA",
		pgx.Identifier{tempTable}.Sanitize(),
		quoteAndJoin(columns),
		sanitizeTable(cfg.Table),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: update: create temp table for %s", cfg.Table)
	}

	if _, err := CopyFrom(ctx, tx, tempTable, columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: update: load temp table for %s", cfg.Table)
	}

	var setClauses []string
	for _, col := range cfg.SetCols {
		q := pgx.Identifier{col}.Sanitize()
		setClauses = append(setClauses, fmt.Sprintf("%s = s.%s", q, q))
	}
	var joinClauses []string
	for _, col := range cfg.KeyCols {
		q := pgx.Identifier{col}.Sanitize()
		joinClauses = append(joinClauses, fmt.Sprintf("t.%s = s.%s", q, q))
	}

	updateSQL := fmt.Sprintf(
		"UPDATE %s AS t SET %s FROM %s AS s WHERE %s",
		sanitizeTable(cfg.Table),
		strings.Join(setClauses, ", "),
		pgx.Identifier{tempTable}.Sanitize(),
		strings.Join(joinClauses, " AND "),
	)

	tag, err := tx.Exec(ctx, updateSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "db: update: UPDATE FROM temp for %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: update: commit tx")
	}

	return tag.RowsAffected(), nil
}
