package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpdate_EmptyRows(t *testing.T) {
	n, err := BulkUpdate(nil, nil, UpdateConfig{
		Table:   "leads",
		KeyCols: []string{"id"},
		SetCols: []string{"composite_score"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpdate_NoKeyCols(t *testing.T) {
	_, err := BulkUpdate(nil, nil, UpdateConfig{
		Table:   "leads",
		SetCols: []string{"composite_score"},
	}, [][]any{{1, 50.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no key columns specified")
}

func TestBulkUpdate_NoSetCols(t *testing.T) {
	_, err := BulkUpdate(nil, nil, UpdateConfig{
		Table:   "leads",
		KeyCols: []string{"id"},
	}, [][]any{{1, 50.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no set columns specified")
}

func TestBulkUpdate_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"id", "composite_score"}
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_update_leads" ON COMMIT DROP AS SELECT "id", "composite_score" FROM "leads" WITH NO DATA`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_update_leads"}, cols).WillReturnResult(2)
	mock.ExpectExec(`UPDATE "leads" AS t SET "composite_score" = s\."composite_score" FROM "_tmp_update_leads" AS s WHERE t\."id" = s\."id"`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	n, err := BulkUpdate(context.Background(), mock, UpdateConfig{
		Table:   "leads",
		KeyCols: []string{"id"},
		SetCols: []string{"composite_score"},
	}, [][]any{{int64(1), 70.0}, {int64(2), 55.0}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
