package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
)

func setupItemsRepo(t *testing.T) (sqlmock.Sqlmock, *ItemsRepo, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewItemsRepo(db, zap.NewNop())
	return mock, repo, func() { db.Close() }
}

func TestItemsInsertTargetsSchemaQualifiedTable(t *testing.T) {
	mock, repo, done := setupItemsRepo(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO "H2567"."iolist_20260125"`).
		WithArgs(`{"MQTT Tag":"T001"}`, "T001", "", "", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), now, now))

	item := &domain.IOListItem{RawData: `{"MQTT Tag":"T001"}`, IONo: "T001"}
	require.NoError(t, repo.Insert(context.Background(), "H2567", "20260125", item))
	assert.Equal(t, int64(5), item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemsListScansNullDerivedFields(t *testing.T) {
	mock, repo, done := setupItemsRepo(t)
	defer done()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "raw_data", "io_no", "io_name", "io_type", "description", "remarks", "created_at", "updated_at",
	}).AddRow(int64(1), `{"Resource":"PLC1"}`, nil, nil, nil, nil, nil, now, now)
	mock.ExpectQuery(`SELECT .+ FROM "H2567"."iolist_20260125" ORDER BY id`).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), "H2567", "20260125")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "", items[0].IONo)
	assert.Equal(t, `{"Resource":"PLC1"}`, items[0].RawData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemsGetNotFound(t *testing.T) {
	mock, repo, done := setupItemsRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM "H2567"."iolist_20260125" WHERE id`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "H2567", "20260125", 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemsUpdateReportsMiss(t *testing.T) {
	mock, repo, done := setupItemsRepo(t)
	defer done()

	mock.ExpectExec(`UPDATE "H2567"."iolist_20260125"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	item := &domain.IOListItem{ID: 9, RawData: "{}"}
	hit, err := repo.Update(context.Background(), "H2567", "20260125", item)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestItemsCount(t *testing.T) {
	mock, repo, done := setupItemsRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "H2567"."iolist_20260125"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), "H2567", "20260125")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
