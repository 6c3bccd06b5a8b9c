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

func setupDevicesRepo(t *testing.T) (sqlmock.Sqlmock, *DevicesRepo, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewDevicesRepo(db, zap.NewNop())
	return mock, repo, func() { db.Close() }
}

func TestDevicesExistsByName(t *testing.T) {
	mock, repo, done := setupDevicesRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT EXISTS .+ FROM "H2567".device WHERE device_name`).
		WithArgs("PLC1", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByName(context.Background(), "H2567", "PLC1", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDevicesInsert(t *testing.T) {
	mock, repo, done := setupDevicesRepo(t)
	defer done()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "device_name", "protocol", "created_at", "updated_at"}).
		AddRow(int64(3), "GPS1", "NMEA", now, now)
	mock.ExpectQuery(`INSERT INTO "H2567".device`).
		WithArgs("GPS1", "NMEA").
		WillReturnRows(rows)

	d, err := repo.Insert(context.Background(), "H2567", "GPS1", domain.ProtocolNMEA)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.ID)
	assert.Equal(t, domain.ProtocolNMEA, d.Protocol)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDevicesUpdateNothingToUpdate(t *testing.T) {
	_, repo, done := setupDevicesRepo(t)
	defer done()

	_, err := repo.Update(context.Background(), "H2567", 1, nil, nil)
	assert.True(t, domain.IsValidationError(err))
}

func TestDevicesUpdateNotFound(t *testing.T) {
	mock, repo, done := setupDevicesRepo(t)
	defer done()

	mock.ExpectQuery(`UPDATE "H2567".device SET device_name`).
		WithArgs("PLC2", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	name := "PLC2"
	_, err := repo.Update(context.Background(), "H2567", 1, &name, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDevicesDelete(t *testing.T) {
	mock, repo, done := setupDevicesRepo(t)
	defer done()

	mock.ExpectExec(`DELETE FROM "H2567".device WHERE id`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	hit, err := repo.Delete(context.Background(), "H2567", 3)
	require.NoError(t, err)
	assert.True(t, hit)
}
