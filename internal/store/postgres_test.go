package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

var snapshotCols = []string{"id", "source", "record_count", "created_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), "export.csv", 3, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"card_records"}, recordColumns).WillReturnResult(3)
	mock.ExpectCommit()

	snap, err := s.SaveSnapshot(context.Background(), "export.csv", sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.RecordCount)
	assert.NotEmpty(t, snap.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_CopyError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), "export.csv", 3, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"card_records"}, recordColumns).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err := s.SaveSnapshot(context.Background(), "export.csv", sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: copy records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, source, record_count, created_at FROM snapshots WHERE id = \$1`).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow("snap-1", "export.csv", 3, created))

	snap, err := s.GetSnapshot(context.Background(), "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "export.csv", snap.Source)
	assert.Equal(t, created, snap.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM snapshots WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`ORDER BY seq DESC LIMIT 1`).
		WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow("snap-2", "b.csv", 1, time.Now()))

	snap, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snap-2", snap.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`ORDER BY seq DESC LIMIT \$1`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows(snapshotCols).
			AddRow("snap-2", "b.csv", 1, now).
			AddRow("snap-1", "a.csv", 3, now))

	list, err := s.ListSnapshots(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "snap-2", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2024, 11, 1, 9, 30, 0, 0, time.UTC)
	stage := "DT1052_16:UC_Z24IF7"

	mock.ExpectQuery(`FROM snapshots WHERE id = \$1`).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow("snap-1", "a.csv", 2, created))
	mock.ExpectQuery(`FROM card_records WHERE snapshot_id = \$1 ORDER BY position`).
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"record_id", "family_id", "requester_id", "pipeline_id",
			"stage_code", "created_at", "assignee", "desk",
		}).
			AddRow("1", "FAM-1", "R1", "16", &stage, &created, "ana", "Mesa 1").
			AddRow("3", "FAM-2", "R3", "34", (*string)(nil), (*time.Time)(nil), "", ""))

	got, err := s.LoadRecords(context.Background(), "snap-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].StageCode)
	assert.Equal(t, stage, *got[0].StageCode)
	assert.Equal(t, created, got[0].CreatedAt)
	assert.Nil(t, got[1].StageCode)
	assert.True(t, got[1].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadRecords_UnknownSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM snapshots WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.LoadRecords(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
