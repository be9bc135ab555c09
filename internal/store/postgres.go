package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/emission-rollup/internal/db"
	"github.com/sells-group/emission-rollup/internal/model"
)

// PostgresStore implements Store using a pgx pool. Records are bulk loaded
// with COPY.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	seq          BIGSERIAL PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	source       TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS card_records (
	snapshot_id  TEXT NOT NULL REFERENCES snapshots(id),
	position     INTEGER NOT NULL,
	record_id    TEXT NOT NULL,
	family_id    TEXT NOT NULL,
	requester_id TEXT NOT NULL,
	pipeline_id  TEXT NOT NULL,
	stage_code   TEXT,
	created_at   TIMESTAMPTZ,
	assignee     TEXT NOT NULL,
	desk         TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_card_records_family ON card_records(snapshot_id, family_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, source string, records []model.Record) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		ID:          uuid.New().String(),
		Source:      source,
		RecordCount: len(records),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin snapshot")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshots (id, source, record_count, created_at) VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.Source, snap.RecordCount, snap.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert snapshot")
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = recordRow(snap.ID, i, r)
	}
	if _, err := db.CopyFrom(ctx, tx, "card_records", recordColumns, rows); err != nil {
		return nil, eris.Wrap(err, "postgres: copy records")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit snapshot")
	}
	return snap, nil
}

const postgresSnapshotCols = `id, source, record_count, created_at`

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresSnapshotCols+` FROM snapshots WHERE id = $1`, id)
	return scanPgSnapshot(row, "postgres: get snapshot")
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresSnapshotCols+` FROM snapshots ORDER BY seq DESC LIMIT 1`)
	return scanPgSnapshot(row, "postgres: latest snapshot")
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postgresSnapshotCols+` FROM snapshots ORDER BY seq DESC LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		snap, err := scanPgSnapshot(rows, "postgres: scan snapshot")
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}

func (s *PostgresStore) LoadRecords(ctx context.Context, snapshotID string) ([]model.Record, error) {
	if _, err := s.GetSnapshot(ctx, snapshotID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT record_id, family_id, requester_id, pipeline_id, stage_code, created_at, assignee, desk
		 FROM card_records WHERE snapshot_id = $1 ORDER BY position`, snapshotID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load records %s", snapshotID)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var (
			r       model.Record
			created *time.Time
		)
		if err := rows.Scan(&r.RecordID, &r.FamilyID, &r.RequesterID, &r.PipelineID,
			&r.StageCode, &created, &r.Assignee, &r.Desk); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		if created != nil {
			r.CreatedAt = created.UTC()
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func scanPgSnapshot(row pgx.Row, op string) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := row.Scan(&snap.ID, &snap.Source, &snap.RecordCount, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}
