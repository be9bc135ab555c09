package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/emission-rollup/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	source       TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS card_records (
	snapshot_id  TEXT NOT NULL REFERENCES snapshots(id),
	position     INTEGER NOT NULL,
	record_id    TEXT NOT NULL,
	family_id    TEXT NOT NULL,
	requester_id TEXT NOT NULL,
	pipeline_id  TEXT NOT NULL,
	stage_code   TEXT,
	created_at   DATETIME,
	assignee     TEXT NOT NULL,
	desk         TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_card_records_family ON card_records(snapshot_id, family_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, source string, records []model.Record) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		ID:          uuid.New().String(),
		Source:      source,
		RecordCount: len(records),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin snapshot")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, record_count, created_at) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.Source, snap.RecordCount, snap.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO card_records (`+strings.Join(recordColumns, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare record insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, recordRow(snap.ID, i, r)...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert record %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit snapshot")
	}
	return snap, nil
}

const sqliteSnapshotCols = `id, source, record_count, created_at`

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSnapshotCols+` FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row, "sqlite: get snapshot")
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteSnapshotCols+` FROM snapshots ORDER BY seq DESC LIMIT 1`)
	return scanSnapshot(row, "sqlite: latest snapshot")
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteSnapshotCols+` FROM snapshots ORDER BY seq DESC LIMIT ?`, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows, "sqlite: scan snapshot")
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}

func (s *SQLiteStore) LoadRecords(ctx context.Context, snapshotID string) ([]model.Record, error) {
	if _, err := s.GetSnapshot(ctx, snapshotID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, family_id, requester_id, pipeline_id, stage_code, created_at, assignee, desk
		 FROM card_records WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load records %s", snapshotID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Record
	for rows.Next() {
		var (
			r       model.Record
			stage   sql.NullString
			created sql.NullTime
		)
		if err := rows.Scan(&r.RecordID, &r.FamilyID, &r.RequesterID, &r.PipelineID,
			&stage, &created, &r.Assignee, &r.Desk); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if stage.Valid {
			r.StageCode = model.Stage(stage.String)
		}
		if created.Valid {
			r.CreatedAt = created.Time.UTC()
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable, op string) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := row.Scan(&snap.ID, &snap.Source, &snap.RecordCount, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}
