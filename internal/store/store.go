// Package store persists imported card snapshots. Snapshots are immutable:
// every import creates a new one and family aggregates are recomputed from
// the stored records on each query.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/emission-rollup/internal/config"
	"github.com/sells-group/emission-rollup/internal/model"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = eris.New("store: snapshot not found")

// Store defines the persistence interface for card snapshots.
type Store interface {
	// Snapshots
	SaveSnapshot(ctx context.Context, source string, records []model.Record) (*model.Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error)

	// Records
	LoadRecords(ctx context.Context, snapshotID string) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// SnapshotGetter is the lookup half of Store.
type SnapshotGetter interface {
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
}

// Resolve returns the snapshot with the given id, or the latest one when id
// is empty.
func Resolve(ctx context.Context, s SnapshotGetter, id string) (*model.Snapshot, error) {
	if id == "" {
		return s.LatestSnapshot(ctx)
	}
	return s.GetSnapshot(ctx, id)
}

const defaultListLimit = 20

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// recordRow flattens a record into insert arguments, in recordColumns order
// after snapshot_id and position.
func recordRow(snapshotID string, pos int, r model.Record) []any {
	var created any
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC()
	}
	var stage any
	if r.StageCode != nil {
		stage = *r.StageCode
	}
	return []any{
		snapshotID, pos, r.RecordID, r.FamilyID, r.RequesterID,
		r.PipelineID, stage, created, r.Assignee, r.Desk,
	}
}

var recordColumns = []string{
	"snapshot_id", "position", "record_id", "family_id", "requester_id",
	"pipeline_id", "stage_code", "created_at", "assignee", "desk",
}
