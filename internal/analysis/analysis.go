// Package analysis loads a stored snapshot and runs the rollup engine over
// it. Both the CLI and the HTTP API go through here.
package analysis

import (
	"context"

	"github.com/sells-group/emission-rollup/internal/model"
	"github.com/sells-group/emission-rollup/internal/rollup"
	"github.com/sells-group/emission-rollup/internal/store"
)

// Source is the read side of store.Store.
type Source interface {
	store.SnapshotGetter
	LoadRecords(ctx context.Context, snapshotID string) ([]model.Record, error)
}

// Analysis is one engine run over one snapshot.
type Analysis struct {
	Snapshot *model.Snapshot `json:"snapshot"`
	*rollup.Result
}

// Analyzer binds a snapshot source to an engine.
type Analyzer struct {
	Source Source
	Engine *rollup.Engine
}

// New returns an Analyzer.
func New(src Source, engine *rollup.Engine) *Analyzer {
	return &Analyzer{Source: src, Engine: engine}
}

// Run analyzes the snapshot with the given id, or the latest when id is
// empty. store.ErrNotFound and *model.MissingStageError pass through
// unwrapped.
func (a *Analyzer) Run(ctx context.Context, snapshotID string) (*Analysis, error) {
	snap, err := store.Resolve(ctx, a.Source, snapshotID)
	if err != nil {
		return nil, err
	}

	records, err := a.Source.LoadRecords(ctx, snap.ID)
	if err != nil {
		return nil, err
	}

	res, err := a.Engine.Run(ctx, records)
	if err != nil {
		return nil, err
	}
	return &Analysis{Snapshot: snap, Result: res}, nil
}

var _ Source = (store.Store)(nil)
