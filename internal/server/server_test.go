package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emission-rollup/internal/analysis"
	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/model"
	"github.com/sells-group/emission-rollup/internal/report"
	"github.com/sells-group/emission-rollup/internal/rollup"
	"github.com/sells-group/emission-rollup/internal/store"
)

func card(id, family, pipeline, stage, desk string) model.Record {
	return model.Record{
		RecordID: id, FamilyID: family, RequesterID: "R" + id,
		PipelineID: pipeline, StageCode: model.Stage(stage), Desk: desk,
	}
}

// fixture: F1 complete, F2 half done, F3 all dismissed, F4 has an unknown code.
var fixtureCards = []model.Record{
	card("1", "F1", "16", "DT1052_16:UC_Z24IF7", "Mesa 1"),
	card("2", "F1", "16", "DT1052_16:SUCCESS", "Mesa 1"),
	card("3", "F1", "16", "DT1052_16:UC_8D1OZA", "Mesa 1"),
	card("4", "F2", "16", "DT1052_16:UC_Z24IF7", "Mesa 2"),
	card("5", "F2", "16", "DT1052_16:UC_7F8RGU", "Mesa 2"),
	card("6", "F3", "34", "DT1052_34:UC_X0D5TQ", ""),
	card("7", "F4", "34", "DT1052_99:UC_NOPE00", ""),
}

func newTestServer(t *testing.T, records []model.Record, mutate func(*Config)) (http.Handler, *model.Snapshot) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	var snap *model.Snapshot
	if records != nil {
		snap, err = s.SaveSnapshot(context.Background(), "fixture.csv", records)
		require.NoError(t, err)
	}

	cfg := Config{
		Analyzer:  analysis.New(s, rollup.NewEngine(catalog.Default(), 1)),
		Snapshots: s,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg), snap
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr.Code
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, h, "/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestFamilies(t *testing.T) {
	h, snap := newTestServer(t, fixtureCards, nil)

	var body struct {
		Snapshot       model.Snapshot `json:"snapshot"`
		CatalogVersion string         `json:"catalog_version"`
		Families       []struct {
			FamilyID          string  `json:"family_id"`
			Completed         bool    `json:"completed_flag"`
			CompletionPercent float64 `json:"completion_percent"`
			Bucket            string  `json:"bucket"`
		} `json:"families"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/v1/families", &body))
	assert.Equal(t, snap.ID, body.Snapshot.ID)
	assert.Equal(t, catalog.Default().Version(), body.CatalogVersion)
	require.Len(t, body.Families, 4)

	assert.Equal(t, "F1", body.Families[0].FamilyID)
	assert.True(t, body.Families[0].Completed)
	assert.Equal(t, "100", body.Families[0].Bucket)
	assert.Equal(t, "50-99", body.Families[1].Bucket)
	assert.Equal(t, 50.0, body.Families[1].CompletionPercent)
	assert.Equal(t, "0-49", body.Families[2].Bucket)

	require.Equal(t, http.StatusOK, get(t, h, "/v1/families?incomplete=true", &body))
	assert.Len(t, body.Families, 3)
}

func TestFamily(t *testing.T) {
	h, _ := newTestServer(t, fixtureCards, nil)

	var body map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/v1/families/F2?ranges=0-50,51-100", &body))
	assert.Equal(t, "F2", body["family_id"])
	assert.Equal(t, "0-50", body["bucket"])
	assert.EqualValues(t, 2, body["active_total"])

	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/families/NOPE", &body))
	assert.Equal(t, "family not found", body["error"])
}

func TestBuckets(t *testing.T) {
	h, _ := newTestServer(t, fixtureCards, nil)

	var body struct {
		Counts   []report.BucketCount `json:"counts"`
		Families map[string]string    `json:"families"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/v1/buckets", &body))
	assert.Equal(t, []report.BucketCount{
		{Label: "0-49", Families: 2},
		{Label: "50-99", Families: 1},
		{Label: "100", Families: 1},
	}, body.Counts)
	assert.Equal(t, "50-99", body.Families["F2"])

	var bad map[string]string
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/buckets?ranges=90-10", &bad))
	assert.Contains(t, bad["error"], "upper bound")
}

func TestSummary(t *testing.T) {
	h, _ := newTestServer(t, fixtureCards, nil)

	var body struct {
		Dimension string              `json:"dimension"`
		Rows      []report.SummaryRow `json:"rows"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/v1/summary", &body))
	assert.Equal(t, "pipeline", body.Dimension)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "16", body.Rows[0].Key)
	assert.Equal(t, []string{"F1", "F2"}, body.Rows[0].FamilyIDs)
	assert.Equal(t, 1, body.Rows[1].Unknown)

	require.Equal(t, http.StatusOK, get(t, h, "/v1/summary?dimension=pipeline&unknown=fold", &body))
	assert.Equal(t, 0, body.Rows[1].Unknown)
	assert.True(t, body.Rows[1].UnknownFolded)

	require.Equal(t, http.StatusOK, get(t, h, "/v1/summary?dimension=desk", &body))
	assert.Equal(t, report.Unassigned, body.Rows[0].Key)

	var bad map[string]string
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/summary?dimension=region", &bad))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/summary?unknown=hide", &bad))
}

func TestSummary_DeskLookup(t *testing.T) {
	h, _ := newTestServer(t, fixtureCards, func(c *Config) {
		c.Desks = map[string]string{"F3": "Mesa 9", "F4": "Mesa 9"}
	})

	var body struct {
		Rows []report.SummaryRow `json:"rows"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/v1/summary?dimension=desk", &body))
	require.Len(t, body.Rows, 2)
	assert.Equal(t, report.Unassigned, body.Rows[0].Key)
	assert.Equal(t, "Mesa 9", body.Rows[1].Key)
	assert.Equal(t, []string{"F3", "F4"}, body.Rows[1].FamilyIDs)
}

func TestStages(t *testing.T) {
	h, _ := newTestServer(t, fixtureCards, nil)

	var body struct {
		Stages []report.StageCount `json:"stages"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/v1/stages", &body))
	require.NotEmpty(t, body.Stages)
	assert.Equal(t, "CERTIDÃO EMITIDA", body.Stages[0].Stage)
	assert.Equal(t, 2, body.Stages[0].Records)
}

func TestDiagnostics(t *testing.T) {
	h, _ := newTestServer(t, fixtureCards, nil)

	var body struct {
		Counts   map[string]int  `json:"counts"`
		Warnings []model.Warning `json:"warnings"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/v1/diagnostics?kind=unresolved_stage", &body))
	assert.Equal(t, 1, body.Counts["unresolved_stage"])
	require.Len(t, body.Warnings, 1)
	assert.Equal(t, "7", body.Warnings[0].RecordID)
}

func TestSnapshots(t *testing.T) {
	h, snap := newTestServer(t, fixtureCards, nil)

	var body struct {
		Snapshots []model.Snapshot `json:"snapshots"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/v1/snapshots?limit=5", &body))
	require.Len(t, body.Snapshots, 1)
	assert.Equal(t, snap.ID, body.Snapshots[0].ID)
}

func TestNoSnapshot(t *testing.T) {
	h, _ := newTestServer(t, nil, nil)

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/families", &body))
	assert.Equal(t, "snapshot not found", body["error"])

	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/families?snapshot=missing", &body))
}

func TestMissingStage(t *testing.T) {
	h, _ := newTestServer(t, []model.Record{{RecordID: "9", FamilyID: "F1"}}, nil)

	var body map[string]string
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, h, "/v1/stages", &body))
	assert.Contains(t, body["error"], "has no stage field")
}

func TestCORS(t *testing.T) {
	h, _ := newTestServer(t, nil, func(c *Config) {
		c.CORSOrigins = []string{"https://dash.example.com"}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://dash.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
