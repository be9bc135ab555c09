package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/emission-rollup/internal/model"
	"github.com/sells-group/emission-rollup/internal/report"
	"github.com/sells-group/emission-rollup/internal/rollup"
)

type familyView struct {
	model.FamilyAggregate
	Bucket string `json:"bucket"`
}

type familiesResponse struct {
	Snapshot       *model.Snapshot `json:"snapshot"`
	CatalogVersion string          `json:"catalog_version"`
	Families       []familyView    `json:"families"`
}

func (h *handler) snapshots(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Snapshots == nil {
		writeError(w, http.StatusNotImplemented, "snapshot listing not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.cfg.Snapshots.ListSnapshots(r.Context(), limit)
	if err != nil {
		writeRunError(w, err)
		return
	}
	if list == nil {
		list = []model.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": list})
}

func (h *handler) families(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.ranges(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	incomplete := queryBool(r, "incomplete")
	buckets := report.Bucketize(res.Families, ranges)

	out := make([]familyView, 0, len(res.Families))
	for _, id := range rollup.SortedIDs(res.Families) {
		f := res.Families[id]
		if incomplete && f.Completed {
			continue
		}
		out = append(out, familyView{FamilyAggregate: f, Bucket: buckets[id]})
	}
	writeJSON(w, http.StatusOK, familiesResponse{
		Snapshot:       res.Snapshot,
		CatalogVersion: res.CatalogVersion,
		Families:       out,
	})
}

func (h *handler) family(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.ranges(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	f, found := res.Families[id]
	if !found {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}
	buckets := report.Bucketize(map[string]model.FamilyAggregate{id: f}, ranges)
	writeJSON(w, http.StatusOK, familyView{FamilyAggregate: f, Bucket: buckets[id]})
}

func (h *handler) buckets(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.ranges(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	buckets := report.Bucketize(res.Families, ranges)
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": res.Snapshot,
		"ranges":   ranges,
		"counts":   report.BucketCounts(buckets, ranges),
		"families": buckets,
	})
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dimension")
	if name == "" {
		name = "pipeline"
	}
	dim, err := h.dimension(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy, err := h.policy(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	rows := report.Summarize(res.Families, dim, policy)
	if rows == nil {
		rows = []report.SummaryRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":       res.Snapshot,
		"dimension":      name,
		"unknown_policy": policy,
		"rows":           rows,
	})
}

// dimension prefers the external desk sheet over the card's desk field.
func (h *handler) dimension(name string) (report.DimensionFunc, error) {
	if (name == "desk" || name == "mesa") && len(h.cfg.Desks) > 0 {
		return report.ByLookup(h.cfg.Desks, report.Unassigned), nil
	}
	return report.Dimension(name)
}

func (h *handler) stages(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":        res.Snapshot,
		"catalog_version": res.CatalogVersion,
		"stages":          report.StageFunnel(res.Families),
	})
}

func (h *handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	warnings := res.Diagnostics
	if kind := r.URL.Query().Get("kind"); kind != "" {
		warnings = warnings.OfKind(model.WarningKind(kind))
	}
	if warnings == nil {
		warnings = model.Diagnostics{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": res.Snapshot,
		"counts":   res.Diagnostics.CountByKind(),
		"warnings": warnings,
	})
}
