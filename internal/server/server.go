// Package server exposes rollup results over HTTP. Every request loads a
// stored snapshot and recomputes; nothing is cached between requests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/emission-rollup/internal/analysis"
	"github.com/sells-group/emission-rollup/internal/model"
	"github.com/sells-group/emission-rollup/internal/report"
	"github.com/sells-group/emission-rollup/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Analyzer      *analysis.Analyzer
	Snapshots     SnapshotLister
	Ranges        []report.PercentRange
	UnknownPolicy report.UnknownPolicy
	// Desks optionally maps family id to desk for the desk dimension.
	Desks       map[string]string
	CORSOrigins []string
}

// SnapshotLister lists stored snapshots.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error)
}

type handler struct {
	cfg Config
}

// New returns an HTTP handler exposing the rollup API.
func New(cfg Config) http.Handler {
	if len(cfg.Ranges) == 0 {
		cfg.Ranges = report.DefaultRanges()
	}
	if cfg.UnknownPolicy == "" {
		cfg.UnknownPolicy = report.UnknownSeparate
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &handler{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/snapshots", h.snapshots)
		r.Get("/families", h.families)
		r.Get("/families/{id}", h.family)
		r.Get("/buckets", h.buckets)
		r.Get("/summary", h.summary)
		r.Get("/stages", h.stages)
		r.Get("/diagnostics", h.diagnostics)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRunError maps analysis failures to HTTP statuses.
func writeRunError(w http.ResponseWriter, err error) {
	var missing *model.MissingStageError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "snapshot not found")
	case errors.As(err, &missing):
		writeError(w, http.StatusUnprocessableEntity, missing.Error())
	default:
		zap.L().Error("server: analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *handler) run(w http.ResponseWriter, r *http.Request) (*analysis.Analysis, bool) {
	res, err := h.cfg.Analyzer.Run(r.Context(), r.URL.Query().Get("snapshot"))
	if err != nil {
		writeRunError(w, err)
		return nil, false
	}
	return res, true
}

func (h *handler) ranges(r *http.Request) ([]report.PercentRange, error) {
	raw := r.URL.Query().Get("ranges")
	if raw == "" {
		return h.cfg.Ranges, nil
	}
	return report.ParseRanges(strings.Split(raw, ","))
}

func (h *handler) policy(r *http.Request) (report.UnknownPolicy, error) {
	raw := r.URL.Query().Get("unknown")
	if raw == "" {
		return h.cfg.UnknownPolicy, nil
	}
	return report.ParseUnknownPolicy(raw)
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
