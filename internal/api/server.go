// Package api serves stored sprint runs over HTTP: run listings, run detail
// with trajectory and splits, rendered charts and plots, trajectory CSV
// downloads and Prometheus metrics.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/sprint.report/internal/db"
	"github.com/banshee-data/sprint.report/internal/httputil"
	"github.com/banshee-data/sprint.report/internal/monitoring"
	"github.com/banshee-data/sprint.report/internal/report"
	"github.com/banshee-data/sprint.report/internal/units"
	"github.com/banshee-data/sprint.report/internal/version"
)

// ANSI escape codes for request logging
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// DefaultListLimit caps GET /api/runs when no limit is given.
const DefaultListLimit = 50

// RunStore is the read side of the run database.
type RunStore interface {
	GetRun(runID string) (*db.RunRecord, error)
	ListRuns(limit int) ([]db.RunSummary, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	store   RunStore
	metrics http.Handler
	units   string
}

// NewServer builds a Server. metrics may be nil, in which case /metrics is
// not mounted. units is the default speed unit for responses.
func NewServer(store RunStore, metrics http.Handler, units string) *Server {
	return &Server{store: store, metrics: metrics, units: units}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux mounts every route.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/{id}", s.showRun)
	mux.HandleFunc("/api/runs/{id}/chart", s.showChart)
	mux.HandleFunc("/api/runs/{id}/plot.png", s.showPlot)
	mux.HandleFunc("/api/runs/{id}/trajectory.csv", s.downloadTrajectory)
	mux.HandleFunc("/api/version", s.showVersion)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// requestUnits resolves ?units= against the server default. ok is false when
// an error response has been written.
func (s *Server) requestUnits(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := r.URL.Query().Get("units")
	if u == "" {
		u = s.units
	}
	if !units.IsValid(u) {
		httputil.BadRequest(w, fmt.Sprintf("invalid units %q, must be one of: %s", u, units.GetValidUnitsString()))
		return "", false
	}
	return u, true
}

// loadRun fetches the run named by the {id} path value. ok is false when an
// error response has been written.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*db.RunRecord, bool) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return nil, false
	}
	id := r.PathValue("id")
	rec, err := s.store.GetRun(id)
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, fmt.Sprintf("run %s not found", id))
		return nil, false
	}
	if err != nil {
		monitoring.Logf("failed to load run %s: %v", id, err)
		httputil.InternalServerError(w, "failed to load run")
		return nil, false
	}
	return rec, true
}

// requireTrajectory writes 409 for runs that never produced a result.
func requireTrajectory(w http.ResponseWriter, rec *db.RunRecord) bool {
	if len(rec.Result.Trajectory) == 0 {
		httputil.Conflict(w, fmt.Sprintf("run %s has no trajectory (status %s)", rec.Result.RunID, rec.Status))
		return false
	}
	return true
}

type runSummaryResponse struct {
	db.RunSummary
	Units        string  `json:"units"`
	AverageSpeed float64 `json:"average_speed"`
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	u, ok := s.requestUnits(w, r)
	if !ok {
		return
	}
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		monitoring.Logf("failed to list runs: %v", err)
		httputil.InternalServerError(w, "failed to list runs")
		return
	}
	out := make([]runSummaryResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runSummaryResponse{
			RunSummary:   run,
			Units:        u,
			AverageSpeed: units.ConvertSpeed(run.AverageSpeedMPS, u),
		})
	}
	httputil.WriteJSONOK(w, out)
}

type runResponse struct {
	db.RunRecord
	Units        string  `json:"units"`
	AverageSpeed float64 `json:"average_speed"`
	FittedSpeed  float64 `json:"fitted_speed"`
	Summary      string  `json:"summary,omitempty"`
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	u, ok := s.requestUnits(w, r)
	if !ok {
		return
	}
	resp := runResponse{
		RunRecord:    *rec,
		Units:        u,
		AverageSpeed: units.ConvertSpeed(rec.Result.AverageSpeedMPS, u),
		FittedSpeed:  units.ConvertSpeed(rec.Result.FittedSpeedMPS, u),
	}
	if len(rec.Result.Trajectory) > 0 {
		resp.Summary = rec.Result.Summary(u)
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	u, ok := s.requestUnits(w, r)
	if !ok || !requireTrajectory(w, rec) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderChart(w, &rec.Result, u); err != nil {
		monitoring.Logf("failed to render chart for run %s: %v", rec.Result.RunID, err)
		httputil.InternalServerError(w, "failed to render chart")
	}
}

func (s *Server) showPlot(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok || !requireTrajectory(w, rec) {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := report.RenderPlotPNG(w, &rec.Result); err != nil {
		monitoring.Logf("failed to render plot for run %s: %v", rec.Result.RunID, err)
		httputil.InternalServerError(w, "failed to render plot")
	}
}

func (s *Server) downloadTrajectory(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok || !requireTrajectory(w, rec) {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Result.RunID+".csv"))
	if err := report.EncodeCSV(w, &rec.Result); err != nil {
		monitoring.Logf("failed to write trajectory for run %s: %v", rec.Result.RunID, err)
	}
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}
