// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/fileseries/internal/app"
	"github.com/okian/fileseries/internal/domain/series"
	"github.com/okian/fileseries/internal/domain/timeinfo"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateSeries(ctx context.Context, spec service.SeriesSpec) (service.SeriesView, error)
	Describe(ctx context.Context, id string) (service.SeriesView, error)
	Get(ctx context.Context, id string) (service.SeriesView, error)
	Timeline(ctx context.Context, id string) (timeinfo.Info, error)
	Fetch(ctx context.Context, id string, times []float64) (series.FetchResult, error)
	Window(ctx context.Context, id string, index int, times []float64) ([]float64, error)
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) []service.SeriesView
}

// Server wires HTTP routes for the series API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	seriesHandler *SeriesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		seriesHandler: NewSeriesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /series", MetricsMiddleware(s.seriesHandler.HandleCreate, "series_create"))
	mux.HandleFunc("GET /series", MetricsMiddleware(s.seriesHandler.HandleList, "series_list"))
	mux.HandleFunc("GET /series/{id}", MetricsMiddleware(s.seriesHandler.HandleGet, "series_get"))
	mux.HandleFunc("DELETE /series/{id}", MetricsMiddleware(s.seriesHandler.HandleRemove, "series_remove"))
	mux.HandleFunc("GET /series/{id}/timeline", MetricsMiddleware(s.seriesHandler.HandleTimeline, "series_timeline"))
	mux.HandleFunc("POST /series/{id}/describe", MetricsMiddleware(s.seriesHandler.HandleDescribe, "series_describe"))
	mux.HandleFunc("POST /series/{id}/fetch", MetricsMiddleware(s.seriesHandler.HandleFetch, "series_fetch"))
	mux.HandleFunc("GET /series/{id}/window", MetricsMiddleware(s.seriesHandler.HandleWindow, "series_window"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates a service error into a status and kind.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBadRequest) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	kind := service.ErrorKind(err)
	writeError(w, statusForKind(kind), kind, err)
}
