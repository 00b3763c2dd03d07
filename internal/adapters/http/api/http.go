// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brightnest/reliability/internal/adapters/repository"
	"github.com/brightnest/reliability/internal/domain/model"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the app service.
type Dependencies interface {
	// UpdateSingle synchronously recomputes one cleaner for admin use.
	UpdateSingle(ctx context.Context, email string) model.TriggerResult

	// RunNightlyBatch executes a full recompute run and returns its report.
	RunNightlyBatch(ctx context.Context) model.BatchRunReport

	// CleanerScore reads a cleaner's persisted standing.
	CleanerScore(ctx context.Context, email string) (model.ScoreSummary, error)
}

// Server wires HTTP routes for the admin API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	scoreHandler     *ScoreHandler
	recomputeHandler *RecomputeHandler
	batchHandler     *BatchHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		scoreHandler:     NewScoreHandler(deps),
		recomputeHandler: NewRecomputeHandler(deps),
		batchHandler:     NewBatchHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/score/", MetricsMiddleware(s.scoreHandler.HandleGetScore, "score"))
	mux.HandleFunc("/recompute/", MetricsMiddleware(s.recomputeHandler.HandleRecompute, "recompute"))
	mux.HandleFunc("/batch/run", MetricsMiddleware(s.batchHandler.HandleRunBatch, "batch_run"))
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

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrProfileNotFound)
}
