// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/types"
	"github.com/okian/dilemma/internal/livesync"
)

const defaultMaxRuns = 50

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ResultsDependencies
	RunDependencies
	SourceDependencies
	SyncDependencies
	StatsProvider
}

// ResultsDependencies exposes the results of the last good run.
type ResultsDependencies interface {
	Scoreboard() []types.Standing
	CrossTable() types.CrossTable
	Games() []types.Game
	LastRun() (types.Run, error)
}

// RunDependencies schedules runs and lists finished ones.
type RunDependencies interface {
	RequestRun(ctx context.Context, reason, source string) (model.RunRequest, error)
	RunSource(ctx context.Context, reason string) (model.RunRequest, error)
	Runs(ctx context.Context, limit int) ([]types.Run, error)
}

// SourceDependencies reads and edits the local strategies document.
type SourceDependencies interface {
	Source() (string, error)
	SetSource(ctx context.Context, code string) (model.RunRequest, error)
	ResetSource(ctx context.Context) (model.RunRequest, error)
}

// SyncDependencies drives the classroom synchronization controller.
type SyncDependencies interface {
	SyncState() (livesync.State, error)
	Reconnect(ctx context.Context) error
	FetchMerged(ctx context.Context) error
	Submit(ctx context.Context, position int) error
	SetStreaming(identity string, on bool) error
}

// Server wires HTTP routes for the tournament API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	resultsHandler   *ResultsHandler
	runsHandler      *RunsHandler
	sourceHandler    *SourceHandler
	syncHandler      *SyncHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers. maxRuns caps
// GET /runs?limit.
func NewServer(deps Dependencies, maxRuns int) *Server {
	if maxRuns <= 0 {
		maxRuns = defaultMaxRuns
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		resultsHandler:   NewResultsHandler(deps),
		runsHandler:      NewRunsHandler(deps, maxRuns),
		sourceHandler:    NewSourceHandler(deps),
		syncHandler:      NewSyncHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.Handle("GET /{$}", http.RedirectHandler("/dashboard", http.StatusFound))

	mux.HandleFunc("GET /scoreboard", MetricsMiddleware(s.resultsHandler.HandleScoreboard, "scoreboard"))
	mux.HandleFunc("GET /crosstable", MetricsMiddleware(s.resultsHandler.HandleCrossTable, "crosstable"))
	mux.HandleFunc("GET /games", MetricsMiddleware(s.resultsHandler.HandleGames, "games"))
	mux.HandleFunc("GET /output", MetricsMiddleware(s.resultsHandler.HandleOutput, "output"))

	mux.HandleFunc("POST /run", MetricsMiddleware(s.runsHandler.HandlePostRun, "run"))
	mux.HandleFunc("GET /runs", MetricsMiddleware(s.runsHandler.HandleListRuns, "runs"))

	mux.HandleFunc("GET /source", MetricsMiddleware(s.sourceHandler.HandleGetSource, "source"))
	mux.HandleFunc("PUT /source", MetricsMiddleware(s.sourceHandler.HandlePutSource, "source"))
	mux.HandleFunc("DELETE /source", MetricsMiddleware(s.sourceHandler.HandleResetSource, "source"))

	mux.HandleFunc("GET /sync", MetricsMiddleware(s.syncHandler.HandleState, "sync"))
	mux.HandleFunc("POST /sync/reconnect", MetricsMiddleware(s.syncHandler.HandleReconnect, "sync_reconnect"))
	mux.HandleFunc("POST /sync/get", MetricsMiddleware(s.syncHandler.HandleGet, "sync_get"))
	mux.HandleFunc("POST /sync/submit", MetricsMiddleware(s.syncHandler.HandleSubmit, "sync_submit"))
	mux.HandleFunc("POST /sync/streaming", MetricsMiddleware(s.syncHandler.HandleStreaming, "sync_streaming"))
}

// runAck is returned when a run was scheduled.
type runAck struct {
	Status     string `json:"status"`
	ID         string `json:"id"`
	Generation uint64 `json:"generation"`
	Reason     string `json:"reason"`
}

func newRunAck(req model.RunRequest) runAck {
	return runAck{Status: "accepted", ID: req.ID, Generation: req.Generation, Reason: req.Reason}
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

// writeFailure maps err to a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
