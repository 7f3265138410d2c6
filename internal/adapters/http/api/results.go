package api

import (
	"net/http"

	"github.com/okian/dilemma/internal/domain/types"
)

// ResultsHandler serves the aggregates of the last good run.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleScoreboard handles GET /scoreboard requests.
func (h *ResultsHandler) HandleScoreboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Scoreboard())
}

// HandleCrossTable handles GET /crosstable requests.
func (h *ResultsHandler) HandleCrossTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.CrossTable())
}

// HandleGames handles GET /games requests.
func (h *ResultsHandler) HandleGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Games())
}

type outputResponse struct {
	types.Run
	Terminal string `json:"terminal"`
}

// HandleOutput handles GET /output requests: the last run, failed or not.
func (h *ResultsHandler) HandleOutput(w http.ResponseWriter, _ *http.Request) {
	const op = "api.get_output"
	run, err := h.deps.LastRun()
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, outputResponse{Run: run, Terminal: run.Terminal()})
}
