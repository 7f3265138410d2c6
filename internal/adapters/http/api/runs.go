package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/dilemma/internal/domain/model"
)

const defaultRunsLimit = 10

// RunsHandler schedules runs and lists finished ones.
type RunsHandler struct {
	deps     RunDependencies
	maxLimit int
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunDependencies, maxLimit int) *RunsHandler {
	return &RunsHandler{deps: deps, maxLimit: maxLimit}
}

// runRequest is the optional body of POST /run.
type runRequest struct {
	Source *string `json:"source"`
}

// HandlePostRun handles POST /run. Without a body the editor source runs.
func (h *RunsHandler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_run"
	var body runRequest
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	var (
		req model.RunRequest
		err error
	)
	if body.Source != nil {
		req, err = h.deps.RequestRun(r.Context(), model.ReasonManual, *body.Source)
	} else {
		req, err = h.deps.RunSource(r.Context(), model.ReasonManual)
	}
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, newRunAck(req))
}

// HandleListRuns handles GET /runs?limit=N requests.
func (h *RunsHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_runs"
	n := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	runs, err := h.deps.Runs(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
