package api

import (
	"net/http"

	"github.com/okian/dilemma/internal/livesync"
)

// SyncHandler exposes the classroom synchronization controller.
type SyncHandler struct {
	deps SyncDependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

type syncStateResponse struct {
	livesync.State
	Message string `json:"message"`
}

type submitRequest struct {
	Position int `json:"position"`
}

type streamingRequest struct {
	Identity string `json:"identity"`
	Enabled  bool   `json:"enabled"`
}

// HandleState handles GET /sync requests.
func (h *SyncHandler) HandleState(w http.ResponseWriter, _ *http.Request) {
	const op = "api.sync_state"
	st, err := h.deps.SyncState()
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, syncStateResponse{State: st, Message: st.Describe()})
}

// HandleReconnect handles POST /sync/reconnect requests.
func (h *SyncHandler) HandleReconnect(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_reconnect"
	if err := h.deps.Reconnect(r.Context()); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	h.HandleState(w, r)
}

// HandleGet handles POST /sync/get: the merged source is requested and run
// when it differs from the last one.
func (h *SyncHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_get"
	if err := h.deps.FetchMerged(r.Context()); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
}

// HandleSubmit handles POST /sync/submit {"position": 1|2}.
func (h *SyncHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_submit"
	var body submitRequest
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.Submit(r.Context(), body.Position); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "sent", "position": body.Position})
}

// HandleStreaming handles POST /sync/streaming {"identity", "enabled"}.
func (h *SyncHandler) HandleStreaming(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_streaming"
	var body streamingRequest
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetStreaming(body.Identity, body.Enabled); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	h.HandleState(w, r)
}
