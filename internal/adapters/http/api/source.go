package api

import (
	"errors"
	"net/http"
)

// SourceHandler reads and edits the local strategies document.
type SourceHandler struct {
	deps SourceDependencies
}

// NewSourceHandler creates a new source handler.
func NewSourceHandler(deps SourceDependencies) *SourceHandler {
	return &SourceHandler{deps: deps}
}

type sourceBody struct {
	Code string `json:"code"`
}

// HandleGetSource handles GET /source requests.
func (h *SourceHandler) HandleGetSource(w http.ResponseWriter, _ *http.Request) {
	const op = "api.get_source"
	code, err := h.deps.Source()
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sourceBody{Code: code})
}

// HandlePutSource handles PUT /source: the document is saved and run.
func (h *SourceHandler) HandlePutSource(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_source"
	var body sourceBody
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if body.Code == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing code")))
		return
	}
	req, err := h.deps.SetSource(r.Context(), body.Code)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, newRunAck(req))
}

// HandleResetSource handles DELETE /source: the default document is
// restored and run.
func (h *SourceHandler) HandleResetSource(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_source"
	req, err := h.deps.ResetSource(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, newRunAck(req))
}
