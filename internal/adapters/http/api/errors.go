package api

import (
	"errors"
	"net/http"

	service "github.com/okian/dilemma/internal/app"
	"github.com/okian/dilemma/internal/adapters/mq/queue"
	"github.com/okian/dilemma/internal/adapters/repository"
	"github.com/okian/dilemma/internal/livesync"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

// NewKind returns an error of the given kind.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind returns an error of the given kind caused by err.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	return &opError{op: op, err: err}
}

func (e *opError) Error() string {
	switch {
	case e.kind != nil && e.err != nil:
		return e.kind.Error() + ": " + e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	case e.err != nil:
		return e.err.Error()
	}
	return e.op
}

// Op returns the handler operation.
func (e *opError) Op() string { return e.op }

func (e *opError) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

// classify maps an error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, service.ErrNoSource), errors.Is(err, service.ErrNoSync):
		return http.StatusNotImplemented, "not_configured"
	case errors.Is(err, service.ErrNoRuns), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, livesync.ErrNotConnected):
		return http.StatusConflict, "not_connected"
	case errors.Is(err, livesync.ErrNotPrivileged):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, livesync.ErrInvalidPosition),
		errors.Is(err, livesync.ErrMissingIdentity),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, livesync.ErrConnectivity):
		return http.StatusBadGateway, "connectivity"
	}
	return http.StatusInternalServerError, "internal_error"
}
