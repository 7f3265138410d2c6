package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/dilemma/pkg/metrics"
)

// MetricsMiddleware records request count and latency per endpoint, and
// counts responses of 400 and above as http errors.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))
		if rec.status >= http.StatusBadRequest {
			metrics.RecordErrorByComponent("http", errorClass(rec.status))
		}
	}
}

// errorClass buckets a failing status into a low-cardinality label.
func errorClass(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusServiceUnavailable, http.StatusNotImplemented:
		return "unavailable"
	case http.StatusConflict, http.StatusBadGateway:
		return "sync"
	case http.StatusNotFound:
		return "not_found"
	}
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
