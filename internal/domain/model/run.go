package model

import "time"

// RunRequest asks for one execution of a strategies document. Generation is
// the monotonic request counter; a run whose generation is no longer the
// latest must not publish its result.
type RunRequest struct {
	ID          string    `json:"id"`
	Generation  uint64    `json:"generation"`
	Source      string    `json:"-"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Run request reasons.
const (
	ReasonManual = "manual"
	ReasonSync   = "sync"
	ReasonStart  = "startup"
	ReasonReset  = "reset"
)
