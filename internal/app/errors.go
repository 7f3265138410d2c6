package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNoSource   = errors.New("no editor source configured")
	ErrNoSync     = errors.New("live synchronization is not configured")
	ErrNoRuns     = errors.New("no run has finished yet")
)
