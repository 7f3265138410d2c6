package livesync

import "errors"

var (
	// ErrNotConnected is returned by actions that need a live coordinator connection.
	ErrNotConnected = errors.New("not connected to the tournament coordinator; reconnect first")
	// ErrNotPrivileged is returned when a non-privileged identity toggles streaming.
	ErrNotPrivileged = errors.New("only the session owner can toggle streaming")
	// ErrInvalidPosition is returned for a submit slot other than 1 or 2.
	ErrInvalidPosition = errors.New("submit position must be 1 or 2")
	// ErrMissingIdentity is returned when submitting without an author identity.
	ErrMissingIdentity = errors.New("an identity is required to submit")
	// ErrConnectivity wraps dial, send and receive failures.
	ErrConnectivity = errors.New("coordinator connection failed")
)
