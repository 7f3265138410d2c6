package livesync

import "fmt"

// Status is the connection state of the controller.
type Status int

// Connection states.
const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a snapshot of the controller.
type State struct {
	Status     Status  `json:"status"`
	Attempt    int     `json:"attempt"`
	Streaming  bool    `json:"streaming"`
	HasSource  bool    `json:"hasSource"`
	LastSource string  `json:"lastSource,omitempty"`
	Submitted  [2]bool `json:"submitted"`
	LastError  string  `json:"lastError,omitempty"`
}

// IsSubmitted reports the acknowledgment flag of slot position (1 or 2).
func (s State) IsSubmitted(position int) bool {
	if position < 1 || position > len(s.Submitted) {
		return false
	}
	return s.Submitted[position-1]
}

// Describe renders the status line shown to users.
func (s State) Describe() string {
	switch s.Status {
	case Connecting:
		return fmt.Sprintf("Connecting to server (try %d)...", s.Attempt)
	case Connected:
		return "Connected"
	}
	if s.LastError != "" {
		return "Not connected: " + s.LastError
	}
	return "Not connected"
}
