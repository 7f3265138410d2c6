package sandbox

import (
	"errors"
	"fmt"

	"github.com/okian/dilemma/internal/domain/model"
)

var (
	// ErrScript marks any failure raised by the script itself.
	ErrScript = errors.New("script error")
	// ErrInvalidMove is wrapped by InvalidMoveError.
	ErrInvalidMove = model.ErrInvalidMove
	// ErrNoActiveSession is returned when a move or end is reported outside a game.
	ErrNoActiveSession = errors.New("no active game: call builtin_start_game first")
	// ErrSessionAlreadyOpen is returned when a game starts before the previous one ended.
	ErrSessionAlreadyOpen = errors.New("a game is already in progress: call builtin_end_game first")
	// ErrResourceLimit is wrapped by ResourceLimitError.
	ErrResourceLimit = errors.New("step budget exhausted")
	// ErrRunTimeout is returned when a run exceeds its wall-clock limit.
	ErrRunTimeout = errors.New("run timed out")
)

// ScriptError is an exception raised by the sandboxed program, including
// syntax and resolution errors.
type ScriptError struct {
	Msg string
	Err error
}

func (e *ScriptError) Error() string { return e.Msg }

// Unwrap exposes both the sentinel and the interpreter error.
func (e *ScriptError) Unwrap() []error { return []error{ErrScript, e.Err} }

// InvalidMoveError reports a move that is neither Cooperate nor Defect.
type InvalidMoveError struct {
	Token string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("All moves must be either %q or %q. Got invalid move: %s",
		model.CooperateToken, model.DefectToken, e.Token)
}

func (e *InvalidMoveError) Unwrap() error { return ErrInvalidMove }

// ResourceLimitError reports that the script used up its step budget.
type ResourceLimitError struct {
	Budget uint64
	Steps  uint64
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("Your script ran too long: step budget of %d exhausted (%d steps). Look for loops that never finish.",
		e.Budget, e.Steps)
}

func (e *ResourceLimitError) Unwrap() error { return ErrResourceLimit }
