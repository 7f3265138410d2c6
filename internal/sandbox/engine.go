// Package sandbox runs strategy scripts in a Starlark interpreter and bridges
// their callbacks to the game session model.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
	"golang.org/x/exp/rand"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/pkg/logger"
	"github.com/okian/dilemma/pkg/metrics"
)

// Default engine configuration.
const (
	DefaultIterations  = 20
	DefaultRepetitions = 1
	DefaultStepBudget  = 3_000_000
	DefaultTimeout     = 10 * time.Second

	scriptFilename = "strategies.star"
)

var fileOptions = &syntax.FileOptions{ //nolint:gochecknoglobals // immutable dialect settings
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Outcome is everything a run produced. Result holds the games closed before
// any failure.
type Outcome struct {
	Result   model.TournamentResult
	Output   string
	Trace    string
	Steps    uint64
	Duration time.Duration
	Err      error
}

// OK reports whether the run finished without error.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Kind returns the metrics outcome label for the run.
func (o Outcome) Kind() string {
	var (
		im *InvalidMoveError
		rl *ResourceLimitError
	)
	switch {
	case o.Err == nil:
		return metrics.OutcomeOK
	case errors.As(o.Err, &rl):
		return metrics.OutcomeResourceLimit
	case errors.Is(o.Err, ErrRunTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(o.Err, context.Canceled):
		return metrics.OutcomeSuperseded
	case errors.As(o.Err, &im):
		return metrics.OutcomeInvalidMove
	case errors.Is(o.Err, ErrNoActiveSession), errors.Is(o.Err, ErrSessionAlreadyOpen):
		return metrics.OutcomeNoSession
	}
	return metrics.OutcomeScriptError
}

// Terminal renders what the user sees: script output followed by the error.
func (o Outcome) Terminal() string {
	out := o.Output
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if o.Err == nil {
		return out
	}
	msg := o.Err.Error()
	if o.Trace != "" {
		msg = o.Trace
	}
	return out + "\n" + msg
}

// Engine executes tournament documents. It keeps no state between runs and
// is safe for concurrent use, although the service never overlaps runs.
type Engine struct {
	iterations  int
	repetitions int
	stepBudget  uint64
	timeout     time.Duration
	seed        int64
	logger      logger.Logger
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		iterations:  DefaultIterations,
		repetitions: DefaultRepetitions,
		stepBudget:  DefaultStepBudget,
		timeout:     DefaultTimeout,
		logger:      logger.Get().Named("sandbox"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Iterations returns the default rounds per game.
func (e *Engine) Iterations() int {
	return e.iterations
}

// Run executes source to completion or failure. It never panics on script
// behavior and never returns a nil Result.
func (e *Engine) Run(ctx context.Context, source string) Outcome {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Outcome{Err: fmt.Errorf("run cancelled: %w", err)}
	}
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	seed := uint64(e.seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))
	random := newRandomModule(rng)

	var (
		out       strings.Builder
		exhausted bool
	)
	bridge := NewBridge()
	h := &host{bridge: bridge, iterations: e.iterations, repetitions: e.repetitions}
	thread := &starlark.Thread{
		Name:  "tournament",
		Print: func(_ *starlark.Thread, msg string) { out.WriteString(msg); out.WriteByte('\n') },
		Load:  loader(random),
		OnMaxSteps: func(t *starlark.Thread) {
			exhausted = true
			t.Cancel(ErrResourceLimit.Error())
		},
	}
	thread.SetMaxExecutionSteps(e.stepBudget)
	thread.SetLocal(localContext, runCtx)
	stop := context.AfterFunc(runCtx, func() { thread.Cancel(runCtx.Err().Error()) })
	defer stop()

	_, err := starlark.ExecFileOptions(fileOptions, thread, scriptFilename, source, h.globals(random))

	o := Outcome{
		Output:   out.String(),
		Steps:    thread.ExecutionSteps(),
		Duration: time.Since(start),
	}
	if rec, dropped := bridge.Abort(); dropped && err == nil {
		e.logger.Warn(ctx, "game never ended, dropped",
			logger.String("game", rec.GameName),
			logger.Int("rounds", rec.Rounds()),
		)
	}
	o.Result = bridge.Result()
	if err != nil {
		o.Err = e.classify(ctx, runCtx, err, exhausted, o.Steps)
		var ev *starlark.EvalError
		if errors.As(err, &ev) && !exhausted && !errors.Is(o.Err, ErrRunTimeout) && !errors.Is(o.Err, context.Canceled) {
			o.Trace = ev.Backtrace()
		}
	}

	e.logger.Debug(ctx, "run finished",
		logger.String("outcome", o.Kind()),
		logger.Int("games", o.Result.Len()),
		logger.Uint64("steps", o.Steps),
		logger.Duration("duration", o.Duration),
	)
	return o
}

func (e *Engine) classify(ctx, runCtx context.Context, err error, exhausted bool, steps uint64) error {
	var im *InvalidMoveError
	switch {
	case exhausted:
		return &ResourceLimitError{Budget: e.stepBudget, Steps: steps}
	case ctx.Err() != nil:
		return fmt.Errorf("run cancelled: %w", ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrRunTimeout, e.timeout)
	case errors.As(err, &im):
		return im
	case errors.Is(err, ErrNoActiveSession):
		return ErrNoActiveSession
	case errors.Is(err, ErrSessionAlreadyOpen):
		return ErrSessionAlreadyOpen
	}
	return &ScriptError{Msg: err.Error(), Err: err}
}

// loader serves the modules a script may load.
func loader(random *starlarkstruct.Module) func(*starlark.Thread, string) (starlark.StringDict, error) {
	modules := map[string]starlark.StringDict{
		"random": random.Members,
		"math":   starlarkmath.Module.Members,
		"json":   starlarkjson.Module.Members,
	}
	return func(_ *starlark.Thread, name string) (starlark.StringDict, error) {
		if m, ok := modules[strings.TrimSuffix(name, ".star")]; ok {
			return m, nil
		}
		return nil, fmt.Errorf("module %q not found (available: random, math, json)", name)
	}
}
