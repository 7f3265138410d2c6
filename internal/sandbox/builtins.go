package sandbox

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/strategy"
	"github.com/okian/dilemma/internal/domain/tournament"
)

// Names injected into every script.
const (
	globalStartGame     = "builtin_start_game"
	globalReportMove    = "builtin_report_move"
	globalEndGame       = "builtin_end_game"
	globalRunTournament = "run_tournament"
	globalIterations    = "ITERATIONS"
	globalRandom        = "random"

	localContext = "dilemma.context"
)

// host binds the script-facing callbacks of one run to its bridge.
type host struct {
	bridge      *Bridge
	iterations  int
	repetitions int
}

func (h *host) globals(random starlark.Value) starlark.StringDict {
	return starlark.StringDict{
		model.CooperateToken: starlark.String(model.CooperateToken),
		model.DefectToken:    starlark.String(model.DefectToken),
		globalIterations:     starlark.MakeInt(h.iterations),
		globalRandom:         random,
		globalStartGame:      starlark.NewBuiltin(globalStartGame, h.startGame),
		globalReportMove:     starlark.NewBuiltin(globalReportMove, h.reportMove),
		globalEndGame:        starlark.NewBuiltin(globalEndGame, h.endGame),
		globalRunTournament:  starlark.NewBuiltin(globalRunTournament, h.runTournament),
	}
}

func (h *host) startGame(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var a, o starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &a, &o); err != nil {
		return nil, err
	}
	if err := h.bridge.StartGame(botName(a), botName(o)); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (h *host) reportMove(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var a, o starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &a, &o); err != nil {
		return nil, err
	}
	ta, err := moveToken(a)
	if err != nil {
		return nil, err
	}
	to, err := moveToken(o)
	if err != nil {
		return nil, err
	}
	if err := h.bridge.ReportMoveTokens(ta, to); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (h *host) endGame(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	if _, err := h.bridge.EndGame(); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// runTournament implements run_tournament(bots, rounds, iterations=ITERATIONS).
// rounds defaults to the engine repetitions.
func (h *host) runTournament(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var bots starlark.Iterable
	rounds, iterations := max(h.repetitions, 1), h.iterations
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "bots", &bots, "rounds?", &rounds, "iterations?", &iterations); err != nil {
		return nil, err
	}

	var factories []strategy.Factory
	seen := map[string]bool{}
	iter := bots.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		f, err := newScriptFactory(thread, v)
		if err != nil {
			return nil, err
		}
		// results are keyed by name, so two bots sharing one would merge
		if seen[f.Name()] {
			return nil, fmt.Errorf("%s: more than one bot is named %s; every bot needs a unique name",
				globalRunTournament, f.Name())
		}
		seen[f.Name()] = true
		factories = append(factories, f)
	}

	ctx, ok := thread.Local(localContext).(context.Context)
	if !ok {
		ctx = context.Background()
	}
	s := &tournament.Scheduler{Iterations: iterations, Reporter: h.bridge}
	if _, err := s.Run(ctx, factories, rounds); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// scriptFactory adapts a script function to strategy.Factory. A function of
// two parameters is the play function itself; a function of none builds one
// per game so state can live in its closure.
type scriptFactory struct {
	thread  *starlark.Thread
	name    string
	fn      *starlark.Function
	factory bool
}

func newScriptFactory(thread *starlark.Thread, v starlark.Value) (strategy.Factory, error) {
	fn, ok := v.(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("%s: bots must be functions, got %s", globalRunTournament, v.Type())
	}
	switch fn.NumParams() {
	case 0:
		return &scriptFactory{thread: thread, name: fn.Name(), fn: fn, factory: true}, nil
	case 2:
		return &scriptFactory{thread: thread, name: fn.Name(), fn: fn}, nil
	}
	return nil, fmt.Errorf("%s: bot %s must take (our_moves, their_moves) or no arguments, it takes %d",
		globalRunTournament, fn.Name(), fn.NumParams())
}

func (f *scriptFactory) Name() string { return f.name }

func (f *scriptFactory) New() (strategy.Strategy, error) {
	if !f.factory {
		return &scriptStrategy{thread: f.thread, name: f.name, play: f.fn}, nil
	}
	v, err := starlark.Call(f.thread, f.fn, nil, nil)
	if err != nil {
		return nil, err
	}
	play, err := playable(f.name, v)
	if err != nil {
		return nil, err
	}
	return &scriptStrategy{thread: f.thread, name: f.name, play: play}, nil
}

// playable accepts a callable or a value with a callable play attribute.
func playable(name string, v starlark.Value) (starlark.Callable, error) {
	if c, ok := v.(starlark.Callable); ok {
		return c, nil
	}
	if ha, ok := v.(starlark.HasAttrs); ok {
		attr, err := ha.Attr("play")
		if err == nil && attr != nil {
			if c, ok := attr.(starlark.Callable); ok {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%s() must return a play function, got %s", name, v.Type())
}

type scriptStrategy struct {
	thread *starlark.Thread
	name   string
	play   starlark.Callable
}

func (s *scriptStrategy) Play(own, opp []model.Move) (model.Move, error) {
	v, err := starlark.Call(s.thread, s.play, starlark.Tuple{history(own), history(opp)}, nil)
	if err != nil {
		return 0, err
	}
	tok, err := moveToken(v)
	if err != nil {
		return 0, err
	}
	m, err := model.ParseMove(tok)
	if err != nil {
		return 0, &InvalidMoveError{Token: tok}
	}
	return m, nil
}

// history hands a script its own copy of a move list.
func history(moves []model.Move) *starlark.List {
	elems := make([]starlark.Value, len(moves))
	for i, m := range moves {
		elems[i] = starlark.String(m.String())
	}
	return starlark.NewList(elems)
}

func moveToken(v starlark.Value) (string, error) {
	s, ok := starlark.AsString(v)
	if !ok {
		return "", &InvalidMoveError{Token: v.String()}
	}
	return s, nil
}

func botName(v starlark.Value) string {
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	if n, ok := v.(interface{ Name() string }); ok {
		return n.Name()
	}
	return v.String()
}
