// Package tournament drives round-robin passes over a set of strategies.
package tournament

import (
	"context"
	"fmt"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/session"
	"github.com/okian/dilemma/internal/domain/strategy"
)

// Reporter receives game activity. The sandbox bridge implements it so that
// scheduled games and script-driven games share one mutation path.
type Reporter interface {
	StartGame(nameA, nameB string) error
	ReportMove(a, b model.Move) error
	EndGame() (model.GameRecord, error)
}

// Pairing is one scheduled game.
type Pairing struct {
	A, B       int
	Repetition int
}

// Pairings enumerates the n*n*r ordered games: A outer, B inner, repetition
// innermost. Self-pairs are included.
func Pairings(n, r int) []Pairing {
	if n <= 0 || r <= 0 {
		return nil
	}
	out := make([]Pairing, 0, n*n*r)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			for rep := 0; rep < r; rep++ {
				out = append(out, Pairing{A: a, B: b, Repetition: rep})
			}
		}
	}
	return out
}

// Scheduler plays every ordered pairing sequentially.
type Scheduler struct {
	Iterations int
	// Reporter is optional; without one the scheduler records games itself.
	Reporter Reporter
	// OnGame is called after each closed game.
	OnGame func(model.GameRecord)
}

// Run plays len(factories)^2 * repetitions games. On the first failure it
// stops and returns the games closed so far together with the error.
func (s *Scheduler) Run(ctx context.Context, factories []strategy.Factory, repetitions int) (model.TournamentResult, error) {
	var result model.TournamentResult
	switch {
	case len(factories) == 0:
		return result, ErrNoStrategies
	case s.Iterations <= 0:
		return result, ErrInvalidIterations
	case repetitions <= 0:
		return result, ErrInvalidRepetitions
	}

	reporter := s.Reporter
	if reporter == nil {
		reporter = &localReporter{}
	}

	for _, p := range Pairings(len(factories), repetitions) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := s.play(ctx, reporter, factories[p.A], factories[p.B])
		if err != nil {
			return result, err
		}
		result.Append(rec)
		if s.OnGame != nil {
			s.OnGame(rec)
		}
	}
	return result, nil
}

func (s *Scheduler) play(ctx context.Context, r Reporter, fa, fb strategy.Factory) (model.GameRecord, error) {
	a, err := fa.New()
	if err != nil {
		return model.GameRecord{}, fmt.Errorf("create %s: %w", fa.Name(), err)
	}
	b, err := fb.New()
	if err != nil {
		return model.GameRecord{}, fmt.Errorf("create %s: %w", fb.Name(), err)
	}
	if err := r.StartGame(fa.Name(), fb.Name()); err != nil {
		return model.GameRecord{}, err
	}

	histA := make([]model.Move, 0, s.Iterations)
	histB := make([]model.Move, 0, s.Iterations)
	for round := 0; round < s.Iterations; round++ {
		if err := ctx.Err(); err != nil {
			return model.GameRecord{}, err
		}
		ma, err := a.Play(histA, histB)
		if err != nil {
			return model.GameRecord{}, fmt.Errorf("%s round %d: %w", fa.Name(), round+1, err)
		}
		mb, err := b.Play(histB, histA)
		if err != nil {
			return model.GameRecord{}, fmt.Errorf("%s round %d: %w", fb.Name(), round+1, err)
		}
		if err := r.ReportMove(ma, mb); err != nil {
			return model.GameRecord{}, err
		}
		histA = append(histA, ma)
		histB = append(histB, mb)
	}
	return r.EndGame()
}

// localReporter backs a scheduler that runs outside the sandbox.
type localReporter struct {
	current *session.Session
}

func (l *localReporter) StartGame(nameA, nameB string) error {
	l.current = session.Open(nameA, nameB)
	return nil
}

func (l *localReporter) ReportMove(a, b model.Move) error {
	return l.current.Record(a, b)
}

func (l *localReporter) EndGame() (model.GameRecord, error) {
	rec := l.current.Close()
	l.current = nil
	return rec, nil
}
