// Package strategy defines the player capability and the built-in bots used
// as sparring partners.
package strategy

import (
	"github.com/okian/dilemma/internal/domain/model"
)

// Strategy chooses the next move from its own history and the opponent's.
// Implementations may keep state; a fresh instance is created per game.
type Strategy interface {
	Play(own, opp []model.Move) (model.Move, error)
}

// Factory creates fresh strategy instances under a stable name.
type Factory interface {
	Name() string
	New() (Strategy, error)
}

// PlayFunc adapts a function to Strategy.
type PlayFunc func(own, opp []model.Move) (model.Move, error)

// Play calls f.
func (f PlayFunc) Play(own, opp []model.Move) (model.Move, error) {
	return f(own, opp)
}

type funcFactory struct {
	name  string
	build func() (Strategy, error)
}

func (f funcFactory) Name() string            { return f.name }
func (f funcFactory) New() (Strategy, error) { return f.build() }

// NewFactory returns a Factory calling build for every game.
func NewFactory(name string, build func() (Strategy, error)) Factory {
	return funcFactory{name: name, build: build}
}

// Stateless wraps a pure decision function as a Factory.
func Stateless(name string, play func(own, opp []model.Move) model.Move) Factory {
	return NewFactory(name, func() (Strategy, error) {
		return PlayFunc(func(own, opp []model.Move) (model.Move, error) {
			return play(own, opp), nil
		}), nil
	})
}

// Names lists factory names in order.
func Names(factories []Factory) []string {
	out := make([]string, len(factories))
	for i, f := range factories {
		out[i] = f.Name()
	}
	return out
}
