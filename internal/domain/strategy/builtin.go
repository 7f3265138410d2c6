package strategy

import (
	"slices"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/okian/dilemma/internal/domain/model"
)

// retaliateWindow is how far back RetaliateBot looks for a defection.
const retaliateWindow = 3

// CooperateBot always cooperates.
func CooperateBot() Factory {
	return Stateless("CooperateBot", func(_, _ []model.Move) model.Move {
		return model.Cooperate
	})
}

// DefectBot always defects.
func DefectBot() Factory {
	return Stateless("DefectBot", func(_, _ []model.Move) model.Move {
		return model.Defect
	})
}

// TitForTatBot cooperates first, then repeats the opponent's last move.
func TitForTatBot() Factory {
	return Stateless("TitForTatBot", func(_, opp []model.Move) model.Move {
		if len(opp) == 0 {
			return model.Cooperate
		}
		return opp[len(opp)-1]
	})
}

// RetaliateBot defects if the opponent defected in its last three moves.
func RetaliateBot() Factory {
	return Stateless("RetaliateBot", func(_, opp []model.Move) model.Move {
		recent := opp[max(0, len(opp)-retaliateWindow):]
		if slices.Contains(recent, model.Defect) {
			return model.Defect
		}
		return model.Cooperate
	})
}

// RandomBot defects one third of the time. Instances share src.
func RandomBot(src *rand.Rand) Factory {
	var mu sync.Mutex
	return Stateless("RandomBot", func(_, _ []model.Move) model.Move {
		mu.Lock()
		n := src.Intn(3)
		mu.Unlock()
		if n == 0 {
			return model.Defect
		}
		return model.Cooperate
	})
}

// Builtins returns the sparring bots in their classroom order.
func Builtins(seed uint64) []Factory {
	return []Factory{
		CooperateBot(),
		RandomBot(rand.New(rand.NewSource(seed))),
		RetaliateBot(),
		TitForTatBot(),
	}
}

// Lookup finds a built-in by name.
func Lookup(name string, seed uint64) (Factory, bool) {
	all := append(Builtins(seed), DefectBot())
	for _, f := range all {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}
