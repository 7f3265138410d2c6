// Package aggregate folds a tournament result into a scoreboard, a cross
// table and a ranking. Everything is recomputed from the full result.
package aggregate

import (
	"sort"

	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/domain/scoring"
)

// Standing is one scoreboard row.
type Standing struct {
	Name    string  `json:"name"`
	Total   int     `json:"total"`
	Games   int     `json:"games"`
	Average float64 `json:"average"`
	// HasData is false when the player never completed a game.
	HasData bool `json:"hasData"`
}

// Pair keys a cross table cell by row and column player.
type Pair struct {
	Row, Col string
}

// Cell is the mean score Row achieved against Col.
type Cell struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
	// Heat is Mean mapped onto [0, 1] for display.
	Heat float64 `json:"heat"`
}

// Summary is the display-ready view of one result.
type Summary struct {
	Iterations int           `json:"iterations"`
	Games      int           `json:"games"`
	Scoreboard []Standing    `json:"scoreboard"`
	Players    []string      `json:"players"`
	Cross      map[Pair]Cell `json:"-"`
}

// Compute derives a Summary. The same input always yields the same output.
func Compute(result model.TournamentResult, iterations int) Summary {
	type acc struct {
		total, games int
	}
	players := map[string]*acc{}
	var discovery []string
	seen := func(name string) *acc {
		a, ok := players[name]
		if !ok {
			a = &acc{}
			players[name] = a
			discovery = append(discovery, name)
		}
		return a
	}

	type sum struct{ total, count int }
	cross := map[Pair]*sum{}
	add := func(row, col string, score int) {
		k := Pair{Row: row, Col: col}
		s, ok := cross[k]
		if !ok {
			s = &sum{}
			cross[k] = s
		}
		s.total += score
		s.count++
	}

	result.Each(func(_ int, g model.GameRecord) {
		// each side counts on its own, so a self-pair contributes two entries
		for _, side := range [2]struct {
			name, opp string
			score     int
		}{{g.NameA, g.NameB, g.ScoreA}, {g.NameB, g.NameA, g.ScoreB}} {
			a := seen(side.name)
			a.total += side.score
			a.games++
			add(side.name, side.opp, side.score)
		}
	})

	board := make([]Standing, 0, len(discovery))
	for _, name := range discovery {
		a := players[name]
		st := Standing{Name: name, Total: a.total, Games: a.games}
		if a.games > 0 {
			st.HasData = true
			st.Average = float64(a.total) / float64(a.games)
		}
		board = append(board, st)
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Average > board[j].Average
	})

	ranked := make([]string, len(board))
	for i, st := range board {
		ranked[i] = st.Name
	}

	cells := make(map[Pair]Cell, len(cross))
	for k, s := range cross {
		mean := float64(s.total) / float64(s.count)
		cells[k] = Cell{Mean: mean, Count: s.count, Heat: Heat(mean, iterations)}
	}

	return Summary{
		Iterations: iterations,
		Games:      result.Len(),
		Scoreboard: board,
		Players:    ranked,
		Cross:      cells,
	}
}

// Heat maps a per-game mean onto [0, 1] relative to the range a player can
// reach in a game of the given length.
func Heat(mean float64, iterations int) float64 {
	lo, hi := scoring.Bounds(iterations)
	if hi <= lo {
		return 0
	}
	h := (mean - float64(lo)) / float64(hi-lo)
	switch {
	case h < 0:
		return 0
	case h > 1:
		return 1
	}
	return h
}

// Cell returns the cross table value for (row, col), if the pair played.
func (s Summary) Cell(row, col string) (Cell, bool) {
	c, ok := s.Cross[Pair{Row: row, Col: col}]
	return c, ok
}

// Standing returns the scoreboard row for name.
func (s Summary) Standing(name string) (Standing, bool) {
	for _, st := range s.Scoreboard {
		if st.Name == name {
			return st, true
		}
	}
	return Standing{}, false
}

// Empty reports whether the summary holds no games.
func (s Summary) Empty() bool {
	return s.Games == 0
}

// CrossRow is one cross table row in ranking order. A nil cell marks a pair
// that never played.
type CrossRow struct {
	Player string  `json:"player"`
	Cells  []*Cell `json:"cells"`
}

// Table lays the cross table out as rows and columns in ranking order.
func (s Summary) Table() []CrossRow {
	rows := make([]CrossRow, 0, len(s.Players))
	for _, row := range s.Players {
		r := CrossRow{Player: row, Cells: make([]*Cell, len(s.Players))}
		for i, col := range s.Players {
			if c, ok := s.Cell(row, col); ok {
				r.Cells[i] = &c
			}
		}
		rows = append(rows, r)
	}
	return rows
}
