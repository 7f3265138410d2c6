// Package types contains the read shapes shared by the service and the HTTP API.
package types

import (
	"strings"
	"time"

	"github.com/okian/dilemma/internal/domain/aggregate"
	"github.com/okian/dilemma/internal/domain/model"
)

// Standing is one scoreboard row.
type Standing struct {
	Rank    int     `json:"rank"`
	Name    string  `json:"name"`
	Total   int     `json:"total"`
	Games   int     `json:"games"`
	Average float64 `json:"average"`
}

// Scoreboard converts ranked standings into rows numbered from 1.
func Scoreboard(s aggregate.Summary) []Standing {
	out := make([]Standing, len(s.Scoreboard))
	for i, st := range s.Scoreboard {
		out[i] = Standing{
			Rank:    i + 1,
			Name:    st.Name,
			Total:   st.Total,
			Games:   st.Games,
			Average: st.Average,
		}
	}
	return out
}

// CrossCell is the mean score of a row player against a column player.
type CrossCell struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
	Heat  float64 `json:"heat"`
}

// CrossRow is one row of the cross table; nil cells never played.
type CrossRow struct {
	Player string       `json:"player"`
	Cells  []*CrossCell `json:"cells"`
}

// CrossTable is the square matrix of mean scores in rank order.
type CrossTable struct {
	Players []string   `json:"players"`
	Rows    []CrossRow `json:"rows"`
}

// NewCrossTable converts the aggregated cross table.
func NewCrossTable(s aggregate.Summary) CrossTable {
	t := CrossTable{Players: append([]string{}, s.Players...)}
	for _, row := range s.Table() {
		r := CrossRow{Player: row.Player, Cells: make([]*CrossCell, len(row.Cells))}
		for i, c := range row.Cells {
			if c != nil {
				r.Cells[i] = &CrossCell{Mean: c.Mean, Count: c.Count, Heat: c.Heat}
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

// Game is a played game with its moves as C/D strips.
type Game struct {
	Name   string `json:"name"`
	NameA  string `json:"nameA"`
	NameB  string `json:"nameB"`
	MovesA string `json:"movesA"`
	MovesB string `json:"movesB"`
	ScoreA int    `json:"scoreA"`
	ScoreB int    `json:"scoreB"`
}

// Games converts a tournament result in play order.
func Games(r model.TournamentResult) []Game {
	out := make([]Game, 0, r.Len())
	r.Each(func(_ int, g model.GameRecord) {
		out = append(out, Game{
			Name:   g.GameName,
			NameA:  g.NameA,
			NameB:  g.NameB,
			MovesA: Strip(g.MovesA),
			MovesB: Strip(g.MovesB),
			ScoreA: g.ScoreA,
			ScoreB: g.ScoreB,
		})
	})
	return out
}

// Strip renders moves as letters, e.g. "CCDC".
func Strip(moves []model.Move) string {
	var b strings.Builder
	b.Grow(len(moves))
	for _, m := range moves {
		b.WriteString(m.Letter())
	}
	return b.String()
}

// Run is the user-facing summary of one finished run.
type Run struct {
	ID         string        `json:"id"`
	Generation uint64        `json:"generation"`
	Reason     string        `json:"reason"`
	Outcome    string        `json:"outcome"`
	Output     string        `json:"output"`
	Error      string        `json:"error,omitempty"`
	Games      int           `json:"games"`
	Steps      uint64        `json:"steps"`
	Duration   time.Duration `json:"durationNs"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// OK reports whether the run finished without error.
func (r Run) OK() bool {
	return r.Error == ""
}

// Terminal renders the output pane: script output, then the error if any.
func (r Run) Terminal() string {
	if r.Error == "" {
		return r.Output
	}
	out := r.Output
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out + "\n" + r.Error
}
