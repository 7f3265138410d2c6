package model

import "encoding/json"

// GameRecord is the outcome of one game between two strategies.
// len(MovesA) == len(MovesB) at every observation point.
type GameRecord struct {
	GameName string `json:"gameName"`
	NameA    string `json:"nameA"`
	NameB    string `json:"nameB"`
	MovesA   []Move `json:"movesA"`
	MovesB   []Move `json:"movesB"`
	ScoreA   int    `json:"scoreA"`
	ScoreB   int    `json:"scoreB"`
}

// GameName formats the display name of a pairing.
func GameName(nameA, nameB string) string {
	return nameA + " vs " + nameB
}

// Rounds returns the number of completed rounds.
func (g GameRecord) Rounds() int {
	return len(g.MovesA)
}

// Clone returns a deep copy so callers cannot alias move histories.
func (g GameRecord) Clone() GameRecord {
	c := g
	c.MovesA = append([]Move(nil), g.MovesA...)
	c.MovesB = append([]Move(nil), g.MovesB...)
	return c
}

// TournamentResult is the ordered, append-only list of games from one
// scheduler pass.
type TournamentResult struct {
	games []GameRecord
}

// NewTournamentResult builds a result from already closed games.
func NewTournamentResult(games ...GameRecord) TournamentResult {
	var r TournamentResult
	for _, g := range games {
		r.Append(g)
	}
	return r
}

// Append adds a closed game. Stored records are never mutated afterwards.
func (r *TournamentResult) Append(g GameRecord) {
	r.games = append(r.games, g.Clone())
}

// Len returns the number of games.
func (r TournamentResult) Len() int {
	return len(r.games)
}

// Games returns a copy of the games in play order.
func (r TournamentResult) Games() []GameRecord {
	out := make([]GameRecord, len(r.games))
	for i, g := range r.games {
		out[i] = g.Clone()
	}
	return out
}

// Each visits games in play order without copying them. fn must not retain
// or modify the move slices.
func (r TournamentResult) Each(fn func(i int, g GameRecord)) {
	for i, g := range r.games {
		fn(i, g)
	}
}

// MarshalJSON encodes the result as a JSON array of games.
func (r TournamentResult) MarshalJSON() ([]byte, error) {
	if r.games == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.games)
}

// UnmarshalJSON decodes a JSON array of games.
func (r *TournamentResult) UnmarshalJSON(b []byte) error {
	var games []GameRecord
	if err := json.Unmarshal(b, &games); err != nil {
		return err
	}
	r.games = games
	return nil
}
