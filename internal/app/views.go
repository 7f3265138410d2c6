package service

import (
	"context"

	"github.com/okian/dilemma/internal/domain/types"
	"github.com/okian/dilemma/internal/livesync"
)

// Scoreboard returns the ranked standings of the last good run.
func (s *Service) Scoreboard() []types.Standing {
	return types.Scoreboard(s.Display().LastGood)
}

// CrossTable returns the mean-score matrix of the last good run.
func (s *Service) CrossTable() types.CrossTable {
	return types.NewCrossTable(s.Display().LastGood)
}

// Games returns the games of the last good run in play order.
func (s *Service) Games() []types.Game {
	return types.Games(s.Display().GoodResult)
}

// LastRun returns the most recent finished run.
func (s *Service) LastRun() (types.Run, error) {
	d := s.Display()
	if !d.HasRun {
		return types.Run{}, ErrNoRuns
	}
	return d.LastRun, nil
}

// SyncState returns a snapshot of the synchronization controller.
func (s *Service) SyncState() (livesync.State, error) {
	c, err := s.Sync()
	if err != nil {
		return livesync.State{}, err
	}
	return c.State(), nil
}

// Reconnect drops and re-dials the coordinator connection.
func (s *Service) Reconnect(ctx context.Context) error {
	c, err := s.Sync()
	if err != nil {
		return err
	}
	return c.Reconnect(ctx)
}

// FetchMerged asks the coordinator for the merged source. A changed document
// is run when the reply arrives.
func (s *Service) FetchMerged(ctx context.Context) error {
	c, err := s.Sync()
	if err != nil {
		return err
	}
	return c.Get(ctx)
}

// Submit sends the current editor source to slot position.
func (s *Service) Submit(ctx context.Context, position int) error {
	c, err := s.Sync()
	if err != nil {
		return err
	}
	code, err := s.Source()
	if err != nil {
		return err
	}
	return c.Submit(ctx, position, code)
}

// SetStreaming toggles periodic fetching for the privileged identity.
func (s *Service) SetStreaming(identity string, on bool) error {
	c, err := s.Sync()
	if err != nil {
		return err
	}
	return c.SetStreaming(identity, on)
}
