package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nebulous-ladder/internal/constants"
	"nebulous-ladder/internal/domain"
	"nebulous-ladder/internal/ladder"
	"nebulous-ladder/internal/repository"
)

// SnapshotService persists one run's final database and match history to
// sqlite for the reporting layer and the snapshot API. It only ever reads
// the fold's output.
type SnapshotService struct {
	players *repository.PlayerRepository
	history *repository.HistoryRepository
	matches *repository.MatchRepository
	logger  zerolog.Logger
}

func NewSnapshotService(
	players *repository.PlayerRepository,
	history *repository.HistoryRepository,
	matches *repository.MatchRepository,
	logger zerolog.Logger,
) *SnapshotService {
	return &SnapshotService{players: players, history: history, matches: matches, logger: logger}
}

func (s *SnapshotService) Persist(ctx context.Context, db *ladder.Database, matches []*domain.MatchRecord) error {
	ctx, cancel := context.WithTimeout(ctx, constants.SnapshotTimeout)
	defer cancel()

	players := db.Players()

	// sqlite has a single writer, so the three rebuilds run sequentially
	if err := s.players.ReplaceAll(ctx, players); err != nil {
		return fmt.Errorf("persist players: %w", err)
	}
	if err := s.history.ReplaceAll(ctx, players); err != nil {
		return fmt.Errorf("persist rating history: %w", err)
	}
	if err := s.matches.ReplaceAll(ctx, matches); err != nil {
		return fmt.Errorf("persist matches: %w", err)
	}

	s.logger.Info().
		Int("players", len(players)).
		Int("matches", len(matches)).
		Msg("snapshot persisted")
	return nil
}
