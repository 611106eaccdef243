package repository

import (
	"context"
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"nebulous-ladder/internal/domain"
)

type HistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewHistoryRepository(db *sql.DB, logger zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// ReplaceAll rebuilds the rating_history table from every player's time
// series. seq is the position within the player's own history, so the
// series reads back in append order.
func (r *HistoryRepository) ReplaceAll(ctx context.Context, players []*domain.PlayerRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rating_history"); err != nil {
		return fmt.Errorf("clear rating history: %w", err)
	}

	var total int
	for _, p := range players {
		for seq, entry := range p.History {
			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("generate nanoid: %w", err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO rating_history (id, player_id, seq, played_at, ordinal)
				VALUES (?, ?, ?, ?, ?)`,
				id, p.PlayerID, seq, entry.PlayedAt, entry.Ordinal,
			)
			if err != nil {
				return fmt.Errorf("insert history row for %s: %w", p.PlayerID, err)
			}
			total++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rating history: %w", err)
	}

	r.logger.Debug().Int("rows", total).Msg("rating history written")
	return nil
}

// ForPlayer returns a player's rating time series in append order.
func (r *HistoryRepository) ForPlayer(ctx context.Context, playerID string) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT played_at, ordinal FROM rating_history
		WHERE player_id = ? ORDER BY seq`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query rating history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.PlayedAt, &e.Ordinal); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
