package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"nebulous-ladder/internal/domain"
	"nebulous-ladder/internal/rating"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(db *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: db, logger: logger}
}

// ReplaceAll rebuilds the players and teammates tables from one run's
// database. The ladder is refolded from raw reports every run, so the
// previous snapshot is dropped wholesale inside the same transaction.
func (r *PlayerRepository) ReplaceAll(ctx context.Context, players []*domain.PlayerRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM teammates"); err != nil {
		return fmt.Errorf("clear teammates: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM players"); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}

	now := time.Now()
	for _, p := range players {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO players (
				player_id, steam_name, mu, sigma, ordinal,
				games_played, wins, ans_games, ans_wins, osp_games, osp_wins,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.PlayerID, p.SteamName, p.Rating.Mu, p.Rating.Sigma, rating.Ordinal(p.Rating),
			p.GamesPlayed, p.Wins, p.ANSGames, p.ANSWins, p.OSPGames, p.OSPWins,
			now, now,
		)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.PlayerID, err)
		}

		// sorted for a stable row order across identical runs
		mates := make([]string, 0, len(p.Teammates))
		for id := range p.Teammates {
			mates = append(mates, id)
		}
		sort.Strings(mates)

		for _, mateID := range mates {
			stats := p.Teammates[mateID]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO teammates (player_id, teammate_id, games, wins)
				VALUES (?, ?, ?, ?)`,
				p.PlayerID, mateID, stats.Games, stats.Wins,
			)
			if err != nil {
				return fmt.Errorf("insert teammate row %s/%s: %w", p.PlayerID, mateID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit players: %w", err)
	}

	r.logger.Debug().Int("players", len(players)).Msg("player snapshot written")
	return nil
}

// Leaderboard returns all players ordered by ordinal descending. History
// and teammate maps are not populated.
func (r *PlayerRepository) Leaderboard(ctx context.Context) ([]domain.PlayerRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, steam_name, mu, sigma,
		       games_played, wins, ans_games, ans_wins, osp_games, osp_wins
		FROM players
		ORDER BY ordinal DESC, player_id`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var players []domain.PlayerRecord
	for rows.Next() {
		var p domain.PlayerRecord
		err := rows.Scan(
			&p.PlayerID, &p.SteamName, &p.Rating.Mu, &p.Rating.Sigma,
			&p.GamesPlayed, &p.Wins, &p.ANSGames, &p.ANSWins, &p.OSPGames, &p.OSPWins,
		)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Get returns one player with their teammate map populated.
func (r *PlayerRepository) Get(ctx context.Context, playerID string) (*domain.PlayerRecord, error) {
	var p domain.PlayerRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT player_id, steam_name, mu, sigma,
		       games_played, wins, ans_games, ans_wins, osp_games, osp_wins
		FROM players WHERE player_id = ?`, playerID,
	).Scan(
		&p.PlayerID, &p.SteamName, &p.Rating.Mu, &p.Rating.Sigma,
		&p.GamesPlayed, &p.Wins, &p.ANSGames, &p.ANSWins, &p.OSPGames, &p.OSPWins,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT teammate_id, games, wins FROM teammates WHERE player_id = ?`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query teammates: %w", err)
	}
	defer rows.Close()

	p.Teammates = make(map[string]*domain.TeammateStats)
	for rows.Next() {
		var mateID string
		var stats domain.TeammateStats
		if err := rows.Scan(&mateID, &stats.Games, &stats.Wins); err != nil {
			return nil, fmt.Errorf("scan teammate: %w", err)
		}
		p.Teammates[mateID] = &stats
	}
	return &p, rows.Err()
}
