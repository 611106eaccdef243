package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"nebulous-ladder/internal/domain"
)

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(db *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: db, logger: logger}
}

// StoredMatch is a persisted match with its full roster.
type StoredMatch struct {
	ID           string
	PlayedAt     time.Time
	WinningTeam  string
	AvgDLO       float64
	MatchQuality float64
	Roster       []StoredRosterEntry
}

type StoredRosterEntry struct {
	PlayerID  string
	SteamName string
	TeamID    string
	Faction   domain.Faction
	Won       bool
}

// ReplaceAll rebuilds the matches and match_players tables from the run's
// match history, in processing order.
func (r *MatchRepository) ReplaceAll(ctx context.Context, matches []*domain.MatchRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM match_players"); err != nil {
		return fmt.Errorf("clear match players: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM matches"); err != nil {
		return fmt.Errorf("clear matches: %w", err)
	}

	for seq, m := range matches {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generate nanoid: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO matches (id, seq, played_at, winning_team, avg_dlo, match_quality)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, seq, m.PlayedAt, m.WinningTeam, m.AvgDLO, m.MatchQuality,
		)
		if err != nil {
			return fmt.Errorf("insert match %d: %w", seq, err)
		}

		for _, team := range m.Teams {
			for _, entry := range team.Players {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO match_players (match_id, player_id, steam_name, team_id, faction, won)
					VALUES (?, ?, ?, ?, ?, ?)`,
					id, entry.PlayerID, entry.SteamName, team.ID, string(entry.Faction), team.ID == m.WinningTeam,
				)
				if err != nil {
					return fmt.Errorf("insert roster entry %s: %w", entry.PlayerID, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit matches: %w", err)
	}

	r.logger.Debug().Int("matches", len(matches)).Msg("match history written")
	return nil
}

// List returns up to limit matches in processing order with rosters
// attached.
func (r *MatchRepository) List(ctx context.Context, limit int) ([]StoredMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, played_at, winning_team, avg_dlo, match_quality
		FROM matches ORDER BY seq LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []StoredMatch
	index := make(map[string]int)
	for rows.Next() {
		var m StoredMatch
		if err := rows.Scan(&m.ID, &m.PlayedAt, &m.WinningTeam, &m.AvgDLO, &m.MatchQuality); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		index[m.ID] = len(matches)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	playerRows, err := r.db.QueryContext(ctx, `
		SELECT mp.match_id, mp.player_id, mp.steam_name, mp.team_id, mp.faction, mp.won
		FROM match_players mp
		JOIN matches m ON m.id = mp.match_id
		ORDER BY m.seq, mp.team_id, mp.player_id`)
	if err != nil {
		return nil, fmt.Errorf("query match players: %w", err)
	}
	defer playerRows.Close()

	for playerRows.Next() {
		var matchID, faction string
		var e StoredRosterEntry
		if err := playerRows.Scan(&matchID, &e.PlayerID, &e.SteamName, &e.TeamID, &faction, &e.Won); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		e.Faction = domain.Faction(faction)
		if i, ok := index[matchID]; ok {
			matches[i].Roster = append(matches[i].Roster, e)
		}
	}
	return matches, playerRows.Err()
}
