package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nebulous-ladder/internal/config"
	"nebulous-ladder/internal/constants"
	"nebulous-ladder/internal/domain"
	"nebulous-ladder/internal/ladder"
	"nebulous-ladder/internal/rating"
)

// Exporter writes the JSON artifacts the static frontend renders from:
// leaderboard, match history and the rank histogram. The artifacts are
// independent, so they are written concurrently; all of them are read-only
// views over the fold's output.
type Exporter struct {
	outputDir string
	logger    zerolog.Logger
}

func NewExporter(cfg *config.Config, logger zerolog.Logger) *Exporter {
	return &Exporter{outputDir: cfg.OutputDir, logger: logger}
}

type leaderboardEntry struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	SteamName   string  `json:"steam_name"`
	DLO         float64 `json:"dlo"`
	Mu          float64 `json:"mu"`
	Sigma       float64 `json:"sigma"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
}

type exportedMatch struct {
	PlayedAt     time.Time      `json:"played_at"`
	WinningTeam  string         `json:"winning_team"`
	AvgDLO       float64        `json:"avg_dlo"`
	MatchQuality float64        `json:"match_quality"`
	Teams        []exportedTeam `json:"teams"`
}

type exportedTeam struct {
	ID      string             `json:"id"`
	Players []exportedRosterer `json:"players"`
}

type exportedRosterer struct {
	PlayerID  string `json:"player_id"`
	SteamName string `json:"steam_name"`
	Faction   string `json:"faction"`
}

func (e *Exporter) Export(ctx context.Context, db *ladder.Database, matches []*domain.MatchRecord, histogram ladder.Histogram) error {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExportTimeout)
	defer cancel()

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.writeJSON("leaderboard.json", e.leaderboard(db))
	})
	g.Go(func() error {
		return e.writeJSON("match_history.json", exportMatches(matches))
	})
	g.Go(func() error {
		return e.writeJSON("rank_histogram.json", histogram)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("export artifacts: %w", err)
	}

	e.logger.Info().Str("dir", e.outputDir).Msg("artifacts exported")
	return nil
}

func (e *Exporter) leaderboard(db *ladder.Database) []leaderboardEntry {
	players := db.Players()

	entries := make([]leaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, leaderboardEntry{
			PlayerID:    p.PlayerID,
			SteamName:   p.SteamName,
			DLO:         rating.Ordinal(p.Rating),
			Mu:          p.Rating.Mu,
			Sigma:       p.Rating.Sigma,
			GamesPlayed: p.GamesPlayed,
			Wins:        p.Wins,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DLO > entries[j].DLO
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func exportMatches(matches []*domain.MatchRecord) []exportedMatch {
	out := make([]exportedMatch, 0, len(matches))
	for _, m := range matches {
		em := exportedMatch{
			PlayedAt:     m.PlayedAt,
			WinningTeam:  m.WinningTeam,
			AvgDLO:       m.AvgDLO,
			MatchQuality: m.MatchQuality,
		}
		for _, t := range m.Teams {
			et := exportedTeam{ID: t.ID}
			for _, p := range t.Players {
				et.Players = append(et.Players, exportedRosterer{
					PlayerID:  p.PlayerID,
					SteamName: p.SteamName,
					Faction:   string(p.Faction),
				})
			}
			em.Teams = append(em.Teams, et)
		}
		out = append(out, em)
	}
	return out
}

func (e *Exporter) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(e.outputDir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	e.logger.Debug().Str("path", path).Msg("artifact written")
	return nil
}
