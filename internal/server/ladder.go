package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"nebulous-ladder/internal/constants"
	"nebulous-ladder/internal/repository"
)

// LadderServer serves the persisted snapshot read-only: leaderboard,
// player detail, rating history and match history. It never writes; the
// batch pipeline owns all mutation.
type LadderServer struct {
	players *repository.PlayerRepository
	history *repository.HistoryRepository
	matches *repository.MatchRepository
	logger  zerolog.Logger
}

func NewLadderServer(
	players *repository.PlayerRepository,
	history *repository.HistoryRepository,
	matches *repository.MatchRepository,
	logger zerolog.Logger,
) *LadderServer {
	return &LadderServer{players: players, history: history, matches: matches, logger: logger}
}

func (s *LadderServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/players/{id}", s.handlePlayer)
	mux.HandleFunc("GET /api/players/{id}/history", s.handlePlayerHistory)
	mux.HandleFunc("GET /api/matches", s.handleMatches)
	return mux
}

func (s *LadderServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	players, err := s.players.Leaderboard(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, players)
}

func (s *LadderServer) handlePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	player, err := s.players.Get(ctx, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, player)
}

func (s *LadderServer) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	entries, err := s.history.ForPlayer(ctx, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, entries)
}

func (s *LadderServer) handleMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	matches, err := s.matches.List(ctx, constants.MatchListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, matches)
}

func (s *LadderServer) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("encode response")
	}
}

func (s *LadderServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
