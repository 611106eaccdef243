package ladder

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"nebulous-ladder/internal/domain"
	"nebulous-ladder/internal/rating"
)

// Skip decisions. Matches rejected with one of these leave the database
// completely untouched.
var (
	ErrInvalidMatch     = errors.New("invalid battle report")
	ErrTeamCount        = errors.New("battle report does not have exactly two teams")
	ErrEmptyRoster      = errors.New("battle report has an empty team roster")
	ErrUnresolvedWinner = errors.New("winning team not present in rosters")
)

// Processor folds validated matches into the player database and keeps the
// match history. It is the only mutator of either, and it is strictly
// sequential: history entries assume monotonically increasing timestamps.
type Processor struct {
	db      *Database
	rating  *rating.Service
	logger  zerolog.Logger
	history []*domain.MatchRecord
}

func NewProcessor(db *Database, svc *rating.Service, logger zerolog.Logger) *Processor {
	return &Processor{db: db, rating: svc, logger: logger}
}

// History returns processed matches in processing order.
func (p *Processor) History() []*domain.MatchRecord {
	return p.history
}

// Process folds one parsed match into the database: lifetime, faction and
// teammate counters first, then a placeholder history entry per
// participant, synthetic padding to equal team sizes, the derived match
// metrics, and finally the rating update whose result overwrites each
// placeholder. All rejection checks run before the first mutation.
func (p *Processor) Process(m *domain.MatchRecord) error {
	if !m.Valid {
		return ErrInvalidMatch
	}
	if len(m.Teams) != 2 {
		return ErrTeamCount
	}
	winnerIdx := -1
	for i, t := range m.Teams {
		if len(t.Players) == 0 {
			return ErrEmptyRoster
		}
		if t.ID == m.WinningTeam {
			winnerIdx = i
		}
	}
	if winnerIdx == -1 {
		return ErrUnresolvedWinner
	}

	teams := make([][]rating.Member, len(m.Teams))
	for ti, team := range m.Teams {
		won := ti == winnerIdx
		members := make([]rating.Member, 0, len(team.Players))

		for _, entry := range team.Players {
			rec := p.db.GetOrCreate(entry.PlayerID, entry.SteamName)
			if rec.GamesPlayed == 0 {
				p.logger.Info().Str("player_id", entry.PlayerID).Str("steam_name", entry.SteamName).Msg("new player")
			}

			rec.GamesPlayed++
			if won {
				rec.Wins++
			}

			switch entry.Faction {
			case domain.FactionANS:
				rec.ANSGames++
				if won {
					rec.ANSWins++
				}
			case domain.FactionOSP:
				rec.OSPGames++
				if won {
					rec.OSPWins++
				}
			}

			// each player's teammate map is updated from their own
			// perspective, one increment per co-occurrence
			for _, mate := range team.Players {
				if mate.PlayerID == entry.PlayerID {
					continue
				}
				stats, ok := rec.Teammates[mate.PlayerID]
				if !ok {
					stats = &domain.TeammateStats{}
					rec.Teammates[mate.PlayerID] = stats
				}
				stats.Games++
				if won {
					stats.Wins++
				}
			}

			members = append(members, rating.NewMember(entry.PlayerID, rec.Rating))
		}
		teams[ti] = members
	}

	winners, losers := teams[winnerIdx], teams[1-winnerIdx]

	// placeholder history entries, winner roster first; every participant
	// gets exactly one entry per match before the rating engine runs
	p.appendPlaceholders(winners, m.PlayedAt)
	p.appendPlaceholders(losers, m.PlayedAt)

	size := max(len(winners), len(losers))
	winners = padToSize(winners, size)
	losers = padToSize(losers, size)

	// derived metrics come from the padded pool of both teams
	m.AvgDLO = averageDLO(winners, losers)
	m.MatchQuality = p.rating.PredictDraw(winners, losers)

	ratedWinners, ratedLosers := p.rating.Rate(winners, losers)
	p.writeBack(ratedWinners, m.PlayedAt)
	p.writeBack(ratedLosers, m.PlayedAt)

	p.history = append(p.history, m)
	return nil
}

func (p *Processor) appendPlaceholders(members []rating.Member, playedAt time.Time) {
	for _, m := range members {
		rec, ok := p.db.Get(m.PlayerID)
		if !ok {
			continue
		}
		rec.History = append(rec.History, domain.HistoryEntry{
			PlayedAt: playedAt,
			Ordinal:  rating.Ordinal(rec.Rating),
		})
	}
}

// writeBack stores each real member's updated belief and replaces their
// placeholder history entry with the post-update ordinal. Synthetic
// results are discarded.
func (p *Processor) writeBack(members []rating.Member, playedAt time.Time) {
	for _, m := range members {
		if m.Synthetic {
			continue
		}
		rec, ok := p.db.Get(m.PlayerID)
		if !ok {
			continue
		}
		rec.Rating = m.Belief
		rec.History[len(rec.History)-1] = domain.HistoryEntry{
			PlayedAt: playedAt,
			Ordinal:  rating.Ordinal(m.Belief),
		}
	}
}

// padToSize appends synthetic members until the team reaches size. Each
// synthetic belief is the arithmetic average of the real members already
// on the team, taken before any padding.
func padToSize(members []rating.Member, size int) []rating.Member {
	if len(members) >= size {
		return members
	}

	var mu, sigma float64
	for _, m := range members {
		mu += m.Belief.Mu
		sigma += m.Belief.Sigma
	}
	n := float64(len(members))
	avg := domain.Belief{Mu: mu / n, Sigma: sigma / n}

	for len(members) < size {
		members = append(members, rating.NewSynthetic(avg))
	}
	return members
}

func averageDLO(winners, losers []rating.Member) float64 {
	var mu, sigma float64
	for _, m := range winners {
		mu += m.Belief.Mu
		sigma += m.Belief.Sigma
	}
	for _, m := range losers {
		mu += m.Belief.Mu
		sigma += m.Belief.Sigma
	}
	n := float64(len(winners) + len(losers))
	return mu/n - 3.0*sigma/n
}
