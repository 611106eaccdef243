package ladder

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulous-ladder/internal/domain"
	"nebulous-ladder/internal/rating"
)

func newTestProcessor() (*Database, *Processor) {
	svc := rating.NewService()
	db := NewDatabase(svc)
	return db, NewProcessor(db, svc, zerolog.Nop())
}

func matchAt(ts time.Time, winner string, teams ...domain.Team) *domain.MatchRecord {
	return &domain.MatchRecord{
		Valid:       true,
		PlayedAt:    ts,
		Teams:       teams,
		WinningTeam: winner,
	}
}

func roster(teamID string, faction domain.Faction, ids ...string) domain.Team {
	t := domain.Team{ID: teamID}
	for _, id := range ids {
		t.Players = append(t.Players, domain.RosterEntry{
			PlayerID:  id,
			SteamName: "player-" + id,
			Faction:   faction,
		})
	}
	return t
}

var t0 = time.Date(2025, 4, 14, 22, 30, 1, 0, time.UTC)

func TestProcessUnevenTeams(t *testing.T) {
	db, proc := newTestProcessor()
	svc := rating.NewService()
	defaultSigma := svc.NewBelief().Sigma

	// team B's single player starts below the default mean
	carol := db.GetOrCreate("3", "player-3")
	carol.Rating.Mu = 20

	m := matchAt(t0, "TeamA",
		roster("TeamA", domain.FactionANS, "1", "2"),
		roster("TeamB", domain.FactionOSP, "3"),
	)
	require.NoError(t, proc.Process(m))

	// only the three real players exist; the synthetic pad is never stored
	assert.Equal(t, 3, db.Len())

	// avg_dlo pools both padded teams: [25 25] vs [20 20(synthetic)]
	wantMu := (25.0 + 25.0 + 20.0 + 20.0) / 4.0
	assert.InDelta(t, wantMu-3.0*defaultSigma, m.AvgDLO, 1e-9)

	assert.Greater(t, m.MatchQuality, 0.0)
	assert.LessOrEqual(t, m.MatchQuality, 1.0)

	alice, _ := db.Get("1")
	assert.Equal(t, 1, alice.GamesPlayed)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 1, alice.ANSGames)
	assert.Equal(t, 1, alice.ANSWins)
	assert.Zero(t, alice.OSPGames)
	assert.Greater(t, alice.Rating.Mu, 25.0)

	carol, _ = db.Get("3")
	assert.Equal(t, 1, carol.GamesPlayed)
	assert.Zero(t, carol.Wins)
	assert.Equal(t, 1, carol.OSPGames)
	assert.Zero(t, carol.OSPWins)
	assert.Less(t, carol.Rating.Mu, 20.0)

	// every real participant got exactly one history entry for the match
	for _, id := range []string{"1", "2", "3"} {
		rec, ok := db.Get(id)
		require.True(t, ok)
		require.Len(t, rec.History, 1)
		assert.Equal(t, t0, rec.History[0].PlayedAt)
	}

	require.Len(t, proc.History(), 1)
}

func TestProcessHistoryOverwrite(t *testing.T) {
	db, proc := newTestProcessor()

	m := matchAt(t0, "TeamA",
		roster("TeamA", domain.FactionANS, "1"),
		roster("TeamB", domain.FactionOSP, "2"),
	)
	require.NoError(t, proc.Process(m))

	// the placeholder (pre-update ordinal, 0 for a fresh belief) must have
	// been replaced with the post-update ordinal
	winner, _ := db.Get("1")
	require.Len(t, winner.History, 1)
	assert.InDelta(t, rating.Ordinal(winner.Rating), winner.History[0].Ordinal, 1e-9)
	assert.NotZero(t, winner.History[0].Ordinal)
	assert.Equal(t, t0, winner.History[0].PlayedAt)
}

func TestProcessTeammateCounters(t *testing.T) {
	db, proc := newTestProcessor()

	m := matchAt(t0, "TeamA",
		roster("TeamA", domain.FactionANS, "1", "2", "3"),
		roster("TeamB", domain.FactionOSP, "4", "5", "6"),
	)
	require.NoError(t, proc.Process(m))

	alice, _ := db.Get("1")
	require.Len(t, alice.Teammates, 2)
	assert.Equal(t, 1, alice.Teammates["2"].Games)
	assert.Equal(t, 1, alice.Teammates["2"].Wins)
	assert.NotContains(t, alice.Teammates, "1")
	assert.NotContains(t, alice.Teammates, "4")

	dave, _ := db.Get("4")
	assert.Equal(t, 1, dave.Teammates["5"].Games)
	assert.Zero(t, dave.Teammates["5"].Wins)
}

func TestProcessRejections(t *testing.T) {
	teamA := roster("TeamA", domain.FactionANS, "1")
	teamB := roster("TeamB", domain.FactionOSP, "2")

	tests := []struct {
		name    string
		match   *domain.MatchRecord
		wantErr error
	}{
		{"invalid record", &domain.MatchRecord{Valid: false, PlayedAt: t0}, ErrInvalidMatch},
		{"unknown winner", matchAt(t0, "TeamC", teamA, teamB), ErrUnresolvedWinner},
		{"single team", matchAt(t0, "TeamA", teamA), ErrTeamCount},
		{"three teams", matchAt(t0, "TeamA", teamA, teamB, roster("TeamC", domain.FactionANS, "3")), ErrTeamCount},
		{"empty roster", matchAt(t0, "TeamA", teamA, domain.Team{ID: "TeamB"}), ErrEmptyRoster},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, proc := newTestProcessor()
			err := proc.Process(tt.match)
			require.ErrorIs(t, err, tt.wantErr)

			// a rejected match must leave the database untouched
			assert.Zero(t, db.Len())
			assert.Empty(t, proc.History())
		})
	}
}

func TestProcessGamesEqualsHistoryLength(t *testing.T) {
	db, proc := newTestProcessor()

	for i := 0; i < 5; i++ {
		winner := "TeamA"
		if i%2 == 1 {
			winner = "TeamB"
		}
		m := matchAt(t0.Add(time.Duration(i)*time.Hour), winner,
			roster("TeamA", domain.FactionANS, "1", "2"),
			roster("TeamB", domain.FactionOSP, "3", "4"),
		)
		require.NoError(t, proc.Process(m))
	}

	for _, rec := range db.Players() {
		assert.Equal(t, 5, rec.GamesPlayed)
		assert.Len(t, rec.History, 5)
		assert.Equal(t, rec.GamesPlayed, rec.ANSGames+rec.OSPGames)

		// history timestamps are strictly increasing
		for i := 1; i < len(rec.History); i++ {
			assert.True(t, rec.History[i-1].PlayedAt.Before(rec.History[i].PlayedAt))
		}
	}

	one, _ := db.Get("1")
	assert.Equal(t, 3, one.Wins)
	three, _ := db.Get("3")
	assert.Equal(t, 2, three.Wins)
}

func TestProcessIsDeterministic(t *testing.T) {
	run := func() []*domain.PlayerRecord {
		db, proc := newTestProcessor()
		for i := 0; i < 4; i++ {
			m := matchAt(t0.Add(time.Duration(i)*time.Hour), "TeamA",
				roster("TeamA", domain.FactionANS, "1", "2"),
				roster("TeamB", domain.FactionOSP, "3"),
			)
			require.NoError(t, proc.Process(m))
		}
		return db.Players()
	}

	// an identically ordered replay yields an identical database
	assert.Equal(t, run(), run())
}

func TestProcessUpdatesDisplayName(t *testing.T) {
	db, proc := newTestProcessor()

	m1 := matchAt(t0, "TeamA",
		roster("TeamA", domain.FactionANS, "1"),
		roster("TeamB", domain.FactionOSP, "2"),
	)
	require.NoError(t, proc.Process(m1))

	m2 := matchAt(t0.Add(time.Hour), "TeamA",
		domain.Team{ID: "TeamA", Players: []domain.RosterEntry{
			{PlayerID: "1", SteamName: "renamed", Faction: domain.FactionANS},
		}},
		roster("TeamB", domain.FactionOSP, "2"),
	)
	require.NoError(t, proc.Process(m2))

	rec, _ := db.Get("1")
	assert.Equal(t, "renamed", rec.SteamName)
}
