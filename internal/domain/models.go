package domain

import (
	"time"
)

// Faction is one of the two in-game allegiances, inferred from the hull
// types a player fielded.
type Faction string

const (
	FactionUnknown Faction = ""
	FactionANS     Faction = "ANS"
	FactionOSP     Faction = "OSP"
)

// Belief is a Gaussian skill estimate: mean and uncertainty.
type Belief struct {
	Mu    float64
	Sigma float64
}

// HistoryEntry is one point of a player's rating time series, appended once
// per match played.
type HistoryEntry struct {
	PlayedAt time.Time
	Ordinal  float64
}

// TeammateStats accumulates co-occurrence with a single teammate.
type TeammateStats struct {
	Games int
	Wins  int
}

type PlayerRecord struct {
	PlayerID    string
	SteamName   string // last seen, may change across matches
	Rating      Belief
	GamesPlayed int
	Wins        int
	ANSGames    int
	ANSWins     int
	OSPGames    int
	OSPWins     int
	History     []HistoryEntry
	Teammates   map[string]*TeammateStats
}

// RosterEntry is one participant of one match.
type RosterEntry struct {
	PlayerID  string
	SteamName string
	Faction   Faction
}

// Team is a match roster in document order.
type Team struct {
	ID      string
	Players []RosterEntry
}

// MatchRecord is a parsed battle report. AvgDLO and MatchQuality are filled
// in by the match processor; after that the record is immutable.
type MatchRecord struct {
	Valid        bool
	PlayedAt     time.Time
	Teams        []Team
	WinningTeam  string
	AvgDLO       float64
	MatchQuality float64
}

// Adjustment is a manual out-of-band rating correction.
type Adjustment struct {
	SteamID      string  `json:"steam_id"`
	SteamName    string  `json:"steam_name"`
	MuAdjustment float64 `json:"mu_adjustment"`
	Reason       string  `json:"reason_for_adjustment"`
}
