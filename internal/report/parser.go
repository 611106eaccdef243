package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"time"

	"nebulous-ladder/internal/constants"
	"nebulous-ladder/internal/domain"
)

// Closed lists of hull keys per faction. A player resolves to a faction
// only if every hull they fielded is on that faction's list.
var ansHullKeys = hullSet(
	"Stock/Sprinter Corvette",
	"Stock/Raines Frigate",
	"Stock/Keystone Destroyer",
	"Stock/Vauxhall Light Cruiser",
	"Stock/Axford Heavy Cruiser",
	"Stock/Solomon Battleship",
	"Stock/Levy Escort Carrier",
)

var ospHullKeys = hullSet(
	"Stock/Shuttle",
	"Stock/Tugboat",
	"Stock/Journeyman",
	"Stock/Bulk Feeder",
	"Stock/Ore Carrier",
	"Stock/Ocello Cruiser",
	"Stock/Bulk Hauler",
	"Stock/Container Hauler",
	"Stock/Container Hauler Refit",
)

func hullSet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Raw document shape as written by the dedicated server. Team and player
// element names vary with the game build, so child lists are collected
// with wildcards.
type battleReport struct {
	GameStartTimestamp int64        `xml:"GameStartTimestamp"`
	GameDuration       int64        `xml:"GameDuration"`
	GameFinished       bool         `xml:"GameFinished"`
	WinningTeam        string       `xml:"WinningTeam"`
	Teams              teamElements `xml:"Teams"`
}

type teamElements struct {
	Teams []reportTeam `xml:",any"`
}

type reportTeam struct {
	TeamID  string         `xml:"TeamID"`
	Players playerElements `xml:"Players"`
}

type playerElements struct {
	Players []reportPlayer `xml:",any"`
}

type reportPlayer struct {
	PlayerName string `xml:"PlayerName"`
	AccountID  struct {
		Value string `xml:"Value"`
	} `xml:"AccountId"`
	HullKeys []string `xml:"Ships>ShipBattleReport>HullKey"`
}

// Parse turns one raw battle-report document into a MatchRecord. playedAt
// comes from the report filename, not the document. Records that fail the
// plausibility checks come back with Valid=false; only unparsable input is
// an error. Names and ids in the result are HTML-escaped, ready for
// embedding by any downstream renderer.
func Parse(raw []byte, playedAt time.Time) (*domain.MatchRecord, error) {
	dec := xml.NewDecoder(bytes.NewReader(repairTrailer(raw)))
	// some servers write a charset declaration that doesn't match the
	// actual bytes; decode them as-is
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var doc battleReport
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse battle report: %w", err)
	}

	m := &domain.MatchRecord{PlayedAt: playedAt}

	if doc.GameStartTimestamp == 0 ||
		doc.GameDuration <= constants.MinGameDuration ||
		doc.GameDuration >= constants.MaxGameDuration ||
		!doc.GameFinished {
		return m, nil
	}

	for _, t := range doc.Teams.Teams {
		teamFaction := domain.FactionUnknown
		players := make([]domain.RosterEntry, 0, len(t.Players.Players))

		for _, p := range t.Players.Players {
			// first player whose hull set fully resolves decides the team
			// faction; a resolved mark is never overwritten
			if isFaction(p.HullKeys, ansHullKeys) && teamFaction != domain.FactionOSP {
				teamFaction = domain.FactionANS
			}
			if isFaction(p.HullKeys, ospHullKeys) && teamFaction != domain.FactionANS {
				teamFaction = domain.FactionOSP
			}

			players = append(players, domain.RosterEntry{
				PlayerID:  html.EscapeString(p.AccountID.Value),
				SteamName: html.EscapeString(p.PlayerName),
			})
		}

		// applied after the whole roster so players with zero recorded
		// ships (disconnects) still get their team's faction
		for i := range players {
			players[i].Faction = teamFaction
		}

		m.Teams = append(m.Teams, domain.Team{ID: t.TeamID, Players: players})
	}

	m.WinningTeam = doc.WinningTeam
	m.Valid = true
	return m, nil
}

func isFaction(hullKeys []string, faction map[string]struct{}) bool {
	if len(hullKeys) == 0 {
		return false
	}
	for _, k := range hullKeys {
		if _, ok := faction[k]; !ok {
			return false
		}
	}
	return true
}

// repairTrailer drops anything after the last closing delimiter. Reports
// occasionally carry leftover bytes past the final element.
func repairTrailer(raw []byte) []byte {
	if i := bytes.LastIndexByte(raw, '>'); i != -1 {
		return raw[:i+1]
	}
	return raw
}
