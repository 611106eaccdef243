package ladder

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"nebulous-ladder/internal/domain"
)

// LoadAdjustments reads manual rating corrections from a JSON file. A
// missing file means no adjustments; a malformed file is reported and
// also yields none.
func LoadAdjustments(path string, logger zerolog.Logger) []domain.Adjustment {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("cannot read adjustments file")
		return nil
	}

	var adjustments []domain.Adjustment
	if err := json.Unmarshal(b, &adjustments); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("invalid adjustments file")
		return nil
	}
	return adjustments
}

// ApplyAdjustments shifts each targeted player's rating mean in place,
// leaving uncertainty untouched. Unknown targets are reported and
// skipped. Applied once, after all matches and before any reporting.
func ApplyAdjustments(db *Database, adjustments []domain.Adjustment, logger zerolog.Logger) {
	for _, adj := range adjustments {
		rec, ok := db.Get(adj.SteamID)
		if !ok {
			logger.Warn().
				Str("steam_id", adj.SteamID).
				Str("steam_name", adj.SteamName).
				Msg("adjustment target not in database, skipping")
			continue
		}

		before := rec.Rating.Mu
		rec.Rating.Mu += adj.MuAdjustment

		logger.Info().
			Str("steam_id", adj.SteamID).
			Str("steam_name", adj.SteamName).
			Float64("mu_before", before).
			Float64("mu_after", rec.Rating.Mu).
			Str("reason", adj.Reason).
			Msg("applied manual adjustment")
	}
}
