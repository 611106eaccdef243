package ladder

import (
	"nebulous-ladder/internal/rating"
)

// Histogram tracks every player's ordinal after each processed match,
// keyed by player id then match index. The reporting layer turns it into
// rank-distribution plots.
type Histogram map[string]map[int]float64

func NewHistogram() Histogram {
	return make(Histogram)
}

// Update records the current ordinal of every known player under the
// given match index.
func (h Histogram) Update(db *Database, matchIndex int) {
	for _, rec := range db.Players() {
		series, ok := h[rec.PlayerID]
		if !ok {
			series = make(map[int]float64)
			h[rec.PlayerID] = series
		}
		series[matchIndex] = rating.Ordinal(rec.Rating)
	}
}
