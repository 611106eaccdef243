package ladder

import (
	"nebulous-ladder/internal/domain"
	"nebulous-ladder/internal/rating"
)

// Database is the in-memory player database for one pipeline run. The
// ladder is refolded from raw reports every run, so nothing is ever
// deleted within a run and nothing survives across runs except through the
// persisted snapshot.
type Database struct {
	players map[string]*domain.PlayerRecord
	order   []string // first-appearance order, for deterministic iteration
	rating  *rating.Service
}

func NewDatabase(svc *rating.Service) *Database {
	return &Database{
		players: make(map[string]*domain.PlayerRecord),
		rating:  svc,
	}
}

// GetOrCreate returns the record for id, creating it with zeroed counters
// and a fresh default belief on first appearance. The stored display name
// always tracks the one last seen.
func (d *Database) GetOrCreate(id, steamName string) *domain.PlayerRecord {
	if p, ok := d.players[id]; ok {
		p.SteamName = steamName
		return p
	}

	p := &domain.PlayerRecord{
		PlayerID:  id,
		SteamName: steamName,
		Rating:    d.rating.NewBelief(),
		Teammates: make(map[string]*domain.TeammateStats),
	}
	d.players[id] = p
	d.order = append(d.order, id)
	return p
}

func (d *Database) Get(id string) (*domain.PlayerRecord, bool) {
	p, ok := d.players[id]
	return p, ok
}

func (d *Database) Len() int {
	return len(d.players)
}

// Players returns every record in first-appearance order. The records are
// live; reporting callers must not mutate them.
func (d *Database) Players() []*domain.PlayerRecord {
	out := make([]*domain.PlayerRecord, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.players[id])
	}
	return out
}
