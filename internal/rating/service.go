package rating

import (
	"github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
	"github.com/samber/lo"

	"nebulous-ladder/internal/domain"
)

// Member is one rating-belief entry handed to the rating engine. Synthetic
// members exist only to pad a short team for a single update; they carry no
// player id and are never written back to the player database.
type Member struct {
	PlayerID  string
	Synthetic bool
	Belief    domain.Belief
}

// NewMember wraps a real player's current belief for one rating update.
func NewMember(playerID string, belief domain.Belief) Member {
	return Member{PlayerID: playerID, Belief: belief}
}

// NewSynthetic returns a padding member with the given belief.
func NewSynthetic(belief domain.Belief) Member {
	return Member{Synthetic: true, Belief: belief}
}

// Service is the boundary to the Plackett-Luce rating engine. The engine is
// opaque to the rest of the pipeline: beliefs in, beliefs out.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// NewBelief returns the engine's default belief for an unseen player.
func (s *Service) NewBelief() domain.Belief {
	r := rating.New()
	return domain.Belief{Mu: r.Mu, Sigma: r.Sigma}
}

// Rate scores one finished match, winners first. Team shape and member
// order are preserved, so identity survives positionally.
func (s *Service) Rate(winners, losers []Member) ([]Member, []Member) {
	rated := rating.Rate([]types.Team{toTeam(winners), toTeam(losers)}, nil)
	return fromTeam(winners, rated[0]), fromTeam(losers, rated[1])
}

// PredictDraw returns the draw probability for the two teams, used as the
// match-quality proxy.
func (s *Service) PredictDraw(a, b []Member) float64 {
	return rating.PredictDraw([]types.Team{toTeam(a), toTeam(b)}, nil)
}

// Ordinal is the conservative ranking scalar (mu minus three sigma), called
// DLO on the leaderboard.
func Ordinal(b domain.Belief) float64 {
	return rating.Ordinal(toRating(b))
}

func toRating(b domain.Belief) types.Rating {
	return rating.NewWithOptions(&types.OpenSkillOptions{
		Mu:    lo.ToPtr(b.Mu),
		Sigma: lo.ToPtr(b.Sigma),
	})
}

func toTeam(members []Member) types.Team {
	return lo.Map(members, func(m Member, _ int) types.Rating {
		return toRating(m.Belief)
	})
}

func fromTeam(members []Member, team types.Team) []Member {
	out := make([]Member, len(members))
	for i, m := range members {
		m.Belief = domain.Belief{Mu: team[i].Mu, Sigma: team[i].Sigma}
		out[i] = m
	}
	return out
}
