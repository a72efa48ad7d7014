// internal/codenames/player.go
//
// Durable per-player skill state: one Elo-style rating and one win/loss
// record per role. Ratings move by K*(result-expected), with the
// expected score taken from the logistic Elo curve over pre-match team
// averages.
//
// Notes:
//   - Every Player owns freshly allocated stats; nothing is shared
//     between instances.
//   - Updates lock the player, so two matches finishing at once cannot
//     interleave a read-modify-write on the same record.

package codenames

import (
	"fmt"
	"math"
	"sync"
)

const (
	// DefaultRating seeds both role ratings for a first-contact player.
	DefaultRating = 1500.0
	// RatingK scales every rating update.
	RatingK = 20.0
)

// RoleStats is one role's rating and record.
type RoleStats struct {
	Rating float64 `json:"rating"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
}

// Record formats the tally as "W-L" for leaderboards.
func (s RoleStats) Record() string { return fmt.Sprintf("%d-%d", s.Wins, s.Losses) }

// Player is the durable record for one identity.
type Player struct {
	mu        sync.Mutex
	id        int64
	spymaster RoleStats
	operative RoleStats
}

// NewPlayer returns a player with default ratings and a clean record.
func NewPlayer(id int64) *Player {
	return &Player{
		id:        id,
		spymaster: RoleStats{Rating: DefaultRating},
		operative: RoleStats{Rating: DefaultRating},
	}
}

// RestorePlayer rebuilds a player from persisted role stats.
func RestorePlayer(id int64, spymaster, operative RoleStats) *Player {
	return &Player{id: id, spymaster: spymaster, operative: operative}
}

// ID returns the player's identity.
func (p *Player) ID() int64 { return p.id }

// Stats returns a copy of the stats for role.
func (p *Player) Stats(role Role) RoleStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.statsFor(role)
}

// Rating returns the current rating for role.
func (p *Player) Rating(role Role) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statsFor(role).Rating
}

func (p *Player) statsFor(role Role) *RoleStats {
	if role == RoleSpymaster {
		return &p.spymaster
	}
	return &p.operative
}

// ExpectedScore is the Elo win probability for a side rated own facing
// a side rated opp.
func ExpectedScore(own, opp float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opp-own)/400.0))
}

// Update applies one match result for role using the team averages
// fixed at match start, and returns the rating before and after. The
// win/loss tally for that role moves with it.
func (p *Player) Update(role Role, won bool, ownTeamAvg, oppTeamAvg float64) (before, after float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.statsFor(role)
	before = s.Rating
	result := 0.0
	if won {
		result = 1.0
		s.Wins++
	} else {
		s.Losses++
	}
	s.Rating += RatingK * (result - ExpectedScore(ownTeamAvg, oppTeamAvg))
	return before, s.Rating
}
