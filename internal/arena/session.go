// internal/arena/session.go
//
// Per-client session state for the matchmaking scheduler.
// Responsibilities:
//   - Track when a client last checked in, for the activity window.
//   - Track the moment a waiting client may trigger an early, bot-padded
//     match rather than waiting for a full pool.
//   - Track which matches the client is seated in and which have ended
//     during this server session.
//
// Notes:
//   - Sessions are guarded by the scheduler's lock; they carry no
//     locking of their own.

package arena

import (
	"time"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

// EndedGame is one finished seat as remembered by a session: where the
// client sat, whether the match played out or timed out, and the
// terminal outcome.
type EndedGame struct {
	GameID    int64              `json:"game_id"`
	RoleInfo  codenames.RoleInfo `json:"role_info"`
	Completed bool               `json:"completed"`
	Outcome   *codenames.Outcome `json:"outcome"`
}

// Session is one client's standing with the scheduler.
type Session struct {
	PlayerID int64
	Player   *codenames.Player

	// LastActive is the most recent check-in, PrevActive the one before
	// it. A client is active while LastActive is inside the window.
	LastActive time.Time
	PrevActive time.Time

	// EarlyStartAt is when this client, still idle, justifies starting
	// a match padded with bots. It is pushed far out after each match
	// so a lone client is not fed bot opponents back to back.
	EarlyStartAt time.Time

	// ActiveGames maps each seated match to this client's role in it.
	ActiveGames map[int64]codenames.RoleInfo

	// EndedGames lists matches that ended while this session was live,
	// in the order they ended.
	EndedGames []EndedGame
}

func newSession(p *codenames.Player, now time.Time, firstWait time.Duration) *Session {
	return &Session{
		PlayerID:     p.ID(),
		Player:       p,
		LastActive:   now,
		EarlyStartAt: now.Add(firstWait),
		ActiveGames:  make(map[int64]codenames.RoleInfo),
	}
}

// Active reports whether the client checked in inside the window.
func (s *Session) Active(now time.Time, window time.Duration) bool {
	return now.Sub(s.LastActive) < window
}

// Touch records a check-in. A client returning from inactivity starts a
// fresh early-start wait.
func (s *Session) Touch(now time.Time, window, firstWait time.Duration) {
	if !s.Active(now, window) {
		s.EarlyStartAt = now.Add(firstWait)
	}
	s.PrevActive = s.LastActive
	s.LastActive = now
}

// Idle reports whether the client is seated in no match.
func (s *Session) Idle() bool { return len(s.ActiveGames) == 0 }
