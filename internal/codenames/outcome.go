// internal/codenames/outcome.go
//
// Terminal match results. Outcome is a tagged union: Kind says which of
// the completed or timed-out payloads is populated, and consumers
// switch on it instead of probing for fields.

package codenames

import "time"

// OutcomeKind discriminates the two ways a match ends.
type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeTimedOut  OutcomeKind = "timed_out"
)

// PlayerResult is one participant's rating movement for the match.
type PlayerResult struct {
	PlayerID     int64   `json:"player_id"`
	Role         Role    `json:"role"`
	RatingBefore float64 `json:"rating_before"`
	RatingAfter  float64 `json:"rating_after"`
}

// TeamResult names a team and its two players, spymaster first.
type TeamResult struct {
	Team    Team            `json:"team"`
	Players [2]PlayerResult `json:"players"`
}

// TimeoutInfo captures who a timed-out match was waiting on, which half
// of the turn it was waiting for, and for how long.
type TimeoutInfo struct {
	Team          Team     `json:"team"`
	Role          Role     `json:"role"`
	PlayerID      int64    `json:"player_id"`
	WaitingFor    WaitKind `json:"waiting_for"`
	WaitedSeconds float64  `json:"waited_seconds"`
}

// Outcome is the immutable terminal record of a match. Winner and Loser
// are set only for completed matches; Timeout only for timed-out ones.
// Ratings never move on a timeout. FinalBoard is the reveal overlay at
// the moment the match ended, for both kinds.
type Outcome struct {
	Kind       OutcomeKind       `json:"kind"`
	Winner     *TeamResult       `json:"winner,omitempty"`
	Loser      *TeamResult       `json:"loser,omitempty"`
	Timeout    *TimeoutInfo      `json:"timeout,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
	FinalBoard [Rows][Cols]*Team `json:"final_boardmarkers"`
}
