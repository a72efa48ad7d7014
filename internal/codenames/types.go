// internal/codenames/types.go
//
// Core type definitions for the Codenames match engine.
// Defines:
//   - Team: cell ownership and team identity (wire values 1, 2, 0, -1).
//   - Role: the two seats on a team (spymaster gives clues, operative guesses).
//   - Phase: match state machine phases, including the two terminal ones.
//   - WaitKind: whether a match is waiting for an input request or a submission.
//   - Clue and RoleInfo payload types.
//   - Protocol error values shared by every match operation.

package codenames

import "errors"

// Team identifies a playing team or a board cell's ownership category.
// The numeric values are the wire/storage values: the board key is an
// array of these.
type Team int

const (
	TeamNeutral  Team = 0
	Team1        Team = 1
	Team2        Team = 2
	TeamAssassin Team = -1
)

// Opponent returns the other playing team. Non-playing values map to
// themselves.
func (t Team) Opponent() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	default:
		return t
	}
}

// Playing reports whether t is one of the two competing teams.
func (t Team) Playing() bool { return t == Team1 || t == Team2 }

// String is for logs only; JSON keeps the numeric values.
func (t Team) String() string {
	switch t {
	case Team1:
		return "team1"
	case Team2:
		return "team2"
	case TeamAssassin:
		return "assassin"
	default:
		return "neutral"
	}
}

// Role is a player's seat on a team.
type Role string

const (
	RoleSpymaster Role = "spymaster"
	RoleOperative Role = "operative"
)

// Phase is the match state machine position. A match is always waiting
// on exactly one player until it reaches a terminal phase.
type Phase string

const (
	PhaseClueQuery  Phase = "awaiting_clue_query"
	PhaseClueInput  Phase = "awaiting_clue_input"
	PhaseGuessQuery Phase = "awaiting_guess_query"
	PhaseGuessInput Phase = "awaiting_guess_input"
	PhaseCompleted  Phase = "completed"
	PhaseTimedOut   Phase = "timed_out"
)

// Terminal reports whether the phase ends the match.
func (p Phase) Terminal() bool { return p == PhaseCompleted || p == PhaseTimedOut }

// Role reports which seat the match is waiting on during p. Terminal
// phases wait on nobody and report an empty role.
func (p Phase) Role() Role {
	switch p {
	case PhaseClueQuery, PhaseClueInput:
		return RoleSpymaster
	case PhaseGuessQuery, PhaseGuessInput:
		return RoleOperative
	}
	return ""
}

// WaitKind distinguishes the two halves of a turn: waiting for the
// acting player to request their inputs versus waiting for them to
// submit a response.
type WaitKind string

const (
	WaitQuery WaitKind = "query"
	WaitInput WaitKind = "input"
)

// Wait reports which half of the turn p is waiting on.
func (p Phase) Wait() WaitKind {
	if p == PhaseClueInput || p == PhaseGuessInput {
		return WaitInput
	}
	return WaitQuery
}

// UnlimitedClueCount is the declared count operatives read as "no limit":
// the guess budget becomes the full candidate list, same as zero.
const UnlimitedClueCount = 10

// Clue is a spymaster's (word, declared count) pair.
type Clue struct {
	Word  string `json:"clue_word"`
	Count int    `json:"clue_count"`
}

// RoleInfo records one player's seat in a match.
type RoleInfo struct {
	Team       Team  `json:"team"`
	Role       Role  `json:"role"`
	TeammateID int64 `json:"teammate_id"`
}

// Protocol errors. Handlers answer any of these with the caller's
// current authoritative status rather than an HTTP failure.
var (
	ErrGameOver    = errors.New("game already ended")
	ErrWrongPhase  = errors.New("game is not waiting for that action")
	ErrNotYourTurn = errors.New("not your turn")
)
