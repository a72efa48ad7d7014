// internal/codenames/events.go
//
// Typed audit-log events and the recorder sink they flow into.
// Every state-changing moment in a match appends one event; the store
// keeps them as an ordered stream per game. Consumers switch on Kind,
// and only the fields belonging to that kind are populated.

package codenames

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates audit-log events.
type EventKind string

const (
	EventClueGiven     EventKind = "clue_given"
	EventGuessSkipped  EventKind = "guess_skipped"
	EventWordRevealed  EventKind = "word_revealed"
	EventGameCompleted EventKind = "game_completed"
	EventGameTimedOut  EventKind = "game_timed_out"
)

// Verdict strings recorded on clue events. Redaction replaces an
// illegal clue's stored reason with VerdictRedacted for every reader
// except the spymaster who gave it.
const (
	VerdictLegal    = "legal"
	VerdictRedacted = "illegal clue given"
)

// Event is one audit-log record. ClueCount and Result are pointers so a
// redacted or absent value is distinguishable from a meaningful zero.
type Event struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Kind     EventKind `json:"event"`
	Team     Team      `json:"team,omitempty"`
	Role     Role      `json:"role,omitempty"`
	PlayerID int64     `json:"player_id,omitempty"`

	// clue_given
	ClueWord  string `json:"clue_word,omitempty"`
	ClueCount *int   `json:"clue_count,omitempty"`
	Verdict   string `json:"verdict,omitempty"`

	// guess_skipped and word_revealed
	Word   string `json:"word,omitempty"`
	Result *Team  `json:"result,omitempty"`

	// game_completed
	Winner Team `json:"winner,omitempty"`
	Loser  Team `json:"loser,omitempty"`

	// game_timed_out
	Timeout *TimeoutInfo `json:"timeout,omitempty"`
}

func newEvent(kind EventKind) Event {
	return Event{ID: uuid.NewString(), At: time.Now().UTC(), Kind: kind}
}

func newClueEvent(team Team, playerID int64, word string, count int, verdict ClueVerdict) Event {
	ev := newEvent(EventClueGiven)
	ev.Team, ev.Role, ev.PlayerID = team, RoleSpymaster, playerID
	ev.ClueWord = word
	n := count
	ev.ClueCount = &n
	if verdict.Legal {
		ev.Verdict = VerdictLegal
	} else {
		ev.Verdict = verdict.Reason
	}
	return ev
}

func newGuessSkippedEvent(team Team, playerID int64, word string) Event {
	ev := newEvent(EventGuessSkipped)
	ev.Team, ev.Role, ev.PlayerID = team, RoleOperative, playerID
	ev.Word = word
	return ev
}

func newRevealEvent(team Team, playerID int64, word string, owner Team) Event {
	ev := newEvent(EventWordRevealed)
	ev.Team, ev.Role, ev.PlayerID = team, RoleOperative, playerID
	ev.Word = word
	o := owner
	ev.Result = &o
	return ev
}

func newCompletedEvent(winner, loser Team) Event {
	ev := newEvent(EventGameCompleted)
	ev.Winner, ev.Loser = winner, loser
	return ev
}

func newTimedOutEvent(info *TimeoutInfo) Event {
	ev := newEvent(EventGameTimedOut)
	ev.Team, ev.Role, ev.PlayerID = info.Team, info.Role, info.PlayerID
	ti := *info
	ev.Timeout = &ti
	return ev
}

// Recorder is the persistence sink a match writes through. Calls happen
// inside match transitions, so implementations carry their own error
// handling: a failed write is logged by the sink, never surfaced back
// into game state.
type Recorder interface {
	// RecordConfig stores the static match setup: the full board (key
	// included) and both team rosters, spymaster first.
	RecordConfig(board *Board, teamIDs [2][2]int64)
	// SetField overwrites one named field on the match document.
	SetField(name string, value any)
	// AppendEvent adds one event to the match's ordered stream.
	AppendEvent(ev Event)
}

// NopRecorder discards everything. It stands in when a real sink is
// unavailable so a match can still be played.
type NopRecorder struct{}

func (NopRecorder) RecordConfig(*Board, [2][2]int64) {}
func (NopRecorder) SetField(string, any)             {}
func (NopRecorder) AppendEvent(Event)                {}
