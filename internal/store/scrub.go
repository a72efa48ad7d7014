// internal/store/scrub.go
//
// Redaction of game records for serving to clients.
// Responsibilities:
//   - Hide the board key from non-spymasters while a match is live.
//   - Hide illegal clues from everyone but the spymaster who gave them.
//   - Hide skipped guess words from everyone but the operative who
//     guessed them.
//
// Notes:
//   - Scrub copies; the record loaded from the store is never mutated.
//   - Once a match ends the key becomes public, but botched submissions
//     stay private to their author forever.

package store

import "github.com/dhilgart/TWIML-codenames/internal/codenames"

// Scrub returns a copy of rec with everything readerID is not entitled
// to see removed.
func Scrub(rec *GameRecord, readerID int64) *GameRecord {
	out := &GameRecord{GameDoc: rec.GameDoc}

	// While the match is live only the two spymasters know the key.
	if rec.InProgress && !isSpymaster(&rec.GameDoc, readerID) {
		out.BoardKey = nil
	}

	out.Events = make([]codenames.Event, len(rec.Events))
	for i, ev := range rec.Events {
		out.Events[i] = scrubEvent(ev, readerID)
	}
	return out
}

func isSpymaster(doc *GameDoc, readerID int64) bool {
	for _, id := range doc.Spymasters() {
		if id == readerID {
			return true
		}
	}
	return false
}

func scrubEvent(ev codenames.Event, readerID int64) codenames.Event {
	switch ev.Kind {
	case codenames.EventClueGiven:
		if ev.Verdict != codenames.VerdictLegal && ev.PlayerID != readerID {
			ev.ClueWord = ""
			ev.ClueCount = nil
			ev.Verdict = codenames.VerdictRedacted
		}
	case codenames.EventGuessSkipped:
		if ev.PlayerID != readerID {
			ev.Word = ""
		}
	}
	return ev
}
