// internal/store/scrub_test.go

package store

import (
	"testing"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

func scrubFixture(inProgress bool) *GameRecord {
	key := [5][5]codenames.Team{}
	key[0][0] = codenames.TeamAssassin
	two := 2
	return &GameRecord{
		GameDoc: GameDoc{
			GameID:     100001,
			Teams:      [2][2]int64{{11, 12}, {21, 22}},
			BoardKey:   &key,
			InProgress: inProgress,
		},
		Events: []codenames.Event{
			{ID: "e1", Kind: codenames.EventClueGiven, PlayerID: 11, ClueWord: "ocean", ClueCount: &two, Verdict: codenames.VerdictLegal},
			{ID: "e2", Kind: codenames.EventClueGiven, PlayerID: 21, ClueWord: "oops", ClueCount: &two, Verdict: `clue is contained in board word "oopsie"`},
			{ID: "e3", Kind: codenames.EventGuessSkipped, PlayerID: 12, Word: "zebra"},
		},
	}
}

func TestScrubHidesKeyFromOutsidersWhileLive(t *testing.T) {
	rec := scrubFixture(true)

	if got := Scrub(rec, 99); got.BoardKey != nil {
		t.Error("outsider saw the key of a live match")
	}
	// Operatives are participants but still not entitled to the key.
	if got := Scrub(rec, 12); got.BoardKey != nil {
		t.Error("operative saw the key of a live match")
	}
	for _, spy := range []int64{11, 21} {
		if got := Scrub(rec, spy); got.BoardKey == nil {
			t.Errorf("spymaster %d lost the key", spy)
		}
	}
	// Scrubbing never mutates the loaded record.
	if rec.BoardKey == nil {
		t.Fatal("Scrub mutated its input")
	}
}

func TestScrubRevealsKeyAfterEnd(t *testing.T) {
	rec := scrubFixture(false)
	if got := Scrub(rec, 99); got.BoardKey == nil {
		t.Error("key still hidden after the match ended")
	}
}

func TestScrubIllegalClue(t *testing.T) {
	for _, inProgress := range []bool{true, false} {
		rec := scrubFixture(inProgress)

		got := Scrub(rec, 99)
		legal, illegal := got.Events[0], got.Events[1]
		if legal.ClueWord != "ocean" || legal.ClueCount == nil {
			t.Errorf("legal clue was scrubbed: %+v", legal)
		}
		if illegal.ClueWord != "" || illegal.ClueCount != nil {
			t.Errorf("illegal clue text leaked to an outsider: %+v", illegal)
		}
		if illegal.Verdict != codenames.VerdictRedacted {
			t.Errorf("illegal clue verdict = %q, want the generic reason", illegal.Verdict)
		}

		// The spymaster who gave it keeps the full diagnostics, even
		// after the match ends.
		own := Scrub(rec, 21).Events[1]
		if own.ClueWord != "oops" || own.ClueCount == nil || own.Verdict == codenames.VerdictRedacted {
			t.Errorf("clue-giver lost their own diagnostics: %+v", own)
		}
	}
}

func TestScrubSkippedGuess(t *testing.T) {
	rec := scrubFixture(false)

	if got := Scrub(rec, 99).Events[2]; got.Word != "" {
		t.Errorf("skipped guess word leaked: %+v", got)
	}
	if got := Scrub(rec, 12).Events[2]; got.Word != "zebra" {
		t.Errorf("guesser lost their own skipped word: %+v", got)
	}
}
