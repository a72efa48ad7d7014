// internal/store/memory_test.go

package store

import (
	"context"
	"math/rand"
	"testing"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

func testBoard(t *testing.T) *codenames.Board {
	t.Helper()
	pool := []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
		"hotel", "india", "juliett", "kilo", "lima", "mike", "november",
		"oscar", "papa", "quebec", "romeo", "sierra", "tango", "uniform",
		"victor", "whiskey", "xray", "yankee", "zulu",
	}
	b, err := codenames.NewBoard(pool, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

var testTeams = [2][2]int64{{11, 12}, {21, 22}}

func recordedGame(t *testing.T, m *Memory, gameID int64) codenames.Recorder {
	t.Helper()
	rec, err := m.NewGameLog(context.Background(), gameID)
	if err != nil {
		t.Fatalf("NewGameLog: %v", err)
	}
	rec.RecordConfig(testBoard(t), testTeams)
	return rec
}

func TestGameDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := recordedGame(t, m, 100001)

	rec.AppendEvent(codenames.Event{ID: "e1", Kind: codenames.EventClueGiven, PlayerID: 11, ClueWord: "ocean", Verdict: codenames.VerdictLegal})
	rec.AppendEvent(codenames.Event{ID: "e2", Kind: codenames.EventWordRevealed, PlayerID: 12, Word: "alpha"})
	rec.SetField("in_progress", false)
	rec.SetField("completed", true)

	got, err := m.GameRecord(ctx, 100001)
	if err != nil {
		t.Fatalf("GameRecord: %v", err)
	}
	if got.GameID != 100001 || got.Teams != testTeams {
		t.Fatalf("doc = %+v", got.GameDoc)
	}
	if got.BoardKey == nil {
		t.Fatal("stored document lost the board key")
	}
	if got.InProgress || !got.Completed {
		t.Fatalf("flags = in_progress %v, completed %v", got.InProgress, got.Completed)
	}
	if len(got.Events) != 2 || got.Events[0].ID != "e1" || got.Events[1].ID != "e2" {
		t.Fatalf("events = %+v", got.Events)
	}

	if _, err := m.GameRecord(ctx, 42); err != ErrNotFound {
		t.Errorf("unknown game err = %v, want ErrNotFound", err)
	}
}

func TestGameListings(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	recordedGame(t, m, 100001)
	recB := recordedGame(t, m, 100002)
	recB.SetField("in_progress", false)

	maxID, err := m.MaxGameID(ctx)
	if err != nil || maxID != 100002 {
		t.Fatalf("MaxGameID = %d, %v", maxID, err)
	}

	done, err := m.CompletedGameIDs(ctx)
	if err != nil {
		t.Fatalf("CompletedGameIDs: %v", err)
	}
	if len(done) != 1 || done[0] != 100002 {
		t.Fatalf("completed = %v, want [100002]", done)
	}

	mine, err := m.PlayerGameIDs(ctx, 12)
	if err != nil {
		t.Fatalf("PlayerGameIDs: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("player 12 games = %v, want both", mine)
	}
	none, err := m.PlayerGameIDs(ctx, 999)
	if err != nil || len(none) != 0 {
		t.Fatalf("player 999 games = %v, %v", none, err)
	}
}

func TestPlayerRoundTripCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	missing, err := m.LoadPlayer(ctx, 7)
	if err != nil || missing != nil {
		t.Fatalf("LoadPlayer(unknown) = %v, %v; want nil, nil", missing, err)
	}

	p := codenames.NewPlayer(7)
	p.Update(codenames.RoleSpymaster, true, 1500, 1500)
	if err := m.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	// Mutating the live player after save must not touch the store.
	p.Update(codenames.RoleSpymaster, true, 1500, 1500)

	got, err := m.LoadPlayer(ctx, 7)
	if err != nil || got == nil {
		t.Fatalf("LoadPlayer: %v, %v", got, err)
	}
	s := got.Stats(codenames.RoleSpymaster)
	if s.Wins != 1 {
		t.Fatalf("stored wins = %d, want the snapshot at save time", s.Wins)
	}
	if s.Rating != codenames.DefaultRating+codenames.RatingK*0.5 {
		t.Fatalf("stored rating = %v", s.Rating)
	}
}

func TestLeaderboards(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	strong := codenames.NewPlayer(1)
	strong.Update(codenames.RoleSpymaster, true, 1500, 1500)
	weak := codenames.NewPlayer(2)
	weak.Update(codenames.RoleSpymaster, false, 1500, 1500)
	for _, p := range []*codenames.Player{strong, weak} {
		if err := m.SavePlayer(ctx, p); err != nil {
			t.Fatalf("SavePlayer: %v", err)
		}
	}

	lbs, err := m.Leaderboards(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboards: %v", err)
	}
	if len(lbs.Spymasters) != 2 || lbs.Spymasters[0].PlayerID != 1 {
		t.Fatalf("spymasters = %+v", lbs.Spymasters)
	}
	if lbs.Spymasters[0].Record != "1-0" || lbs.Spymasters[1].Record != "0-1" {
		t.Fatalf("records = %q, %q", lbs.Spymasters[0].Record, lbs.Spymasters[1].Record)
	}
	if len(lbs.Combined) != 2 || lbs.Combined[0].PlayerID != 1 {
		t.Fatalf("combined = %+v", lbs.Combined)
	}

	one, err := m.Leaderboards(ctx, 1)
	if err != nil || len(one.Operatives) != 1 {
		t.Fatalf("limit 1 operatives = %+v, %v", one.Operatives, err)
	}
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.KeyHash(ctx, 5); err != ErrNotFound {
		t.Fatalf("unknown credential err = %v", err)
	}
	if err := m.SeedCredentials(ctx, []Credential{{PlayerID: 5, KeyHash: "h1"}}); err != nil {
		t.Fatalf("SeedCredentials: %v", err)
	}
	// Re-seeding never rotates an existing key.
	if err := m.SeedCredentials(ctx, []Credential{{PlayerID: 5, KeyHash: "h2"}}); err != nil {
		t.Fatalf("SeedCredentials: %v", err)
	}
	hash, err := m.KeyHash(ctx, 5)
	if err != nil || hash != "h1" {
		t.Fatalf("KeyHash = %q, %v; want the original", hash, err)
	}
}
