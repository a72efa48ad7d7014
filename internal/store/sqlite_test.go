// internal/store/sqlite_test.go

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	_ = s.Close()

	// Reopening reruns migrate, which must skip applied files.
	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = s2.Close()
}

func TestSQLiteGameRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	maxID, err := s.MaxGameID(ctx)
	if err != nil || maxID != 0 {
		t.Fatalf("MaxGameID on empty db = %d, %v", maxID, err)
	}

	rec, err := s.NewGameLog(ctx, 100001)
	if err != nil {
		t.Fatalf("NewGameLog: %v", err)
	}
	rec.RecordConfig(testBoard(t), testTeams)
	rec.AppendEvent(codenames.Event{ID: "e1", Kind: codenames.EventClueGiven, PlayerID: 11, ClueWord: "ocean", Verdict: codenames.VerdictLegal})
	rec.AppendEvent(codenames.Event{ID: "e2", Kind: codenames.EventWordRevealed, PlayerID: 12, Word: "alpha"})
	rec.SetField("in_progress", false)
	rec.SetField("completed", true)

	got, err := s.GameRecord(ctx, 100001)
	if err != nil {
		t.Fatalf("GameRecord: %v", err)
	}
	if got.GameID != 100001 || got.Teams != testTeams || got.BoardKey == nil {
		t.Fatalf("doc = %+v", got.GameDoc)
	}
	if got.InProgress || !got.Completed {
		t.Fatalf("flags = %v/%v", got.InProgress, got.Completed)
	}
	if len(got.Events) != 2 || got.Events[0].ID != "e1" {
		t.Fatalf("events = %+v", got.Events)
	}

	if _, err := s.GameRecord(ctx, 7); err != ErrNotFound {
		t.Errorf("unknown game err = %v", err)
	}
	maxID, err = s.MaxGameID(ctx)
	if err != nil || maxID != 100001 {
		t.Fatalf("MaxGameID = %d, %v", maxID, err)
	}

	done, err := s.CompletedGameIDs(ctx)
	if err != nil || len(done) != 1 || done[0] != 100001 {
		t.Fatalf("completed = %v, %v", done, err)
	}
	mine, err := s.PlayerGameIDs(ctx, 21)
	if err != nil || len(mine) != 1 || mine[0] != 100001 {
		t.Fatalf("player games = %v, %v", mine, err)
	}
}

func TestSQLitePlayersAndLeaderboards(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	missing, err := s.LoadPlayer(ctx, 7)
	if err != nil || missing != nil {
		t.Fatalf("LoadPlayer(unknown) = %v, %v", missing, err)
	}

	a := codenames.NewPlayer(1)
	a.Update(codenames.RoleSpymaster, true, 1500, 1500)
	b := codenames.NewPlayer(2)
	b.Update(codenames.RoleSpymaster, false, 1500, 1500)
	for _, p := range []*codenames.Player{a, b} {
		if err := s.SavePlayer(ctx, p); err != nil {
			t.Fatalf("SavePlayer: %v", err)
		}
	}
	// Upsert replaces.
	a.Update(codenames.RoleOperative, true, 1500, 1500)
	if err := s.SavePlayer(ctx, a); err != nil {
		t.Fatalf("SavePlayer again: %v", err)
	}

	got, err := s.LoadPlayer(ctx, 1)
	if err != nil || got == nil {
		t.Fatalf("LoadPlayer: %v, %v", got, err)
	}
	if st := got.Stats(codenames.RoleOperative); st.Wins != 1 {
		t.Fatalf("upsert lost the operative win: %+v", st)
	}

	lbs, err := s.Leaderboards(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboards: %v", err)
	}
	if len(lbs.Spymasters) != 2 || lbs.Spymasters[0].PlayerID != 1 || lbs.Spymasters[0].Record != "1-0" {
		t.Fatalf("spymasters = %+v", lbs.Spymasters)
	}
	if lbs.Combined[0].PlayerID != 1 {
		t.Fatalf("combined = %+v", lbs.Combined)
	}
}

func TestSQLiteCredentials(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	if _, err := s.KeyHash(ctx, 5); err != ErrNotFound {
		t.Fatalf("unknown credential err = %v", err)
	}
	if err := s.SeedCredentials(ctx, []Credential{{PlayerID: 5, KeyHash: "h1"}}); err != nil {
		t.Fatalf("SeedCredentials: %v", err)
	}
	if err := s.SeedCredentials(ctx, []Credential{{PlayerID: 5, KeyHash: "h2"}}); err != nil {
		t.Fatalf("SeedCredentials: %v", err)
	}
	hash, err := s.KeyHash(ctx, 5)
	if err != nil || hash != "h1" {
		t.Fatalf("KeyHash = %q, %v; want the original", hash, err)
	}
}
