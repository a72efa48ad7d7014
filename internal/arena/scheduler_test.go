// internal/arena/scheduler_test.go

package arena

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
	"github.com/dhilgart/TWIML-codenames/internal/lexicon"
	"github.com/dhilgart/TWIML-codenames/internal/store"
)

// idLem lemmatizes every word to itself.
type idLem struct{}

func (idLem) Lemma(w string, _ lexicon.PartOfSpeech) string { return w }

func testPool() []string {
	return []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
		"hotel", "india", "juliett", "kilo", "lima", "mike", "november",
		"oscar", "papa", "quebec", "romeo", "sierra", "tango", "uniform",
		"victor", "whiskey", "xray", "yankee", "zulu", "anchor", "beacon",
		"candle", "dagger",
	}
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	s, err := New(context.Background(), cfg, st, idLem{}, testPool(), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, st
}

func baseConfig() Config {
	return Config{
		ActiveWindow:            5 * time.Minute,
		MinPoolSize:             4,
		MaxActiveGamesPerPlayer: 1,
		FirstGameWait:           time.Hour, // no early starts unless a test wants them
		NextGameWait:            time.Hour,
	}
}

func TestTouchRegistersPlayer(t *testing.T) {
	ctx := context.Background()
	s, st := newTestScheduler(t, baseConfig())

	if err := s.Touch(ctx, 101); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	p, err := st.LoadPlayer(ctx, 101)
	if err != nil || p == nil {
		t.Fatalf("first contact did not persist the player: %v, %v", p, err)
	}
	if got := p.Rating(codenames.RoleSpymaster); got != codenames.DefaultRating {
		t.Errorf("fresh rating = %v", got)
	}
	if got := s.ActiveClientCount(); got != 1 {
		t.Errorf("ActiveClientCount = %d, want 1", got)
	}
}

func TestNoFormationBelowMinPool(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig()
	cfg.MinPoolSize = 6
	s, _ := newTestScheduler(t, cfg)

	for id := int64(101); id <= 104; id++ {
		if err := s.Touch(ctx, id); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}
	st, err := s.Status(ctx, 101)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.ActiveGames) != 0 {
		t.Fatalf("four clients against a pool minimum of six formed a match: %+v", st.ActiveGames)
	}
}

func TestFormationSeatsFourAndRespectsCap(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t, baseConfig())

	for id := int64(101); id <= 104; id++ {
		if err := s.Touch(ctx, id); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}
	st, err := s.Status(ctx, 101)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.ActiveGames) != 1 {
		t.Fatalf("active games = %d, want 1", len(st.ActiveGames))
	}

	var gameID int64
	var info codenames.RoleInfo
	for id, gs := range st.ActiveGames {
		gameID = id
		info = gs.RoleInfo
		if gs.WaitingOn.Role != codenames.RoleSpymaster || gs.WaitingOn.WaitingFor != codenames.WaitQuery {
			t.Errorf("fresh match waiting on %+v, want a spymaster's query", gs.WaitingOn)
		}
	}
	if gameID <= baseGameID {
		t.Errorf("game id = %d, want above %d", gameID, baseGameID)
	}
	if !info.Team.Playing() || info.TeammateID == 101 {
		t.Errorf("role info = %+v", info)
	}

	// Every other client sees the same match, and the roster holds all
	// four ids exactly once.
	seated := map[int64]bool{101: true}
	for id := int64(102); id <= 104; id++ {
		st, err := s.Status(ctx, id)
		if err != nil {
			t.Fatalf("Status(%d): %v", id, err)
		}
		if _, ok := st.ActiveGames[gameID]; !ok {
			t.Fatalf("client %d not seated in game %d", id, gameID)
		}
		seated[id] = true
	}
	if len(seated) != 4 {
		t.Fatalf("seated clients = %d, want 4", len(seated))
	}

	// All four are at the cap, so another poll forms nothing new.
	st2, err := s.Status(ctx, 102)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st2.ActiveGames) != 1 {
		t.Fatalf("cap violated: %d active games", len(st2.ActiveGames))
	}
}

func TestEarlyStartPadsWithBots(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig()
	cfg.MinPoolSize = 6
	cfg.FirstGameWait = 0
	cfg.BotPlayerIDs = []int64{1, 2, 3}
	s, _ := newTestScheduler(t, cfg)

	if err := s.Touch(ctx, 101); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	st, err := s.Status(ctx, 101)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.ActiveGames) != 1 {
		t.Fatalf("lone client past its wait was not seated: %+v", st)
	}
	for _, gs := range st.ActiveGames {
		g, ok := s.ActiveGame(gs.GameID)
		if !ok {
			t.Fatal("seated game not in the live set")
		}
		ids := map[int64]bool{}
		for _, team := range []codenames.Team{codenames.Team1, codenames.Team2} {
			r := g.Roster(team)
			ids[r.Spymaster.ID()] = true
			ids[r.Operative.ID()] = true
		}
		if !ids[101] || !ids[1] || !ids[2] || !ids[3] {
			t.Errorf("roster ids = %v, want the client plus all three bots", ids)
		}
	}
}

// playOut drives one match to completion through the public protocol.
func playOut(t *testing.T, g *codenames.Game) {
	t.Helper()
	for i := 0; i < 200 && !g.Ended(); i++ {
		ws := g.WaitingOn()
		if ws.Role == codenames.RoleSpymaster {
			if _, err := g.ClueInputs(ws.PlayerID); err != nil {
				t.Fatalf("ClueInputs: %v", err)
			}
			v, err := g.SubmitClue(ws.PlayerID, "qqq", 0)
			if err != nil {
				t.Fatalf("SubmitClue: %v", err)
			}
			if !v.Legal {
				t.Fatalf("test clue ruled illegal: %+v", v)
			}
			continue
		}
		gi, err := g.GuessInputs(ws.PlayerID)
		if err != nil {
			t.Fatalf("GuessInputs: %v", err)
		}
		if err := g.SubmitGuesses(ws.PlayerID, gi.Unrevealed); err != nil {
			t.Fatalf("SubmitGuesses: %v", err)
		}
	}
	if !g.Ended() {
		t.Fatal("match did not finish")
	}
}

func TestReapCompletedMatch(t *testing.T) {
	ctx := context.Background()
	s, st := newTestScheduler(t, baseConfig())

	for id := int64(101); id <= 104; id++ {
		if err := s.Touch(ctx, id); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}
	first, err := s.Status(ctx, 101)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	var gameID int64
	for id := range first.ActiveGames {
		gameID = id
	}
	g, ok := s.ActiveGame(gameID)
	if !ok {
		t.Fatal("formed game not live")
	}
	playOut(t, g)

	after, err := s.Status(ctx, 101)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if _, still := after.ActiveGames[gameID]; still {
		t.Fatal("ended match still reported active")
	}
	var ended *EndedGame
	for i := range after.EndedGames {
		if after.EndedGames[i].GameID == gameID {
			ended = &after.EndedGames[i]
		}
	}
	if ended == nil {
		t.Fatal("ended match missing from ended games")
	}
	if !ended.Completed || ended.Outcome == nil || ended.Outcome.Kind != codenames.OutcomeCompleted {
		t.Fatalf("ended game = %+v", ended)
	}
	if _, live := s.ActiveGame(gameID); live {
		t.Error("retired match still in the live set")
	}

	// Completed matches persist every participant's moved rating.
	moved := false
	for id := int64(101); id <= 104; id++ {
		p, err := st.LoadPlayer(ctx, id)
		if err != nil || p == nil {
			t.Fatalf("LoadPlayer(%d): %v", id, err)
		}
		for _, role := range []codenames.Role{codenames.RoleSpymaster, codenames.RoleOperative} {
			if p.Rating(role) != codenames.DefaultRating {
				moved = true
			}
		}
	}
	if !moved {
		t.Error("no persisted rating moved after a completed match")
	}
}

func TestReapTimedOutMatch(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig()
	cfg.ActiveWindow = 50 * time.Millisecond
	s, st := newTestScheduler(t, cfg)

	for id := int64(101); id <= 104; id++ {
		if err := s.Touch(ctx, id); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}
	first, err := s.Status(ctx, 101)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	var gameID int64
	for id := range first.ActiveGames {
		gameID = id
	}
	if gameID == 0 {
		t.Fatal("no match formed")
	}

	time.Sleep(60 * time.Millisecond)
	after, err := s.Status(ctx, 101)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	var ended *EndedGame
	for i := range after.EndedGames {
		if after.EndedGames[i].GameID == gameID {
			ended = &after.EndedGames[i]
		}
	}
	if ended == nil {
		t.Fatal("overdue match was not reaped")
	}
	if ended.Completed || ended.Outcome.Kind != codenames.OutcomeTimedOut {
		t.Fatalf("ended game = %+v, want timed out", ended)
	}

	// Timeouts move no ratings.
	for id := int64(101); id <= 104; id++ {
		p, err := st.LoadPlayer(ctx, id)
		if err != nil || p == nil {
			t.Fatalf("LoadPlayer(%d): %v", id, err)
		}
		if p.Rating(codenames.RoleSpymaster) != codenames.DefaultRating ||
			p.Rating(codenames.RoleOperative) != codenames.DefaultRating {
			t.Errorf("player %d rating moved on a timeout", id)
		}
	}
}

func TestSessionActivityWindow(t *testing.T) {
	now := time.Now().UTC()
	sess := newSession(codenames.NewPlayer(5), now.Add(-10*time.Minute), time.Minute)
	if sess.Active(now, 5*time.Minute) {
		t.Fatal("stale session reported active")
	}

	// A returning client restarts the early-start wait.
	sess.Touch(now, 5*time.Minute, time.Minute)
	if !sess.Active(now, 5*time.Minute) {
		t.Fatal("touched session not active")
	}
	if sess.EarlyStartAt.Before(now.Add(time.Minute)) {
		t.Error("early start not pushed out on return from inactivity")
	}
	if !sess.Idle() {
		t.Error("fresh session not idle")
	}
}
