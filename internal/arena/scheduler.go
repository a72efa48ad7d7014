// internal/arena/scheduler.go
//
// Matchmaking and match lifecycle for the competition arena.
// Responsibilities:
//   - Track client sessions and the one live Player object per id.
//   - Form 2v2 matches from the available pool: when the pool is deep
//     enough, or early with bot padding once an idle client has waited
//     long enough.
//   - Reap ended matches on demand, persisting ratings for completed
//     ones and releasing the seats.
//   - Assemble the per-player status that drives the polling protocol.
//
// Notes:
//   - Everything is demand-driven: formation and reaping happen inside
//     client requests, never on a background timer.
//   - Lock order is scheduler before match. Matches never call back
//     into the scheduler.
//   - The activity window doubles as the match wait timeout, so a
//     match is given up on at the same moment its slowest player would
//     be considered gone.

package arena

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
	"github.com/dhilgart/TWIML-codenames/internal/lexicon"
	"github.com/dhilgart/TWIML-codenames/internal/metrics"
	"github.com/dhilgart/TWIML-codenames/internal/store"
)

// seatsPerMatch is two teams of spymaster plus operative.
const seatsPerMatch = 4

// baseGameID sits below the first id ever allocated, so ids start at
// baseGameID+1.
const baseGameID = 100000

// Config carries the scheduler's tunables.
type Config struct {
	// ActiveWindow bounds both client activity and match waits.
	ActiveWindow time.Duration

	// MinPoolSize is how many available clients justify forming matches
	// without bot padding. Keeping it above four stops the same four
	// clients from being reseated against each other back to back.
	MinPoolSize int

	// MaxActiveGamesPerPlayer caps concurrent seats per human client.
	MaxActiveGamesPerPlayer int

	// FirstGameWait is how long a fresh or returning client waits
	// before justifying a bot-padded early start. NextGameWait is the
	// same wait after finishing a match.
	FirstGameWait time.Duration
	NextGameWait  time.Duration

	// BotPlayerIDs are the reserved ids used to pad short pools. Three
	// cover the worst case of one human plus three bots.
	BotPlayerIDs []int64
}

// Scheduler owns the sessions, the live matches, and match formation.
type Scheduler struct {
	mu  sync.Mutex
	cfg Config

	store store.Store
	lem   lexicon.Lemmatizer
	pool  []string
	rng   *rand.Rand

	bots     map[int64]bool
	sessions map[int64]*Session
	players  map[int64]*codenames.Player
	active   map[int64]*codenames.Game
	ended    map[int64]*codenames.Game

	nextGameID int64
}

// New builds a scheduler, resuming game id allocation above anything
// already stored and reserving a session per bot id. A nil rng seeds
// one from the clock.
func New(ctx context.Context, cfg Config, st store.Store, lem lexicon.Lemmatizer, pool []string, rng *rand.Rand) (*Scheduler, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	maxID, err := st.MaxGameID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load max game id: %w", err)
	}
	if maxID < baseGameID {
		maxID = baseGameID
	}
	s := &Scheduler{
		cfg:        cfg,
		store:      st,
		lem:        lem,
		pool:       pool,
		rng:        rng,
		bots:       make(map[int64]bool, len(cfg.BotPlayerIDs)),
		sessions:   make(map[int64]*Session),
		players:    make(map[int64]*codenames.Player),
		active:     make(map[int64]*codenames.Game),
		ended:      make(map[int64]*codenames.Game),
		nextGameID: maxID + 1,
	}
	now := time.Now().UTC()
	for _, id := range cfg.BotPlayerIDs {
		p, err := s.loadPlayerLocked(ctx, id)
		if err != nil {
			return nil, err
		}
		s.bots[id] = true
		s.sessions[id] = newSession(p, now, cfg.FirstGameWait)
	}
	return s, nil
}

// loadPlayerLocked returns the one live Player for id, restoring it
// from the store or registering a fresh one on first sight.
func (s *Scheduler) loadPlayerLocked(ctx context.Context, id int64) (*codenames.Player, error) {
	if p, ok := s.players[id]; ok {
		return p, nil
	}
	p, err := s.store.LoadPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load player %d: %w", id, err)
	}
	if p == nil {
		p = codenames.NewPlayer(id)
		if err := s.store.SavePlayer(ctx, p); err != nil {
			return nil, fmt.Errorf("register player %d: %w", id, err)
		}
	}
	s.players[id] = p
	return p, nil
}

// Touch records a client check-in, creating the session on first sight.
// Every authenticated request lands here.
func (s *Scheduler) Touch(ctx context.Context, playerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(ctx, playerID); err != nil {
		return err
	}
	s.updateClientGaugeLocked(time.Now().UTC())
	return nil
}

func (s *Scheduler) touchLocked(ctx context.Context, playerID int64) error {
	now := time.Now().UTC()
	if sess, ok := s.sessions[playerID]; ok {
		sess.Touch(now, s.cfg.ActiveWindow, s.cfg.FirstGameWait)
		return nil
	}
	p, err := s.loadPlayerLocked(ctx, playerID)
	if err != nil {
		return err
	}
	s.sessions[playerID] = newSession(p, now, s.cfg.FirstGameWait)
	return nil
}

// Status is the heart of the polling protocol: it touches the session,
// forms any matches the pool now justifies, reaps the caller's ended
// matches, and reports what the caller is seated in and waited on for.
func (s *Scheduler) Status(ctx context.Context, playerID int64) (StatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(ctx, playerID); err != nil {
		return StatusResponse{}, err
	}
	now := time.Now().UTC()
	s.formMatchesLocked(ctx, now)
	sess := s.sessions[playerID]
	s.checkEndedLocked(ctx, lo.Keys(sess.ActiveGames))
	s.updateClientGaugeLocked(now)
	return s.statusLocked(sess), nil
}

// ActiveGame looks up a live match. Ended and unknown ids report false,
// and the caller falls back to the status response.
func (s *Scheduler) ActiveGame(gameID int64) (*codenames.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.active[gameID]
	return g, ok
}

// ActiveClientCount reports how many human clients are inside the
// activity window.
func (s *Scheduler) ActiveClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeSessionsLocked(time.Now().UTC()))
}

// ------------------------------ FORMATION -----------------------------------

// activeSessionsLocked lists human sessions inside the activity window,
// ordered by player id so formation is reproducible under a seeded rng.
func (s *Scheduler) activeSessionsLocked(now time.Time) []*Session {
	out := lo.Filter(lo.Values(s.sessions), func(sess *Session, _ int) bool {
		return !s.bots[sess.PlayerID] && sess.Active(now, s.cfg.ActiveWindow)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// availableLocked narrows the active sessions to those with a free seat.
func (s *Scheduler) availableLocked(now time.Time) []*Session {
	return lo.Filter(s.activeSessionsLocked(now), func(sess *Session, _ int) bool {
		return len(sess.ActiveGames) < s.cfg.MaxActiveGamesPerPlayer
	})
}

// shouldFormLocked reports whether the pool justifies new matches now:
// either it is deep enough on its own, or some idle available client
// has waited past their early-start moment.
func (s *Scheduler) shouldFormLocked(now time.Time) bool {
	avail := s.availableLocked(now)
	if len(avail) >= s.cfg.MinPoolSize {
		return true
	}
	for _, sess := range avail {
		if sess.Idle() && !now.Before(sess.EarlyStartAt) {
			return true
		}
	}
	return false
}

// formMatchesLocked seats as many full groups of four as the shuffled
// pool yields. A short pool is padded with reserved bots, which is how
// an early start for a lone waiting client gets its opponents.
func (s *Scheduler) formMatchesLocked(ctx context.Context, now time.Time) {
	if !s.shouldFormLocked(now) {
		return
	}
	avail := s.availableLocked(now)
	for i := 0; len(avail) < seatsPerMatch && i < len(s.cfg.BotPlayerIDs); i++ {
		avail = append(avail, s.sessions[s.cfg.BotPlayerIDs[i]])
	}
	s.rng.Shuffle(len(avail), func(i, j int) { avail[i], avail[j] = avail[j], avail[i] })
	for _, grp := range lo.Chunk(avail, seatsPerMatch) {
		if len(grp) < seatsPerMatch {
			break
		}
		s.startMatchLocked(ctx, grp)
	}
}

// startMatchLocked seats one group of four: the first pair is team 1,
// the second pair team 2, spymaster before operative in each.
func (s *Scheduler) startMatchLocked(ctx context.Context, grp []*Session) {
	board, err := codenames.NewBoard(s.pool, s.rng)
	if err != nil {
		log.Error().Err(err).Msg("generate board")
		return
	}
	id := s.nextGameID
	s.nextGameID++

	rec, err := s.store.NewGameLog(ctx, id)
	if err != nil {
		// The match still runs; it just leaves no stored record.
		log.Error().Err(err).Int64("game_id", id).Msg("create game log")
		rec = codenames.NopRecorder{}
	}

	teams := [2]codenames.Roster{
		{Spymaster: grp[0].Player, Operative: grp[1].Player},
		{Spymaster: grp[2].Player, Operative: grp[3].Player},
	}
	g := codenames.NewGame(id, board, teams, rec, s.lem)
	s.active[id] = g

	grp[0].ActiveGames[id] = codenames.RoleInfo{Team: codenames.Team1, Role: codenames.RoleSpymaster, TeammateID: grp[1].PlayerID}
	grp[1].ActiveGames[id] = codenames.RoleInfo{Team: codenames.Team1, Role: codenames.RoleOperative, TeammateID: grp[0].PlayerID}
	grp[2].ActiveGames[id] = codenames.RoleInfo{Team: codenames.Team2, Role: codenames.RoleSpymaster, TeammateID: grp[3].PlayerID}
	grp[3].ActiveGames[id] = codenames.RoleInfo{Team: codenames.Team2, Role: codenames.RoleOperative, TeammateID: grp[2].PlayerID}

	metrics.MatchesStarted.Inc()
	metrics.ActiveMatches.Inc()
	log.Info().
		Int64("game_id", id).
		Ints64("players", []int64{grp[0].PlayerID, grp[1].PlayerID, grp[2].PlayerID, grp[3].PlayerID}).
		Msg("match started")
}

// ------------------------------ REAPING -------------------------------------

// checkEndedLocked inspects the given matches, firing the timeout
// transition where the wait clock has run out, and retires every match
// found ended. Reaping can free seats, so formation is re-checked after.
func (s *Scheduler) checkEndedLocked(ctx context.Context, gameIDs []int64) {
	retired := false
	for _, id := range gameIDs {
		g, ok := s.active[id]
		if !ok {
			continue
		}
		if g.Ended() || g.CheckTimeout(s.cfg.ActiveWindow) {
			s.retireLocked(ctx, id, g)
			retired = true
		}
	}
	if retired {
		s.formMatchesLocked(ctx, time.Now().UTC())
	}
}

// retireLocked moves one ended match out of the active set: seats are
// released, every seated session starts its next-game wait, and for a
// completed match the moved ratings are persisted.
func (s *Scheduler) retireLocked(ctx context.Context, gameID int64, g *codenames.Game) {
	outcome := g.Outcome()
	completed := outcome != nil && outcome.Kind == codenames.OutcomeCompleted
	s.ended[gameID] = g
	delete(s.active, gameID)

	now := time.Now().UTC()
	for _, t := range []codenames.Team{codenames.Team1, codenames.Team2} {
		roster := g.Roster(t)
		for _, p := range []*codenames.Player{roster.Spymaster, roster.Operative} {
			if sess, ok := s.sessions[p.ID()]; ok {
				if info, seated := sess.ActiveGames[gameID]; seated {
					delete(sess.ActiveGames, gameID)
					sess.EndedGames = append(sess.EndedGames, EndedGame{
						GameID:    gameID,
						RoleInfo:  info,
						Completed: completed,
						Outcome:   outcome,
					})
					sess.EarlyStartAt = now.Add(s.cfg.NextGameWait)
				}
			}
			if completed {
				if err := s.store.SavePlayer(ctx, p); err != nil {
					log.Warn().Err(err).Int64("player_id", p.ID()).Msg("save player ratings")
				}
			}
		}
	}

	metrics.ActiveMatches.Dec()
	if completed {
		metrics.MatchesCompleted.Inc()
	} else {
		metrics.MatchesTimedOut.Inc()
	}
	log.Info().Int64("game_id", gameID).Bool("completed", completed).Msg("match ended")
}

// ------------------------------ STATUS --------------------------------------

// GameStatus is one seated match as reported to its player.
type GameStatus struct {
	GameID    int64                `json:"game_id"`
	StartedAt time.Time            `json:"game_start_time"`
	RoleInfo  codenames.RoleInfo   `json:"role_info"`
	WaitingOn codenames.WaitStatus `json:"waiting_on"`
}

// StatusResponse is the full polling payload for one player.
type StatusResponse struct {
	PlayerID    int64                `json:"player_id"`
	ActiveGames map[int64]GameStatus `json:"active_games"`
	EndedGames  []EndedGame          `json:"ended_games"`
}

func (s *Scheduler) statusLocked(sess *Session) StatusResponse {
	resp := StatusResponse{
		PlayerID:    sess.PlayerID,
		ActiveGames: make(map[int64]GameStatus, len(sess.ActiveGames)),
		EndedGames:  append([]EndedGame{}, sess.EndedGames...),
	}
	for id, info := range sess.ActiveGames {
		g, ok := s.active[id]
		if !ok {
			continue
		}
		resp.ActiveGames[id] = GameStatus{
			GameID:    id,
			StartedAt: g.StartedAt(),
			RoleInfo:  info,
			WaitingOn: g.WaitingOn(),
		}
	}
	return resp
}

func (s *Scheduler) updateClientGaugeLocked(now time.Time) {
	metrics.ActiveClients.Set(float64(len(s.activeSessionsLocked(now))))
}
