// internal/codenames/game.go
//
// The per-match state machine.
// Responsibilities:
//   - Drive the turn protocol: clue inputs -> clue -> guess inputs ->
//     guesses, alternating teams until the game ends.
//   - Enforce phase and turn order; out-of-turn callers get typed errors
//     and resynchronize from status.
//   - Resolve guesses against the board, apply the guess budget, detect
//     the end of the game, and update ratings on completion.
//   - Time out matches whose acting player stopped responding.
//   - Append every step to the audit log through the Recorder sink.
//
// Notes:
//   - A mutex serializes all transitions; there is no concurrency inside
//     a single match, only across matches.
//   - Team averages for the rating update are fixed at creation, so a
//     player's concurrent results in other matches cannot skew them.

package codenames

import (
	"sync"
	"time"

	"github.com/dhilgart/TWIML-codenames/internal/lexicon"
)

// Roster is one team's pair of players.
type Roster struct {
	Spymaster *Player
	Operative *Player
}

// Seat returns the player occupying role.
func (r Roster) Seat(role Role) *Player {
	if role == RoleSpymaster {
		return r.Spymaster
	}
	return r.Operative
}

// IDs returns the roster's player ids, spymaster first.
func (r Roster) IDs() [2]int64 { return [2]int64{r.Spymaster.ID(), r.Operative.ID()} }

// AverageRating blends the seat ratings into one team strength.
func (r Roster) AverageRating() float64 {
	return (r.Spymaster.Rating(RoleSpymaster) + r.Operative.Rating(RoleOperative)) / 2
}

// Game is one in-progress or concluded match.
type Game struct {
	mu       sync.Mutex
	id       int64
	board    *Board
	teams    [2]Roster // index 0 is Team1
	teamAvgs [2]float64

	phase    Phase
	currTeam Team
	clue     Clue

	// Wait clocks for timeout detection: queryWaitStart restarts when
	// the match begins waiting for an input request, inputWaitStart when
	// inputs were handed out and a submission is owed. The newer of the
	// two is the wait currently in progress.
	queryWaitStart time.Time
	inputWaitStart time.Time

	startedAt time.Time
	endedAt   time.Time
	outcome   *Outcome

	rec Recorder
	lem lexicon.Lemmatizer
}

// NewGame starts a match between two rosters on a fresh board. Team 1
// acts first, beginning with its spymaster. The static setup is written
// to the audit log immediately.
func NewGame(id int64, board *Board, teams [2]Roster, rec Recorder, lem lexicon.Lemmatizer) *Game {
	if rec == nil {
		rec = NopRecorder{}
	}
	now := time.Now().UTC()
	g := &Game{
		id:             id,
		board:          board,
		teams:          teams,
		teamAvgs:       [2]float64{teams[0].AverageRating(), teams[1].AverageRating()},
		phase:          PhaseClueQuery,
		currTeam:       Team1,
		queryWaitStart: now,
		startedAt:      now,
		rec:            rec,
		lem:            lem,
	}
	g.rec.RecordConfig(board, [2][2]int64{teams[0].IDs(), teams[1].IDs()})
	g.rec.SetField("start_time", now)
	return g
}

// ID returns the match id.
func (g *Game) ID() int64 { return g.id }

// StartedAt returns the match creation time.
func (g *Game) StartedAt() time.Time { return g.startedAt }

// Phase returns the current state machine position.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Ended reports whether the match reached a terminal phase.
func (g *Game) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase.Terminal()
}

// Outcome returns the terminal record, or nil while the match is live.
func (g *Game) Outcome() *Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

// Roster returns the pair playing as t.
func (g *Game) Roster(t Team) Roster {
	return g.teams[t-1]
}

func (g *Game) roster(t Team) Roster { return g.teams[t-1] }

// waitingPlayer is the player the match is waiting on. Callers hold mu
// and have checked the phase is not terminal.
func (g *Game) waitingPlayer() *Player {
	return g.roster(g.currTeam).Seat(g.phase.Role())
}

// waitStart is the beginning of the wait currently in progress.
func (g *Game) waitStart() time.Time {
	if g.inputWaitStart.After(g.queryWaitStart) {
		return g.inputWaitStart
	}
	return g.queryWaitStart
}

// IsPlayersTurn reports whether the match is waiting on playerID.
func (g *Game) IsPlayersTurn(playerID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.phase.Terminal() && g.waitingPlayer().ID() == playerID
}

// WaitStatus reports who a live match is waiting on and for how long.
type WaitStatus struct {
	Team           Team     `json:"team"`
	Role           Role     `json:"role"`
	PlayerID       int64    `json:"player_id"`
	WaitingFor     WaitKind `json:"waiting_for"`
	WaitingSeconds float64  `json:"waiting_seconds"`
}

// WaitingOn reports the current wait. The zero WaitStatus means the
// match already ended.
func (g *Game) WaitingOn() WaitStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase.Terminal() {
		return WaitStatus{}
	}
	return WaitStatus{
		Team:           g.currTeam,
		Role:           g.phase.Role(),
		PlayerID:       g.waitingPlayer().ID(),
		WaitingFor:     g.phase.Wait(),
		WaitingSeconds: time.Since(g.waitStart()).Seconds(),
	}
}

// checkTurn gates an operation on phase and caller identity. Callers
// hold mu.
func (g *Game) checkTurn(playerID int64, want Phase) error {
	if g.phase.Terminal() {
		return ErrGameOver
	}
	if g.phase != want {
		return ErrWrongPhase
	}
	if g.waitingPlayer().ID() != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// ClueInputs is everything a spymaster needs to produce a clue.
type ClueInputs struct {
	GameID int64     `json:"game_id"`
	Team   Team      `json:"team"`
	Board  BoardView `json:"board"`
}

// GuessInputs is everything an operative needs to produce guesses.
// The board view carries no key.
type GuessInputs struct {
	GameID     int64     `json:"game_id"`
	Team       Team      `json:"team"`
	Clue       Clue      `json:"clue"`
	Unrevealed []string  `json:"unrevealed_words"`
	Board      BoardView `json:"board"`
}

// ClueInputs hands the acting spymaster the full board, key included,
// and starts the submission-side wait clock. Valid only while the match
// is waiting for a clue-input request from that player.
func (g *Game) ClueInputs(playerID int64) (ClueInputs, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkTurn(playerID, PhaseClueQuery); err != nil {
		return ClueInputs{}, err
	}
	g.phase = PhaseClueInput
	g.inputWaitStart = time.Now().UTC()
	return ClueInputs{GameID: g.id, Team: g.currTeam, Board: g.board.View(true)}, nil
}

// SubmitClue rules on the clue and either opens the guess phase for the
// same team or, for an illegal clue, forfeits the turn to the other
// team with no guessing. Both paths are logged with the verdict. The
// verdict is returned so the transport can observe rejections.
func (g *Game) SubmitClue(playerID int64, word string, count int) (ClueVerdict, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkTurn(playerID, PhaseClueInput); err != nil {
		return ClueVerdict{}, err
	}
	verdict := CheckClue(word, g.board.Unrevealed(), g.lem)
	g.rec.AppendEvent(newClueEvent(g.currTeam, playerID, word, count, verdict))
	now := time.Now().UTC()
	if verdict.Legal {
		g.clue = Clue{Word: word, Count: count}
		g.phase = PhaseGuessQuery
		g.queryWaitStart = now
	} else {
		g.switchTeams(now)
	}
	return verdict, nil
}

// GuessInputs hands the acting operative the clue, the unrevealed words,
// and the keyless board, and starts the submission-side wait clock.
func (g *Game) GuessInputs(playerID int64) (GuessInputs, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkTurn(playerID, PhaseGuessQuery); err != nil {
		return GuessInputs{}, err
	}
	g.phase = PhaseGuessInput
	g.inputWaitStart = time.Now().UTC()
	return GuessInputs{
		GameID:     g.id,
		Team:       g.currTeam,
		Clue:       g.clue,
		Unrevealed: g.board.Unrevealed(),
		Board:      g.board.View(false),
	}, nil
}

// SubmitGuesses spends the guess budget on candidates in order. A
// candidate that is not among the unrevealed words is skipped and
// logged without costing a reveal or the turn. Each reveal is checked
// for the end of the game before the turn-ending-miss rule, so an
// assassin reveal always resolves as a loss even when it coincides with
// a team running out of words. If the game has not ended when guessing
// stops, the acting team switches.
func (g *Game) SubmitGuesses(playerID int64, candidates []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkTurn(playerID, PhaseGuessInput); err != nil {
		return err
	}
	budget := guessBudget(g.clue.Count, len(candidates))
	for _, word := range candidates[:budget] {
		if !g.board.IsUnrevealed(word) {
			g.rec.AppendEvent(newGuessSkippedEvent(g.currTeam, playerID, word))
			continue
		}
		owner, err := g.board.Reveal(word)
		if err != nil {
			// Screened by IsUnrevealed above; unreachable on a well-formed board.
			g.rec.AppendEvent(newGuessSkippedEvent(g.currTeam, playerID, word))
			continue
		}
		g.rec.AppendEvent(newRevealEvent(g.currTeam, playerID, word, owner))
		if winner, over := g.endAfterReveal(owner); over {
			g.complete(winner)
			return nil
		}
		if owner != g.currTeam {
			break
		}
	}
	g.switchTeams(time.Now().UTC())
	return nil
}

// guessBudget: a declared count of zero or the unlimited sentinel lets
// every candidate through; otherwise the operative gets one attempt
// beyond the declared count, capped by the candidates supplied. A
// nonsense negative count yields an empty budget rather than a panic.
func guessBudget(declared, candidates int) int {
	if declared == 0 || declared == UnlimitedClueCount {
		return candidates
	}
	n := min(declared+1, candidates)
	if n < 0 {
		return 0
	}
	return n
}

// switchTeams passes the turn to the opponent's spymaster. Callers
// hold mu.
func (g *Game) switchTeams(now time.Time) {
	g.currTeam = g.currTeam.Opponent()
	g.phase = PhaseClueQuery
	g.queryWaitStart = now
}

// endAfterReveal applies the end-of-game rules after one reveal, in
// precedence order: assassin first, then the acting team's count, then
// the opponent's.
func (g *Game) endAfterReveal(owner Team) (winner Team, over bool) {
	switch {
	case owner == TeamAssassin:
		return g.currTeam.Opponent(), true
	case g.board.Remaining(g.currTeam) == 0:
		return g.currTeam, true
	case g.board.Remaining(g.currTeam.Opponent()) == 0:
		return g.currTeam.Opponent(), true
	}
	return TeamNeutral, false
}

// complete finalizes a decided match: ratings move for all four
// players against the pre-match team averages, the outcome is
// assembled with before/after snapshots, and the terminal entry and
// document fields are written. Callers hold mu.
func (g *Game) complete(winner Team) {
	now := time.Now().UTC()
	loser := winner.Opponent()
	outcome := &Outcome{
		Kind:       OutcomeCompleted,
		Winner:     g.teamResult(winner, true),
		Loser:      g.teamResult(loser, false),
		StartedAt:  g.startedAt,
		EndedAt:    now,
		FinalBoard: g.board.View(false).Markers,
	}
	g.phase = PhaseCompleted
	g.endedAt = now
	g.outcome = outcome
	g.rec.AppendEvent(newCompletedEvent(winner, loser))
	g.recordFinal(outcome, true)
}

// teamResult applies the rating updates for one team and reports each
// player's before/after values.
func (g *Game) teamResult(t Team, won bool) *TeamResult {
	own := g.teamAvgs[t-1]
	opp := g.teamAvgs[t.Opponent()-1]
	roster := g.roster(t)
	res := &TeamResult{Team: t}
	for i, role := range []Role{RoleSpymaster, RoleOperative} {
		p := roster.Seat(role)
		before, after := p.Update(role, won, own, opp)
		res.Players[i] = PlayerResult{PlayerID: p.ID(), Role: role, RatingBefore: before, RatingAfter: after}
	}
	return res
}

// CheckTimeout ends the match as timed out when the wait in progress
// has outlived threshold, snapshotting who was being waited on and for
// which half of the turn. Ratings do not move. Returns true when the
// transition fired.
func (g *Game) CheckTimeout(threshold time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase.Terminal() {
		return false
	}
	waited := time.Since(g.waitStart())
	if waited <= threshold {
		return false
	}
	now := time.Now().UTC()
	info := &TimeoutInfo{
		Team:          g.currTeam,
		Role:          g.phase.Role(),
		PlayerID:      g.waitingPlayer().ID(),
		WaitingFor:    g.phase.Wait(),
		WaitedSeconds: waited.Seconds(),
	}
	outcome := &Outcome{
		Kind:       OutcomeTimedOut,
		Timeout:    info,
		StartedAt:  g.startedAt,
		EndedAt:    now,
		FinalBoard: g.board.View(false).Markers,
	}
	g.phase = PhaseTimedOut
	g.endedAt = now
	g.outcome = outcome
	g.rec.AppendEvent(newTimedOutEvent(info))
	g.recordFinal(outcome, false)
	return true
}

// recordFinal flushes the terminal document fields through the sink.
func (g *Game) recordFinal(outcome *Outcome, completed bool) {
	g.rec.SetField("in_progress", false)
	g.rec.SetField("completed", completed)
	g.rec.SetField("end_time", g.endedAt)
	g.rec.SetField("final_boardmarkers", outcome.FinalBoard)
	g.rec.SetField("outcome", outcome)
}
