// internal/httpserver/routes_game.go
//
// The polling protocol: status plus the clue and guess turn endpoints.
// Responsibilities:
//   - GET /status: touch, matchmake, reap, and report the player's
//     seats and who each match waits on.
//   - GET /games/{gameID}/clue + POST: hand the acting spymaster the
//     keyed board, then accept the clue.
//   - GET /games/{gameID}/guesses + POST: hand the acting operative the
//     clue and candidates, then accept the guesses.
//
// Notes:
//   - Every response is an envelope tagged with its kind, so clients
//     decode one shape. Out-of-turn, wrong-phase, and ended-game calls
//     all come back as kind "status"; the status is the resync point.
//   - Submissions always answer with status: the submitter's next move
//     is in there, not in the submission result.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dhilgart/TWIML-codenames/internal/arena"
	"github.com/dhilgart/TWIML-codenames/internal/codenames"
	"github.com/dhilgart/TWIML-codenames/internal/metrics"
)

// Envelope kinds for the polling protocol.
const (
	kindClueInputs  = "clue_inputs"
	kindGuessInputs = "guess_inputs"
	kindStatus      = "status"
)

// turnResponse is the one shape every protocol endpoint answers with.
type turnResponse struct {
	Kind        string                 `json:"kind"`
	ClueInputs  *codenames.ClueInputs  `json:"clue_inputs,omitempty"`
	GuessInputs *codenames.GuessInputs `json:"guess_inputs,omitempty"`
	Status      *arena.StatusResponse  `json:"status,omitempty"`
}

// Submission payloads.
type clueSubmission struct {
	ClueWord  string `json:"clue_word"`
	ClueCount int    `json:"clue_count"`
}
type guessSubmission struct {
	Guesses []string `json:"guesses"`
}

// handleStatus answers the root poll.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w, r, playerFrom(r))
}

// writeStatus assembles and sends the authoritative status envelope.
func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, playerID int64) {
	st, err := s.sched.Status(r.Context(), playerID)
	if err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("assemble status")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(turnResponse{Kind: kindStatus, Status: &st})
}

// gameIDParam parses the {gameID} route segment.
func gameIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
}

// handleClueInputs hands the acting spymaster everything needed to
// produce a clue. Anyone else gets their status.
func (s *Server) handleClueInputs(w http.ResponseWriter, r *http.Request) {
	playerID := playerFrom(r)
	gameID, err := gameIDParam(r)
	if err != nil {
		http.Error(w, `{"error":"bad_game_id"}`, http.StatusBadRequest)
		return
	}
	if err := s.sched.Touch(r.Context(), playerID); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("touch session")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	g, ok := s.sched.ActiveGame(gameID)
	if !ok {
		s.writeStatus(w, r, playerID)
		return
	}
	inputs, err := g.ClueInputs(playerID)
	if err != nil {
		s.writeStatus(w, r, playerID)
		return
	}
	_ = json.NewEncoder(w).Encode(turnResponse{Kind: kindClueInputs, ClueInputs: &inputs})
}

// handleClueSubmit accepts a clue from the acting spymaster. The game
// rules on legality; an illegal clue forfeits the turn. Either way the
// submitter's answer is their fresh status.
func (s *Server) handleClueSubmit(w http.ResponseWriter, r *http.Request) {
	playerID := playerFrom(r)
	gameID, err := gameIDParam(r)
	if err != nil {
		http.Error(w, `{"error":"bad_game_id"}`, http.StatusBadRequest)
		return
	}
	var body clueSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.sched.Touch(r.Context(), playerID); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("touch session")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if g, ok := s.sched.ActiveGame(gameID); ok {
		verdict, err := g.SubmitClue(playerID, body.ClueWord, body.ClueCount)
		if err == nil && !verdict.Legal {
			metrics.CluesRejected.Inc()
		}
	}
	s.writeStatus(w, r, playerID)
}

// handleGuessInputs hands the acting operative the clue and the keyless
// board. Anyone else gets their status.
func (s *Server) handleGuessInputs(w http.ResponseWriter, r *http.Request) {
	playerID := playerFrom(r)
	gameID, err := gameIDParam(r)
	if err != nil {
		http.Error(w, `{"error":"bad_game_id"}`, http.StatusBadRequest)
		return
	}
	if err := s.sched.Touch(r.Context(), playerID); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("touch session")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	g, ok := s.sched.ActiveGame(gameID)
	if !ok {
		s.writeStatus(w, r, playerID)
		return
	}
	inputs, err := g.GuessInputs(playerID)
	if err != nil {
		s.writeStatus(w, r, playerID)
		return
	}
	_ = json.NewEncoder(w).Encode(turnResponse{Kind: kindGuessInputs, GuessInputs: &inputs})
}

// handleGuessSubmit accepts the ordered guesses from the acting
// operative and answers with their fresh status.
func (s *Server) handleGuessSubmit(w http.ResponseWriter, r *http.Request) {
	playerID := playerFrom(r)
	gameID, err := gameIDParam(r)
	if err != nil {
		http.Error(w, `{"error":"bad_game_id"}`, http.StatusBadRequest)
		return
	}
	var body guessSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.sched.Touch(r.Context(), playerID); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("touch session")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if g, ok := s.sched.ActiveGame(gameID); ok {
		_ = g.SubmitGuesses(playerID, body.Guesses)
	}
	s.writeStatus(w, r, playerID)
}
