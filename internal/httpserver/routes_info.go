// internal/httpserver/routes_info.go
//
// Read-side endpoints: audit logs, listings, and leaderboards.
// Responsibilities:
//   - GET /games/{gameID}/log: the stored game document and event
//     stream, redacted for the calling player (works for live and
//     ended games).
//   - GET /games/completed: ids of games no longer in progress.
//   - GET /players/{playerID}/games: ids of games a player sat in.
//   - GET /clients/active: count of clients inside the activity window.
//   - GET /leaderboards: the three ranking tables.
//
// Notes:
//   - Only the log endpoint needs the caller's identity (redaction is
//     per-reader); the listings are public, matching the original
//     competition protocol.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dhilgart/TWIML-codenames/internal/store"
)

// handleGameLog serves one match's stored record, scrubbed of anything
// the caller is not entitled to see.
func (s *Server) handleGameLog(w http.ResponseWriter, r *http.Request) {
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
	rec, err := s.store.GameRecord(r.Context(), gameID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"game_not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("game_id", gameID).Msg("load game record")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(store.Scrub(rec, playerID))
}

// completedGamesRes is returned by /games/completed.
type completedGamesRes struct {
	GameIDs []int64 `json:"game_ids"`
}

// handleCompletedGames lists the ids of games that finished, by win or
// by timeout.
func (s *Server) handleCompletedGames(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.CompletedGameIDs(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list completed games")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	_ = json.NewEncoder(w).Encode(completedGamesRes{GameIDs: ids})
}

// playerGamesRes is returned by /players/{playerID}/games.
type playerGamesRes struct {
	PlayerID int64   `json:"player_id"`
	GameIDs  []int64 `json:"game_ids"`
}

// handlePlayerGames lists every game the named player sat in, live or
// ended.
func (s *Server) handlePlayerGames(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(chi.URLParam(r, "playerID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"bad_player_id"}`, http.StatusBadRequest)
		return
	}
	ids, err := s.store.PlayerGameIDs(r.Context(), playerID)
	if err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Msg("list player games")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	_ = json.NewEncoder(w).Encode(playerGamesRes{PlayerID: playerID, GameIDs: ids})
}

// handleActiveClients reports how many human clients are currently
// inside the activity window.
func (s *Server) handleActiveClients(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]int{"count": s.sched.ActiveClientCount()})
}

// handleLeaderboards serves the spymaster, operative, and combined
// rankings. An optional ?limit= caps the rows per table.
func (s *Server) handleLeaderboards(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	lbs, err := s.store.Leaderboards(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("assemble leaderboards")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbs)
}
