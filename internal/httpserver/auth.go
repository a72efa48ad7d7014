// internal/httpserver/auth.go
//
// Player key verification and JWT issue for the arena.
// Responsibilities:
//   - POST /auth/token: trade a player_id/player_key pair for a signed
//     bearer token, so polling clients pay the bcrypt cost once.
//   - checkKey: verify a key against the stored bcrypt hash.
//
// Notes:
//   - Keys are distributed to competitors out of band and seeded into
//     the credentials table at boot.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Request/response payloads for POST /auth/token.
type tokenReq struct {
	PlayerID  int64  `json:"player_id"`
	PlayerKey string `json:"player_key"`
}
type tokenRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleToken verifies a player key and answers with a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if !s.checkKey(r.Context(), req.PlayerID, req.PlayerKey) {
		http.Error(w, `{"error":"incorrect player_id/player_key"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := signJWT(req.PlayerID)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(tokenRes{Token: tok, ExpiresAt: exp})
}

// checkKey verifies a player key against the stored bcrypt hash.
// Unknown players fail closed.
func (s *Server) checkKey(ctx context.Context, playerID int64, key string) bool {
	hash, err := s.store.KeyHash(ctx, playerID)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// signJWT creates an HS256 JWT carrying the player id, expiring after
// TOKEN_TTL_HOURS (default 24).
func signJWT(playerID int64) (string, time.Time, error) {
	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	hours := 24
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hours = n
		}
	}
	exp := time.Now().Add(time.Duration(hours) * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"player_id": playerID,
		"exp":       exp.Unix(),
		"iat":       time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}
