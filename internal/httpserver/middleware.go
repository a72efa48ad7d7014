// internal/httpserver/middleware.go
//
// Request middleware for the arena server.
// Responsibilities:
//   - requirePlayer: resolve the calling player from a bearer JWT or
//     from the player_id/player_key query pair, and reject the rest.
//   - rateLimit: per-client token bucket keyed by IP.
//   - timeRequests: feed the latency histogram by chi route pattern.

package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/dhilgart/TWIML-codenames/internal/metrics"
)

// ctxPlayerKey is the context key type for the authenticated player id.
type ctxPlayerKey struct{}

// requirePlayer enforces player identity and injects the player id into
// the request context. A bearer token wins when present; otherwise the
// player_id/player_key query pair is checked against the stored hash,
// which is the shape bot clients used before token exchange existed.
func (s *Server) requirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		playerID, ok := s.authenticate(r)
		if !ok {
			http.Error(w, `{"error":"incorrect player_id/player_key"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxPlayerKey{}, playerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticate(r *http.Request) (int64, bool) {
	if tok := bearerToken(r); tok != "" {
		claims := jwt.MapClaims{}
		t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
		})
		if err != nil || !t.Valid {
			return 0, false
		}
		id, ok := claims["player_id"].(float64)
		if !ok || id <= 0 {
			return 0, false
		}
		return int64(id), true
	}

	q := r.URL.Query()
	playerID, err := strconv.ParseInt(q.Get("player_id"), 10, 64)
	if err != nil {
		return 0, false
	}
	if !s.checkKey(r.Context(), playerID, q.Get("player_key")) {
		return 0, false
	}
	return playerID, true
}

// playerFrom returns the authenticated player id placed by requirePlayer.
func playerFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxPlayerKey{}).(int64)
	return id
}

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	a := r.Header.Get("Authorization")
	if len(a) > len(prefix) && a[:len(prefix)] == prefix {
		return a[len(prefix):]
	}
	return ""
}

// ------------------------------ RATE LIMIT ----------------------------------

// getLimiter returns a rate limiter for the given key (usually client IP).
func (s *Server) getLimiter(key string) *rate.Limiter {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	if lim, ok := s.limiters[key]; ok {
		return lim
	}
	rps := s.rateRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), s.rateBurst)
	s.limiters[key] = lim
	return lim
}

// rateLimit enforces the per-client request budget. Polling clients
// hammer /status, so the budget is generous but real.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !s.getLimiter(key).Allow() {
			http.Error(w, `{"error":"too_many_requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ TIMING --------------------------------------

// timeRequests observes request latency labeled by the chi route
// pattern, so /games/100001/clue and /games/100002/clue share a series.
func timeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
