// internal/httpserver/server.go
//
// HTTP server wiring for the competition arena.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery,
//     request IDs, per-client rate limiting, request timing).
//   - Public endpoints: "/", "/health", "/metrics", and the listing
//     endpoints (completed games, games by player, active client count,
//     leaderboards).
//   - Token exchange: POST /auth/token trades a player key for a JWT.
//   - Competition endpoints (require player identity): /status, the
//     clue and guess turn endpoints, and the per-game log.
//
// Notes:
//   - CORS is origin-aware; bot clients normally bypass it entirely.
//   - Turn endpoints answer out-of-turn and ended-game calls with the
//     player's authoritative status rather than an error, which is what
//     resynchronizes a confused client.

package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/dhilgart/TWIML-codenames/internal/arena"
	"github.com/dhilgart/TWIML-codenames/internal/store"
	"github.com/dhilgart/TWIML-codenames/internal/words"
)

// Server bundles the router, the scheduler, and the store.
type Server struct {
	r     *chi.Mux
	sched *arena.Scheduler
	store store.Store

	rateRPS   int
	rateBurst int
	limMu     sync.Mutex
	limiters  map[string]*rate.Limiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(sched *arena.Scheduler, st store.Store) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		sched:     sched,
		store:     st,
		rateRPS:   getEnvInt("RATE_LIMIT_RPS", 20),
		rateBurst: getEnvInt("RATE_LIMIT_BURST", 40),
		limiters:  make(map[string]*rate.Limiter),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // origin-aware CORS
	s.r.Use(s.rateLimit)                     // per-client request budget
	s.r.Use(timeRequests)                    // latency histogram by route

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"codenames-arena","endpoints":["/health","/metrics","POST /auth/token","/status","/games/{game_id}/clue","/games/{game_id}/guesses","/games/{game_id}/log","/games/completed","/players/{player_id}/games","/clients/active","/leaderboards"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Ping(r.Context()); err != nil {
			http.Error(w, `{"ok":false}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Token exchange
	s.r.Post("/auth/token", s.handleToken)

	// Competition protocol — requires player identity (JWT or key pair)
	s.r.Group(func(r chi.Router) {
		r.Use(s.requirePlayer)
		r.Get("/status", s.handleStatus)
		r.Get("/games/{gameID}/clue", s.handleClueInputs)
		r.Post("/games/{gameID}/clue", s.handleClueSubmit)
		r.Get("/games/{gameID}/guesses", s.handleGuessInputs)
		r.Post("/games/{gameID}/guesses", s.handleGuessSubmit)
		r.Get("/games/{gameID}/log", s.handleGameLog)
	})

	// Public listings
	s.r.Get("/games/completed", s.handleCompletedGames)
	s.r.Get("/players/{playerID}/games", s.handlePlayerGames)
	s.r.Get("/clients/active", s.handleActiveClients)
	s.r.Get("/leaderboards", s.handleLeaderboards)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: word pool count
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"pool": words.Count()})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt returns k parsed as int, or def if unset or unparsable.
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
