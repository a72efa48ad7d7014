// internal/metrics/metrics.go
//
// Prometheus collectors for the arena, exposed on /metrics.
// Responsibilities:
//   - Count match lifecycle transitions and rejected clues.
//   - Track the live client and match population.
//   - Time HTTP requests by route.
//
// Notes:
//   - The match engine stays metrics-free; counters move only at the
//     scheduler and HTTP edges.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchesStarted counts matches the scheduler has formed.
	MatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_started_total",
		Help: "Matches formed by the scheduler.",
	})

	// MatchesCompleted counts matches that ended with a winner.
	MatchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_completed_total",
		Help: "Matches that ended with a winner.",
	})

	// MatchesTimedOut counts matches ended by the wait clock.
	MatchesTimedOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_matches_timed_out_total",
		Help: "Matches ended because a player stopped responding.",
	})

	// CluesRejected counts clue submissions ruled illegal.
	CluesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_clues_rejected_total",
		Help: "Clue submissions ruled illegal and forfeited.",
	})

	// ActiveMatches tracks matches currently in progress.
	ActiveMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_active_matches",
		Help: "Matches currently in progress.",
	})

	// ActiveClients tracks clients seen inside the activity window.
	ActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_active_clients",
		Help: "Clients seen inside the activity window.",
	})

	// HTTPDuration times requests by chi route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)
