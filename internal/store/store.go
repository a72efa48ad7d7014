// internal/store/store.go
//
// Persistence interface and shared types for the arena.
// Responsibilities:
//   - Define the Store interface the scheduler and HTTP layer depend on.
//   - Define the stored shape of a match: a game document plus its
//     append-only event list.
//   - Define leaderboard rows and credential seeds.
//
// Implementations:
//   - SQLite (sqlite.go): the production backend.
//   - memory (memory.go): map-backed, for tests and ephemeral runs.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface for matches, players, and client
// credentials. Implementations may be backed by SQLite (sqlite.go),
// memory (memory.go), etc.
type Store interface {
	// NewGameLog creates the stored record for a new match and returns
	// the sink the match writes its document and events through.
	NewGameLog(ctx context.Context, gameID int64) (codenames.Recorder, error)

	// MaxGameID returns the highest allocated game id, or 0 when no
	// match has ever been stored.
	MaxGameID(ctx context.Context) (int64, error)

	// GameRecord retrieves one match's document and ordered events.
	// Returns ErrNotFound for an unknown id.
	GameRecord(ctx context.Context, gameID int64) (*GameRecord, error)

	// CompletedGameIDs lists the ids of matches that are no longer in
	// progress, in ascending order.
	CompletedGameIDs(ctx context.Context) ([]int64, error)

	// PlayerGameIDs lists the ids of matches a player was seated in,
	// in ascending order.
	PlayerGameIDs(ctx context.Context, playerID int64) ([]int64, error)

	// LoadPlayer retrieves a player's ratings and records. Returns
	// (nil, nil) when the player has never been stored.
	LoadPlayer(ctx context.Context, playerID int64) (*codenames.Player, error)

	// SavePlayer upserts a player's ratings and records.
	SavePlayer(ctx context.Context, p *codenames.Player) error

	// Leaderboards returns the top players by spymaster, operative, and
	// combined rating.
	Leaderboards(ctx context.Context, limit int) (Leaderboards, error)

	// KeyHash returns the stored bcrypt hash of a player's API key.
	// Returns ErrNotFound for an unknown player.
	KeyHash(ctx context.Context, playerID int64) (string, error)

	// SeedCredentials inserts credentials that are not already present.
	// Existing rows are left untouched so keys stay stable across boots.
	SeedCredentials(ctx context.Context, creds []Credential) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// GameDoc is the stored document of one match. The match writes it
// incrementally through its Recorder: the static setup at creation,
// then field updates as the match ends.
type GameDoc struct {
	GameID     int64                       `json:"game_id"`
	Teams      [2][2]int64                 `json:"teams"`
	BoardWords [5][5]string                `json:"boardwords"`
	BoardKey   *[5][5]codenames.Team       `json:"boardkey,omitempty"`
	InProgress bool                        `json:"in_progress"`
	Completed  bool                        `json:"completed"`
	StartTime  *time.Time                  `json:"start_time,omitempty"`
	EndTime    *time.Time                  `json:"end_time,omitempty"`
	FinalBoard *[5][5]*codenames.Team      `json:"final_boardmarkers,omitempty"`
	Outcome    *codenames.Outcome          `json:"outcome,omitempty"`
}

// Spymasters returns the two spymaster seats, team 1 first.
func (d *GameDoc) Spymasters() [2]int64 {
	return [2]int64{d.Teams[0][0], d.Teams[1][0]}
}

// HasPlayer reports whether playerID holds any seat in the match.
func (d *GameDoc) HasPlayer(playerID int64) bool {
	for _, team := range d.Teams {
		for _, id := range team {
			if id == playerID {
				return true
			}
		}
	}
	return false
}

// GameRecord is a match document together with its ordered event list.
type GameRecord struct {
	GameDoc
	Events []codenames.Event `json:"events"`
}

// LeaderboardRow is one ranked player.
type LeaderboardRow struct {
	PlayerID int64   `json:"player_id"`
	Rating   float64 `json:"rating"`
	Record   string  `json:"record"`
}

// Leaderboards groups the three rankings served by the API.
type Leaderboards struct {
	Spymasters []LeaderboardRow `json:"spymasters"`
	Operatives []LeaderboardRow `json:"operatives"`
	Combined   []LeaderboardRow `json:"combined"`
}

// Credential seeds one client's API key hash.
type Credential struct {
	PlayerID int64
	KeyHash  string
}
