// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral arenas,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Game documents live as JSON field maps so reads go through the
//     same encode/decode path as the SQLite backend.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes
//     exclusive).
//   - Player saves and loads copy, so stored state never aliases a live
//     match's players.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

// memoryGame is one match's stored state.
type memoryGame struct {
	doc        map[string]json.RawMessage
	events     []codenames.Event
	seats      [2][2]int64
	inProgress bool
}

// Memory is a map-backed Store.
type Memory struct {
	mu      sync.RWMutex
	games   map[int64]*memoryGame
	players map[int64]*codenames.Player
	creds   map[int64]string
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		games:   make(map[int64]*memoryGame),
		players: make(map[int64]*codenames.Player),
		creds:   make(map[int64]string),
	}
}

func (m *Memory) Close() error                   { return nil }
func (m *Memory) Ping(ctx context.Context) error { return nil }

// NewGameLog registers the match and returns its write sink.
func (m *Memory) NewGameLog(ctx context.Context, gameID int64) (codenames.Recorder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[gameID] = &memoryGame{doc: make(map[string]json.RawMessage), inProgress: true}
	return &memoryLog{store: m, gameID: gameID}, nil
}

// MaxGameID returns the highest registered game id, or 0 when none.
func (m *Memory) MaxGameID(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var maxID int64
	for id := range m.games {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

// GameRecord materializes the stored field map into the typed document.
func (m *Memory) GameRecord(ctx context.Context, gameID int64) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	raw, err := json.Marshal(g.doc)
	if err != nil {
		return nil, err
	}
	rec := &GameRecord{}
	if err := json.Unmarshal(raw, &rec.GameDoc); err != nil {
		return nil, err
	}
	rec.Events = append(rec.Events, g.events...)
	return rec, nil
}

// CompletedGameIDs lists matches no longer in progress, ascending.
func (m *Memory) CompletedGameIDs(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for id, g := range m.games {
		if !g.inProgress {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// PlayerGameIDs lists matches the player was seated in, ascending.
func (m *Memory) PlayerGameIDs(ctx context.Context, playerID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for id, g := range m.games {
		for _, team := range g.seats {
			if team[0] == playerID || team[1] == playerID {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// LoadPlayer returns a copy of the stored player, or (nil, nil) when
// the player has never been saved.
func (m *Memory) LoadPlayer(ctx context.Context, playerID int64) (*codenames.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return nil, nil
	}
	return codenames.RestorePlayer(playerID, p.Stats(codenames.RoleSpymaster), p.Stats(codenames.RoleOperative)), nil
}

// SavePlayer stores a snapshot of the player's current stats.
func (m *Memory) SavePlayer(ctx context.Context, p *codenames.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID()] = codenames.RestorePlayer(p.ID(), p.Stats(codenames.RoleSpymaster), p.Stats(codenames.RoleOperative))
	return nil
}

// Leaderboards ranks stored players three ways.
func (m *Memory) Leaderboards(ctx context.Context, limit int) (Leaderboards, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Leaderboards{
		Spymasters: m.rank(limit, func(p *codenames.Player) (float64, codenames.RoleStats) {
			s := p.Stats(codenames.RoleSpymaster)
			return s.Rating, s
		}),
		Operatives: m.rank(limit, func(p *codenames.Player) (float64, codenames.RoleStats) {
			s := p.Stats(codenames.RoleOperative)
			return s.Rating, s
		}),
		Combined: m.rank(limit, func(p *codenames.Player) (float64, codenames.RoleStats) {
			sm := p.Stats(codenames.RoleSpymaster)
			op := p.Stats(codenames.RoleOperative)
			return (sm.Rating + op.Rating) / 2, codenames.RoleStats{
				Wins:   sm.Wins + op.Wins,
				Losses: sm.Losses + op.Losses,
			}
		}),
	}, nil
}

// rank builds one ordered leaderboard. Callers hold the read lock.
func (m *Memory) rank(limit int, pick func(*codenames.Player) (float64, codenames.RoleStats)) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(m.players))
	for id, p := range m.players {
		rating, stats := pick(p)
		rows = append(rows, LeaderboardRow{PlayerID: id, Rating: rating, Record: stats.Record()})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// KeyHash returns the stored key hash for a player.
func (m *Memory) KeyHash(ctx context.Context, playerID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hash, ok := m.creds[playerID]
	if !ok {
		return "", ErrNotFound
	}
	return hash, nil
}

// SeedCredentials inserts credentials not already present.
func (m *Memory) SeedCredentials(ctx context.Context, creds []Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range creds {
		if _, ok := m.creds[c.PlayerID]; !ok {
			m.creds[c.PlayerID] = c.KeyHash
		}
	}
	return nil
}

// memoryLog is the per-match Recorder for the memory backend. It
// mirrors the SQLite sink's document semantics: fields merge into a
// JSON map, events append in order.
type memoryLog struct {
	store  *Memory
	gameID int64
}

func (l *memoryLog) game() *memoryGame { return l.store.games[l.gameID] }

func (l *memoryLog) RecordConfig(board *codenames.Board, teamIDs [2][2]int64) {
	view := board.View(true)
	doc := GameDoc{
		GameID:     l.gameID,
		Teams:      teamIDs,
		BoardWords: view.Words,
		BoardKey:   view.Key,
		InProgress: true,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		log.Warn().Err(err).Int64("game_id", l.gameID).Msg("record game config")
		return
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Warn().Err(err).Int64("game_id", l.gameID).Msg("record game config")
		return
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	g := l.game()
	g.doc = fields
	g.seats = teamIDs
}

func (l *memoryLog) SetField(name string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Int64("game_id", l.gameID).Str("field", name).Msg("set game field")
		return
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	g := l.game()
	g.doc[name] = raw
	if b, ok := value.(bool); ok && name == "in_progress" {
		g.inProgress = b
	}
}

func (l *memoryLog) AppendEvent(ev codenames.Event) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	g := l.game()
	g.events = append(g.events, ev)
}
