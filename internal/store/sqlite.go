// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout,
//     foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Persisting game documents, the append-only event log, player
//     ratings, and client credentials.
//
// Notes:
//   - The game document is one JSON blob per match, updated field by
//     field inside a transaction so concurrent matches never clobber
//     each other.
//   - The Recorder returned by NewGameLog is best-effort: persistence
//     failures are logged, never surfaced into the match.

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite is the production Store backend.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database file and
// brings the schema up to date.
//
//   - Ensures the parent directory exists for relative DSNs
//     (e.g. ./data/arena.db).
//   - Configures busy timeout and WAL journaling mode.
//   - Enforces foreign keys.
func OpenSQLite(dsn string) (*SQLite, error) {
	// Ensure directory exists for ./data/arena.db, etc.
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// migrate applies the embedded migrations in lexical order.
//
//   - Uses a _migrations table to track applied files.
//   - Skips files already applied.
//   - Detects "self-managed" scripts (with BEGIN TRANSACTION or
//     PRAGMA FOREIGN_KEYS=OFF) and runs them outside of an outer
//     transaction.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Info().Str("migration", f).Msg("already applied")
			continue
		}
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(migrationsFS, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		sqlText := string(sqlBytes)

		upper := strings.ToUpper(sqlText)
		selfManaged := strings.Contains(upper, "BEGIN TRANSACTION") ||
			strings.Contains(upper, "PRAGMA FOREIGN_KEYS=OFF") ||
			strings.Contains(upper, "PRAGMA FOREIGN_KEYS = OFF")

		if selfManaged {
			if _, err := db.Exec(sqlText); err != nil {
				return fmt.Errorf("apply %s: %w", f, err)
			}
			if _, err := db.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
				return fmt.Errorf("record %s: %w", f, err)
			}
			log.Info().Str("migration", f).Msg("applied (self-managed)")
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(sqlText); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Ping verifies the database file is reachable.
func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// ------------------------------ GAMES ---------------------------------------

// NewGameLog inserts the match row and returns its write sink.
func (s *SQLite) NewGameLog(ctx context.Context, gameID int64) (codenames.Recorder, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO games(game_id, in_progress, doc) VALUES (?, 1, '{}')`, gameID,
	); err != nil {
		return nil, fmt.Errorf("insert game %d: %w", gameID, err)
	}
	return &gameLog{db: s.db, gameID: gameID}, nil
}

// MaxGameID returns the highest allocated game id, or 0 when none exist.
func (s *SQLite) MaxGameID(ctx context.Context) (int64, error) {
	var maxID int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(game_id), 0) FROM games`).Scan(&maxID)
	return maxID, err
}

// GameRecord loads one match document plus its events in order.
func (s *SQLite) GameRecord(ctx context.Context, gameID int64) (*GameRecord, error) {
	var docStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM games WHERE game_id=?`, gameID,
	).Scan(&docStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec := &GameRecord{}
	if err := json.Unmarshal([]byte(docStr), &rec.GameDoc); err != nil {
		return nil, fmt.Errorf("decode game %d doc: %w", gameID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM game_events WHERE game_id=? ORDER BY seq ASC`, gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var evStr string
		if err := rows.Scan(&evStr); err != nil {
			return nil, err
		}
		var ev codenames.Event
		if err := json.Unmarshal([]byte(evStr), &ev); err != nil {
			return nil, fmt.Errorf("decode game %d event: %w", gameID, err)
		}
		rec.Events = append(rec.Events, ev)
	}
	return rec, rows.Err()
}

// CompletedGameIDs lists matches no longer in progress, ascending.
func (s *SQLite) CompletedGameIDs(ctx context.Context) ([]int64, error) {
	return s.gameIDs(ctx, `SELECT game_id FROM games WHERE in_progress=0 ORDER BY game_id ASC`)
}

// PlayerGameIDs lists matches the player was seated in, ascending.
func (s *SQLite) PlayerGameIDs(ctx context.Context, playerID int64) ([]int64, error) {
	return s.gameIDs(ctx, `SELECT game_id FROM game_players WHERE player_id=? ORDER BY game_id ASC`, playerID)
}

func (s *SQLite) gameIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ------------------------------ PLAYERS -------------------------------------

// LoadPlayer restores a player's ratings and records, or (nil, nil) for
// a player never stored.
func (s *SQLite) LoadPlayer(ctx context.Context, playerID int64) (*codenames.Player, error) {
	var sm, op codenames.RoleStats
	err := s.db.QueryRowContext(ctx, `
        SELECT spymaster_rating, spymaster_wins, spymaster_losses,
               operative_rating, operative_wins, operative_losses
        FROM players WHERE player_id=?`, playerID,
	).Scan(&sm.Rating, &sm.Wins, &sm.Losses, &op.Rating, &op.Wins, &op.Losses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return codenames.RestorePlayer(playerID, sm, op), nil
}

// SavePlayer upserts a player's ratings and records.
func (s *SQLite) SavePlayer(ctx context.Context, p *codenames.Player) error {
	sm := p.Stats(codenames.RoleSpymaster)
	op := p.Stats(codenames.RoleOperative)
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO players(player_id,
            spymaster_rating, spymaster_wins, spymaster_losses,
            operative_rating, operative_wins, operative_losses,
            updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(player_id) DO UPDATE SET
            spymaster_rating=excluded.spymaster_rating,
            spymaster_wins=excluded.spymaster_wins,
            spymaster_losses=excluded.spymaster_losses,
            operative_rating=excluded.operative_rating,
            operative_wins=excluded.operative_wins,
            operative_losses=excluded.operative_losses,
            updated_at=CURRENT_TIMESTAMP`,
		p.ID(), sm.Rating, sm.Wins, sm.Losses, op.Rating, op.Wins, op.Losses,
	)
	return err
}

// Leaderboards ranks stored players three ways. Records are formatted
// in Go so the "W-L" shape stays in one place.
func (s *SQLite) Leaderboards(ctx context.Context, limit int) (Leaderboards, error) {
	if limit <= 0 {
		limit = 20
	}
	var lbs Leaderboards
	var err error
	if lbs.Spymasters, err = s.leaderboard(ctx, `
        SELECT player_id, spymaster_rating, spymaster_wins, spymaster_losses
        FROM players ORDER BY spymaster_rating DESC, player_id ASC LIMIT ?`, limit); err != nil {
		return Leaderboards{}, err
	}
	if lbs.Operatives, err = s.leaderboard(ctx, `
        SELECT player_id, operative_rating, operative_wins, operative_losses
        FROM players ORDER BY operative_rating DESC, player_id ASC LIMIT ?`, limit); err != nil {
		return Leaderboards{}, err
	}
	if lbs.Combined, err = s.leaderboard(ctx, `
        SELECT player_id,
               (spymaster_rating + operative_rating) / 2.0 AS rating,
               spymaster_wins + operative_wins,
               spymaster_losses + operative_losses
        FROM players ORDER BY rating DESC, player_id ASC LIMIT ?`, limit); err != nil {
		return Leaderboards{}, err
	}
	return lbs, nil
}

func (s *SQLite) leaderboard(ctx context.Context, query string, limit int) ([]LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var r LeaderboardRow
		var wins, losses int
		if err := rows.Scan(&r.PlayerID, &r.Rating, &wins, &losses); err != nil {
			return nil, err
		}
		r.Record = fmt.Sprintf("%d-%d", wins, losses)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ------------------------------ CREDENTIALS ---------------------------------

// KeyHash returns the stored bcrypt hash of a player's API key.
func (s *SQLite) KeyHash(ctx context.Context, playerID int64) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT key_hash FROM credentials WHERE player_id=?`, playerID,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return hash, err
}

// SeedCredentials inserts credentials not already present. Existing
// rows keep their hash so keys stay stable across boots.
func (s *SQLite) SeedCredentials(ctx context.Context, creds []Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, c := range creds {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO credentials(player_id, key_hash) VALUES (?, ?)`,
			c.PlayerID, c.KeyHash,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("seed credential %d: %w", c.PlayerID, err)
		}
	}
	return tx.Commit()
}

// ------------------------------ GAME LOG SINK -------------------------------

// gameLog is the per-match Recorder bound to one games row. Failures
// are logged and swallowed: a storage hiccup must not stall a match.
type gameLog struct {
	db     *sql.DB
	gameID int64
}

func (l *gameLog) RecordConfig(board *codenames.Board, teamIDs [2][2]int64) {
	if err := l.recordConfig(board, teamIDs); err != nil {
		log.Warn().Err(err).Int64("game_id", l.gameID).Msg("record game config")
	}
}

func (l *gameLog) recordConfig(board *codenames.Board, teamIDs [2][2]int64) error {
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
		return err
	}
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE games SET doc=? WHERE game_id=?`, string(raw), l.gameID); err != nil {
		_ = tx.Rollback()
		return err
	}
	for ti, team := range teamIDs {
		for ri, pid := range team {
			role := codenames.RoleSpymaster
			if ri == 1 {
				role = codenames.RoleOperative
			}
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO game_players(game_id, player_id, team, role) VALUES (?, ?, ?, ?)`,
				l.gameID, pid, ti+1, string(role),
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

func (l *gameLog) SetField(name string, value any) {
	if err := l.setField(name, value); err != nil {
		log.Warn().Err(err).Int64("game_id", l.gameID).Str("field", name).Msg("set game field")
	}
}

// setField merges one field into the stored JSON document inside a
// transaction. The in_progress and completed booleans are mirrored into
// their columns so listings never parse JSON.
func (l *gameLog) setField(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	var docStr string
	if err := tx.QueryRow(`SELECT doc FROM games WHERE game_id=?`, l.gameID).Scan(&docStr); err != nil {
		_ = tx.Rollback()
		return err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(docStr), &doc); err != nil {
		_ = tx.Rollback()
		return err
	}
	doc[name] = raw
	merged, err := json.Marshal(doc)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`UPDATE games SET doc=? WHERE game_id=?`, string(merged), l.gameID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if b, ok := value.(bool); ok {
		switch name {
		case "in_progress":
			if _, err := tx.Exec(`UPDATE games SET in_progress=? WHERE game_id=?`, b, l.gameID); err != nil {
				_ = tx.Rollback()
				return err
			}
		case "completed":
			if _, err := tx.Exec(`UPDATE games SET completed=? WHERE game_id=?`, b, l.gameID); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

func (l *gameLog) AppendEvent(ev codenames.Event) {
	if err := l.appendEvent(ev); err != nil {
		log.Warn().Err(err).Int64("game_id", l.gameID).Str("event", string(ev.Kind)).Msg("append game event")
	}
}

// appendEvent allocates the next sequence number and inserts in one
// transaction, so concurrent matches on the same database keep gapless
// per-game ordering.
func (l *gameLog) appendEvent(ev codenames.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	var seq int64
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM game_events WHERE game_id=?`, l.gameID,
	).Scan(&seq); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO game_events(game_id, seq, recorded_at, doc) VALUES (?, ?, ?, ?)`,
		l.gameID, seq, ev.At, string(raw),
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
