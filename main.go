// main.go
//
// Entrypoint for the codenames arena server.
// Responsibilities:
//   - Load .env configuration and set the global log level.
//   - Initialize the word pool, the English lemmatizer, and the SQLite
//     store (migrations included).
//   - Seed client credentials from the PLAYER_KEYS_FILE csv, hashing
//     keys at rest.
//   - Wire the scheduler and the HTTP server, then serve until a
//     shutdown signal lands.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/dhilgart/TWIML-codenames/internal/arena"
	"github.com/dhilgart/TWIML-codenames/internal/httpserver"
	"github.com/dhilgart/TWIML-codenames/internal/lexicon"
	"github.com/dhilgart/TWIML-codenames/internal/store"
	"github.com/dhilgart/TWIML-codenames/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load board word pool")
	}

	lem, err := lexicon.NewEnglish()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load lemmatizer dictionary")
	}

	st, err := store.OpenSQLite(getEnv("SQLITE_PATH", "./data/arena.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open sqlite store")
	}
	defer st.Close()

	ctx := context.Background()
	if path := os.Getenv("PLAYER_KEYS_FILE"); path != "" {
		n, err := seedCredentials(ctx, st, path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to seed player keys")
		}
		log.Info().Int("count", n).Str("file", path).Msg("player keys seeded")
	}

	cfg := arena.Config{
		ActiveWindow:            envDur("ACTIVE_WINDOW_SECONDS", 300),
		MinPoolSize:             envInt("MIN_CLIENTS_TO_START", 6),
		MaxActiveGamesPerPlayer: envInt("MAX_ACTIVE_GAMES_PER_PLAYER", 1),
		FirstGameWait:           envDur("FIRST_GAME_WAIT_SECONDS", 10),
		NextGameWait:            envDur("NEXT_GAME_WAIT_SECONDS", 600),
		BotPlayerIDs:            envIDs("BOT_PLAYER_IDS", []int64{1, 2, 3}),
	}
	sched, err := arena.New(ctx, cfg, st, lem, words.Pool(), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scheduler")
	}

	srv := httpserver.New(sched, st)
	port := getEnv("PORT", "8000")
	httpSrv := &http.Server{Addr: ":" + port, Handler: srv.Router()}

	go func() {
		log.Info().Str("port", port).Int("words", words.Count()).Msg("starting arena server")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("arena server stopped")
}

// seedCredentials loads a "player_id,player_key" csv and inserts any
// missing credential rows with the key hashed. Existing rows keep their
// hash so competitors' keys stay stable across restarts.
func seedCredentials(ctx context.Context, st store.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return 0, err
	}
	var creds []store.Credential
	for i, row := range rows {
		if len(row) < 2 {
			return 0, fmt.Errorf("line %d: want player_id,player_key", i+1)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return 0, fmt.Errorf("line %d: bad player_id: %w", i+1, err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(row[1])), bcrypt.DefaultCost)
		if err != nil {
			return 0, err
		}
		creds = append(creds, store.Credential{PlayerID: id, KeyHash: string(hash)})
	}
	if err := st.SeedCredentials(ctx, creds); err != nil {
		return 0, err
	}
	return len(creds), nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDur(k string, defSeconds int) time.Duration {
	return time.Duration(envInt(k, defSeconds)) * time.Second
}

func envIDs(k string, def []int64) []int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			log.Warn().Str("var", k).Str("value", part).Msg("skipping unparsable player id")
			continue
		}
		out = append(out, id)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
