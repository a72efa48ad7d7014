// cmd/arenabot/main.go
//
// Polling bot client for the codenames arena.
// Responsibilities:
//   - Poll /status on an interval with player_id/player_key auth.
//   - When a seated match is waiting on this player, fetch the matching
//     inputs endpoint, run the strategy, and post the answer.
//
// Notes:
//   - This is the reference client for the wire protocol and the runner
//     behind the reserved bot ids that pad short matchmaking pools. Run
//     one process per bot id.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dhilgart/TWIML-codenames/internal/arena"
	"github.com/dhilgart/TWIML-codenames/internal/bot"
	"github.com/dhilgart/TWIML-codenames/internal/codenames"
	"github.com/dhilgart/TWIML-codenames/internal/words"
)

// envelope is the wire shape every protocol endpoint answers with.
type envelope struct {
	Kind        string                 `json:"kind"`
	ClueInputs  *codenames.ClueInputs  `json:"clue_inputs,omitempty"`
	GuessInputs *codenames.GuessInputs `json:"guess_inputs,omitempty"`
	Status      *arena.StatusResponse  `json:"status,omitempty"`
}

type client struct {
	baseURL   string
	playerID  int64
	playerKey string
	http      *http.Client
	strategy  bot.Strategy
}

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	playerID, err := strconv.ParseInt(os.Getenv("PLAYER_ID"), 10, 64)
	if err != nil {
		log.Fatal().Msg("PLAYER_ID must be set to this bot's player id")
	}
	playerKey := os.Getenv("PLAYER_KEY")
	if playerKey == "" {
		log.Fatal().Msg("PLAYER_KEY must be set")
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load vocabulary")
	}

	c := &client{
		baseURL:   getEnv("SERVER_URL", "http://localhost:8000"),
		playerID:  playerID,
		playerKey: playerKey,
		http:      &http.Client{Timeout: 10 * time.Second},
		strategy:  bot.NewRandom(words.Pool(), rand.New(rand.NewSource(time.Now().UnixNano()))),
	}

	interval := time.Duration(envInt("POLL_INTERVAL_SECONDS", 5)) * time.Second
	log.Info().Int64("player_id", playerID).Str("server", c.baseURL).Msg("arenabot polling")
	for {
		if err := c.pollOnce(); err != nil {
			log.Warn().Err(err).Msg("poll failed")
		}
		time.Sleep(interval)
	}
}

// pollOnce fetches status and plays every turn currently owed.
func (c *client) pollOnce() error {
	var env envelope
	if err := c.get("/status", &env); err != nil {
		return err
	}
	if env.Status == nil {
		return fmt.Errorf("status poll answered kind %q", env.Kind)
	}
	for gameID, gs := range env.Status.ActiveGames {
		if gs.WaitingOn.PlayerID != c.playerID {
			continue
		}
		if err := c.playTurn(gameID); err != nil {
			log.Warn().Err(err).Int64("game_id", gameID).Msg("turn failed")
		}
	}
	return nil
}

// playTurn fetches whichever inputs the match is waiting to hand this
// player and answers them. A "status" reply means the turn moved on
// under us; the next poll resynchronizes.
func (c *client) playTurn(gameID int64) error {
	base := fmt.Sprintf("/games/%d", gameID)

	var env envelope
	if err := c.get(base+"/clue", &env); err != nil {
		return err
	}
	if env.ClueInputs != nil {
		word, count := c.strategy.Clue(*env.ClueInputs)
		log.Info().Int64("game_id", gameID).Str("clue", word).Int("count", count).Msg("submitting clue")
		return c.post(base+"/clue", map[string]any{"clue_word": word, "clue_count": count})
	}

	if err := c.get(base+"/guesses", &env); err != nil {
		return err
	}
	if env.GuessInputs != nil {
		guesses := c.strategy.Guesses(*env.GuessInputs)
		log.Info().Int64("game_id", gameID).Strs("guesses", guesses).Msg("submitting guesses")
		return c.post(base+"/guesses", map[string]any{"guesses": guesses})
	}
	return nil
}

func (c *client) url(path string) string {
	return c.baseURL + path + "?" + url.Values{
		"player_id":  {strconv.FormatInt(c.playerID, 10)},
		"player_key": {c.playerKey},
	}.Encode()
}

func (c *client) get(path string, out *envelope) error {
	res, err := c.http.Get(c.url(path))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *client) post(path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	res, err := c.http.Post(c.url(path), "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: %s", path, res.Status)
	}
	return nil
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
