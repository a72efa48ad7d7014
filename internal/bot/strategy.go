// internal/bot/strategy.go
//
// Player strategies for the bundled bot client.
// Responsibilities:
//   - Define the Strategy contract a bot plays through: produce a clue
//     from the keyed board, produce ordered guesses from the clue and
//     the unrevealed words.
//   - Provide the random baseline used to pad short pools.
//
// Notes:
//   - Strategies are the external policy the arena referees; the server
//     never calls them. A bot is an ordinary polling client.

package bot

import (
	"math/rand"
	"strings"

	"github.com/dhilgart/TWIML-codenames/internal/codenames"
)

// Strategy produces the two kinds of turn input a player owes the arena.
type Strategy interface {
	// Clue picks a clue word and declared count from the spymaster's
	// keyed view of the board.
	Clue(in codenames.ClueInputs) (word string, count int)
	// Guesses orders candidate words from the operative's view. The
	// arena spends its guess budget on them first to last.
	Guesses(in codenames.GuessInputs) []string
}

// Random is the baseline strategy: legal-looking clues drawn at random
// from a vocabulary, guesses drawn at random from the unrevealed words.
// It wins no prizes; it keeps early-started matches moving.
type Random struct {
	vocab []string
	rng   *rand.Rand
}

// NewRandom builds a baseline strategy over vocab.
func NewRandom(vocab []string, rng *rand.Rand) *Random {
	return &Random{vocab: vocab, rng: rng}
}

// Clue declares a count matching up to three of the team's remaining
// words and picks a vocabulary word that passes the substring rules
// against the board. The lemma rule is left to the referee; a rare
// forfeit costs the bot one turn.
func (b *Random) Clue(in codenames.ClueInputs) (string, int) {
	unrevealed := unrevealedFromView(in.Board)
	own := 0
	if in.Board.Key != nil {
		for r := 0; r < codenames.Rows; r++ {
			for c := 0; c < codenames.Cols; c++ {
				if in.Board.Markers[r][c] == nil && in.Board.Key[r][c] == in.Team {
					own++
				}
			}
		}
	}
	count := 1 + b.rng.Intn(3)
	if own > 0 && count > own {
		count = own
	}

	for tries := 0; tries < 50; tries++ {
		w := b.vocab[b.rng.Intn(len(b.vocab))]
		if strings.ContainsAny(w, " -") {
			continue
		}
		if substringConflict(w, unrevealed) {
			continue
		}
		return w, count
	}
	// A conflicted pick forfeits the turn; the match carries on.
	return b.vocab[b.rng.Intn(len(b.vocab))], count
}

// Guesses returns a random ordering of up to count+1 unrevealed words,
// or a single stab when the clue declares no limit.
func (b *Random) Guesses(in codenames.GuessInputs) []string {
	n := in.Clue.Count
	if n == 0 || n == codenames.UnlimitedClueCount {
		n = 1
	}
	words := append([]string{}, in.Unrevealed...)
	b.rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	if n > len(words) {
		n = len(words)
	}
	return words[:n]
}

// unrevealedFromView lists the words whose marker cells are still nil.
func unrevealedFromView(v codenames.BoardView) []string {
	var out []string
	for r := 0; r < codenames.Rows; r++ {
		for c := 0; c < codenames.Cols; c++ {
			if v.Markers[r][c] == nil {
				out = append(out, v.Words[r][c])
			}
		}
	}
	return out
}

// substringConflict mirrors the referee's substring rule so the bot
// avoids obvious forfeits.
func substringConflict(clue string, unrevealed []string) bool {
	c := strings.ToLower(clue)
	for _, w := range unrevealed {
		bw := strings.ToLower(w)
		if strings.Contains(bw, c) || strings.Contains(c, bw) {
			return true
		}
	}
	return false
}
