// internal/codenames/board.go
//
// Board state for a single match.
// Responsibilities:
//   - Generate the 5x5 word grid and ownership key from a word pool.
//   - Reveal words exactly once and report their ownership.
//   - Answer unrevealed-word and remaining-count queries.
//   - Produce read-only views, with the key included only for spymasters.
//
// Notes:
//   - Words are normalized to lowercase at generation time; lookups
//     lowercase their argument, so reveals are case-insensitive.
//   - The key is fixed at creation: 9 cells for team 1, 8 for team 2,
//     7 neutral, 1 assassin. Team 1 gets the extra word and opens.

package codenames

import (
	"fmt"
	"math/rand"
	"strings"
)

// Board dimensions.
const (
	Rows = 5
	Cols = 5
)

const boardSize = Rows * Cols

// Cells per ownership category, summing to the board size.
const (
	team1Cells    = 9
	team2Cells    = 8
	neutralCells  = 7
	assassinCells = 1
)

// Board holds one match's immutable layout and its reveal overlay.
type Board struct {
	words    [Rows][Cols]string
	key      [Rows][Cols]Team
	revealed [Rows][Cols]bool
	cells    map[string][2]int // lowercase word -> (row, col)
}

// NewBoard samples 25 distinct words without replacement from pool and
// lays a shuffled ownership key over them. Fails when the pool cannot
// fill the board; a malformed board is never produced.
func NewBoard(pool []string, rng *rand.Rand) (*Board, error) {
	if len(pool) < boardSize {
		return nil, fmt.Errorf("word pool too small: have %d words, need %d", len(pool), boardSize)
	}

	picks := rng.Perm(len(pool))[:boardSize]

	owners := make([]Team, 0, boardSize)
	for i := 0; i < team1Cells; i++ {
		owners = append(owners, Team1)
	}
	for i := 0; i < team2Cells; i++ {
		owners = append(owners, Team2)
	}
	for i := 0; i < neutralCells; i++ {
		owners = append(owners, TeamNeutral)
	}
	for i := 0; i < assassinCells; i++ {
		owners = append(owners, TeamAssassin)
	}
	rng.Shuffle(len(owners), func(i, j int) { owners[i], owners[j] = owners[j], owners[i] })

	b := &Board{cells: make(map[string][2]int, boardSize)}
	for i, pick := range picks {
		r, c := i/Cols, i%Cols
		w := strings.ToLower(strings.TrimSpace(pool[pick]))
		if _, dup := b.cells[w]; dup {
			return nil, fmt.Errorf("word pool contains duplicate entry %q", w)
		}
		b.words[r][c] = w
		b.key[r][c] = owners[i]
		b.cells[w] = [2]int{r, c}
	}
	return b, nil
}

// Reveal marks word as revealed and returns its ownership category.
// The word must be on the board and still hidden; callers screen
// candidates with IsUnrevealed first.
func (b *Board) Reveal(word string) (Team, error) {
	rc, ok := b.cells[normalizeWord(word)]
	if !ok {
		return TeamNeutral, fmt.Errorf("word %q is not on the board", word)
	}
	if b.revealed[rc[0]][rc[1]] {
		return TeamNeutral, fmt.Errorf("word %q is already revealed", word)
	}
	b.revealed[rc[0]][rc[1]] = true
	return b.key[rc[0]][rc[1]], nil
}

// IsUnrevealed reports whether word is on the board and still hidden.
func (b *Board) IsUnrevealed(word string) bool {
	rc, ok := b.cells[normalizeWord(word)]
	return ok && !b.revealed[rc[0]][rc[1]]
}

// Unrevealed returns every hidden word in row-major order. This is the
// word surface an operative sees and the set legality checks run over.
func (b *Board) Unrevealed() []string {
	out := make([]string, 0, boardSize)
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if !b.revealed[r][c] {
				out = append(out, b.words[r][c])
			}
		}
	}
	return out
}

// UnrevealedOwnedBy returns the hidden words whose cells belong to t.
func (b *Board) UnrevealedOwnedBy(t Team) []string {
	var out []string
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if !b.revealed[r][c] && b.key[r][c] == t {
				out = append(out, b.words[r][c])
			}
		}
	}
	return out
}

// Remaining counts the hidden cells owned by t.
func (b *Board) Remaining(t Team) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if !b.revealed[r][c] && b.key[r][c] == t {
				n++
			}
		}
	}
	return n
}

// BoardView is a copyable snapshot of board state. Markers mirror the
// reveal overlay: nil while a cell is hidden, the owning category once
// revealed. Key is nil on operative-facing views.
type BoardView struct {
	Words   [Rows][Cols]string `json:"boardwords"`
	Key     *[Rows][Cols]Team  `json:"boardkey,omitempty"`
	Markers [Rows][Cols]*Team  `json:"boardmarkers"`
}

// View snapshots the board. includeKey is true only for spymaster
// payloads and for the audit log.
func (b *Board) View(includeKey bool) BoardView {
	v := BoardView{Words: b.words}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b.revealed[r][c] {
				owner := b.key[r][c]
				v.Markers[r][c] = &owner
			}
		}
	}
	if includeKey {
		key := b.key
		v.Key = &key
	}
	return v
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
