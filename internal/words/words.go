// internal/words/words.go
//
// Provides the board word pool for match creation.
//
// Responsibilities:
//   - Load the pool from an environment-provided file or fall back to
//     the embedded default list.
//   - Normalize entries to lowercase and drop duplicates so every board
//     draws from distinct words.
//   - Supply Pool, Count, and Contains for the scheduler and tests.
//
// Initialization behavior (Init):
//   1. If BOARD_WORDS_FILE is set, load one word per line from it.
//   2. Otherwise fall back to the embedded default from `wordpool.txt`.
//
// Environment variables:
//   BOARD_WORDS_FILE=/path/to/words.txt
//
// Constraints:
//   • Entries are lowercase letters, with internal spaces or hyphens
//     allowed for multi-word entries.
//   • A pool needs at least 25 entries to fill a board.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MinPoolSize is the smallest pool that can fill one board.
const MinPoolSize = 25

//go:embed wordpool.txt
var embeddedPool string

var (
	initOnce   sync.Once
	pool       []string
	poolSet    map[string]struct{}
	initialErr error
)

// Init loads the word pool exactly once.
// Returns an error if the pool ends up smaller than a board.
func Init() error {
	initOnce.Do(func() {
		var list []string

		if path := os.Getenv("BOARD_WORDS_FILE"); path != "" {
			var err error
			list, err = readWordFile(path)
			if err != nil {
				initialErr = err
				return
			}
		} else {
			list = normalizeLines(embeddedPool)
		}

		pool = dedupe(list)
		poolSet = toSet(pool)

		if len(pool) < MinPoolSize {
			initialErr = fmt.Errorf("words: pool has %d entries, need at least %d", len(pool), MinPoolSize)
		}
	})
	return initialErr
}

// readWordFile loads one word per line from a file,
// lowercases, trims, and keeps only valid entries.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToLower(sc.Text()))
		if isWord(w) {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

// normalizeLines processes an embedded multiline string
// into a slice of valid lowercase entries.
func normalizeLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		w := strings.TrimSpace(strings.ToLower(line))
		if isWord(w) {
			out = append(out, w)
		}
	}
	return out
}

// dedupe keeps the first occurrence of each entry, preserving order.
func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isWord reports whether s is lowercase letters with optional internal
// spaces or hyphens.
func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != ' ' && r != '-' {
			return false
		}
	}
	return s[0] != ' ' && s[0] != '-' && s[len(s)-1] != ' ' && s[len(s)-1] != '-'
}

// Pool returns a copy of the loaded pool so callers can shuffle or
// slice it freely.
func Pool() []string {
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}

// Count returns the number of loaded entries.
func Count() int { return len(pool) }

// Contains reports whether w is in the pool.
func Contains(w string) bool {
	_, ok := poolSet[strings.ToLower(strings.TrimSpace(w))]
	return ok
}
