// internal/codenames/clue.go
//
// Clue legality checking.
// A clue must be a single unhyphenated token, must not contain or be
// contained by any unrevealed board word, and must not share a
// dictionary lemma with any unrevealed board word under any of the five
// part-of-speech categories. The verdict names the rule and the board
// word behind an illegal call so the audit log can show the clue-giver
// exactly what disqualified it.

package codenames

import (
	"fmt"
	"strings"

	"github.com/dhilgart/TWIML-codenames/internal/lexicon"
)

// ClueRule identifies which legality rule an illegal clue violated.
type ClueRule string

const (
	RuleMultiToken  ClueRule = "multi_token"
	RuleSubstring   ClueRule = "substring"
	RuleSharedLemma ClueRule = "shared_lemma"
)

// ClueVerdict is the outcome of a legality check. Rule and Conflict are
// set only on illegal verdicts; Conflict stays empty for the token rule,
// which needs no board word to trigger.
type ClueVerdict struct {
	Legal    bool     `json:"legal"`
	Rule     ClueRule `json:"rule,omitempty"`
	Conflict string   `json:"conflict,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// CheckClue applies the legality rules to a candidate clue against the
// currently unrevealed board words. The check is team-blind: it sees the
// words, never the key. Comparisons are case-insensitive.
func CheckClue(clue string, unrevealed []string, lem lexicon.Lemmatizer) ClueVerdict {
	c := strings.ToLower(strings.TrimSpace(clue))

	if strings.ContainsAny(c, " -") {
		return ClueVerdict{
			Rule:   RuleMultiToken,
			Reason: "clue must be a single unhyphenated word",
		}
	}

	for _, w := range unrevealed {
		bw := strings.ToLower(w)
		if strings.Contains(bw, c) {
			return ClueVerdict{
				Rule:     RuleSubstring,
				Conflict: w,
				Reason:   fmt.Sprintf("clue is contained in board word %q", w),
			}
		}
		if strings.Contains(c, bw) {
			return ClueVerdict{
				Rule:     RuleSubstring,
				Conflict: w,
				Reason:   fmt.Sprintf("board word %q is contained in the clue", w),
			}
		}
	}

	// Collect every lemma of every unrevealed word, remembering which
	// board word produced it, then test the clue's lemmas against the set.
	boardLemmas := make(map[string]string, len(unrevealed)*len(lexicon.AllPartsOfSpeech))
	for _, w := range unrevealed {
		bw := strings.ToLower(w)
		for _, pos := range lexicon.AllPartsOfSpeech {
			boardLemmas[lem.Lemma(bw, pos)] = w
		}
	}
	for _, pos := range lexicon.AllPartsOfSpeech {
		if w, ok := boardLemmas[lem.Lemma(c, pos)]; ok {
			return ClueVerdict{
				Rule:     RuleSharedLemma,
				Conflict: w,
				Reason:   fmt.Sprintf("clue shares a root word with board word %q", w),
			}
		}
	}

	return ClueVerdict{Legal: true}
}
