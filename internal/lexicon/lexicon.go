// internal/lexicon/lexicon.go
//
// Lexical lemmatization behind a small interface, so the clue-legality
// checker can enumerate part-of-speech categories without binding to a
// dictionary implementation.
//
// Notes:
//   - The production implementation wraps the golem English dictionary,
//     which keys on the word alone; it answers every category with the
//     same base form. Unknown words lemmatize to themselves.
//   - Tests substitute a category-aware fake.

package lexicon

import (
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// PartOfSpeech enumerates the categories the clue rules consider.
type PartOfSpeech string

const (
	Noun               PartOfSpeech = "noun"
	Verb               PartOfSpeech = "verb"
	Adjective          PartOfSpeech = "adjective"
	AdjectiveSatellite PartOfSpeech = "adjective_satellite"
	Adverb             PartOfSpeech = "adverb"
)

// AllPartsOfSpeech lists every category a legality check enumerates.
var AllPartsOfSpeech = []PartOfSpeech{Noun, Verb, Adjective, AdjectiveSatellite, Adverb}

// Lemmatizer maps a (word, part-of-speech) pair to its dictionary base
// form. Implementations return the input word when no base form is known.
type Lemmatizer interface {
	Lemma(word string, pos PartOfSpeech) string
}

type english struct {
	lm *golem.Lemmatizer
}

// NewEnglish loads the embedded golem English dictionary.
func NewEnglish() (Lemmatizer, error) {
	lm, err := golem.New(en.New())
	if err != nil {
		return nil, err
	}
	return &english{lm: lm}, nil
}

// Lemma returns the base form of word. The underlying dictionary is not
// part-of-speech aware, so every category answers alike.
func (e *english) Lemma(word string, _ PartOfSpeech) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return w
	}
	return e.lm.Lemma(w)
}
