package game

import (
	"strings"
	"unicode/utf8"

	"github.com/robalobadob/spellbee/internal/words"
)

// Validate checks a raw guess against a puzzle and the words already found.
// It is a pure function: it reads p and alreadyFound and mutates neither.
//
// Checks run in a fixed order and the first failure wins:
//
//	too short → missing center letter → letters outside the puzzle →
//	already found → not in the word list
func Validate(p *Puzzle, guess string, alreadyFound map[string]struct{}) Result {
	w := words.Normalize(guess)
	if utf8.RuneCountInString(w) < p.Scoring.MinLength {
		return rejected(w, ReasonTooShort)
	}
	if !strings.ContainsRune(w, p.CenterRune()) {
		return rejected(w, ReasonMissingCenter)
	}
	m, ok := words.MaskOf(w)
	if !ok || !p.letters.Contains(m) {
		return rejected(w, ReasonInvalidLetters)
	}
	if _, dup := alreadyFound[w]; dup {
		return rejected(w, ReasonAlreadyFound)
	}
	if !p.Has(w) {
		return rejected(w, ReasonNotInDictionary)
	}
	pangram := m == p.letters
	return accepted(w, p.Scoring.WordScore(w, pangram), pangram)
}
