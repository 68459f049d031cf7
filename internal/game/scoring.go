package game

import "fmt"

// Scoring holds the per-word scoring rules. A puzzle carries the rules it
// was built with so stored puzzles keep scoring consistently.
type Scoring struct {
	MinLength       int `json:"minLength"`       // shortest acceptable word
	ShortWordPoints int `json:"shortWordPoints"` // points for a word of exactly MinLength
	PangramBonus    int `json:"pangramBonus"`    // added when a word uses all seven letters
}

// DefaultScoring: 4-letter words score 1, longer words score their length,
// pangrams add 7.
func DefaultScoring() Scoring {
	return Scoring{MinLength: 4, ShortWordPoints: 1, PangramBonus: 7}
}

// WordScore scores an accepted word.
func (s Scoring) WordScore(word string, pangram bool) int {
	n := len(word)
	pts := n
	if n <= s.MinLength {
		pts = s.ShortWordPoints
	}
	if pangram {
		pts += s.PangramBonus
	}
	return pts
}

// Validate rejects rules that cannot produce a sensible puzzle.
func (s Scoring) Validate() error {
	if s.MinLength < 1 {
		return fmt.Errorf("%w: min word length %d", ErrInvalidConfig, s.MinLength)
	}
	if s.ShortWordPoints < 0 || s.PangramBonus < 0 {
		return fmt.Errorf("%w: negative points", ErrInvalidConfig)
	}
	return nil
}
