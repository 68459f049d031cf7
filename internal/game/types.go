// internal/game/types.go
//
// Core type definitions for the puzzle engine.
// Defines:
//   - Puzzle: an immutable letter set with its valid-word universe.
//   - Scoring: the per-word scoring rules a puzzle was built with.
//   - Reason / Result: the closed set of guess outcomes.
//   - Status / SessionState: a player's progress on one puzzle.

package game

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/robalobadob/spellbee/internal/words"
)

// PuzzleLetters is the size of a puzzle's letter set (center + outer).
const PuzzleLetters = 7

// Puzzle is shared read-only by every session that references it. Nothing
// mutates a Puzzle after NewPuzzle or json.Unmarshal returns.
type Puzzle struct {
	ID         string    `json:"id"`
	Seed       string    `json:"seed"`
	Center     string    `json:"center"`     // single uppercase letter
	Outer      []string  `json:"outer"`      // six letters, ascending
	ValidWords []string  `json:"validWords"` // ascending
	Pangrams   []string  `json:"pangrams"`   // subset of ValidWords, ascending
	MaxScore   int       `json:"maxScore"`
	Scoring    Scoring   `json:"scoring"`
	CreatedAt  time.Time `json:"createdAt"`

	letters words.Mask
	center  words.Mask
	valid   map[string]struct{}
}

// Letters is the full 7-letter set.
func (p *Puzzle) Letters() words.Mask { return p.letters }

// CenterRune is the mandatory letter.
func (p *Puzzle) CenterRune() rune { return rune(p.Center[0]) }

// Has reports whether an already-normalized word is in the puzzle.
func (p *Puzzle) Has(word string) bool {
	_, ok := p.valid[word]
	return ok
}

// IsPangram reports whether a word uses all seven letters.
func (p *Puzzle) IsPangram(word string) bool {
	m, ok := words.MaskOf(word)
	return ok && m == p.letters
}

// UnmarshalJSON decodes a stored puzzle and rebuilds its lookup indexes.
func (p *Puzzle) UnmarshalJSON(b []byte) error {
	type plain Puzzle
	var raw plain
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Puzzle(raw)
	return p.index()
}

// index derives the masks and word set from the exported fields and checks
// the letter-set invariants.
func (p *Puzzle) index() error {
	if len(p.Center) != 1 {
		return fmt.Errorf("%w: center %q", ErrInvalidLetterSet, p.Center)
	}
	center, ok := words.MaskOf(p.Center)
	if !ok {
		return fmt.Errorf("%w: center %q", ErrInvalidLetterSet, p.Center)
	}
	var outer words.Mask
	for _, l := range p.Outer {
		m, ok := words.MaskOf(l)
		if !ok || len(l) != 1 || outer.Contains(m) || m == center {
			return fmt.Errorf("%w: outer letter %q", ErrInvalidLetterSet, l)
		}
		outer |= m
	}
	if len(p.Outer) != PuzzleLetters-1 {
		return fmt.Errorf("%w: %d outer letters", ErrInvalidLetterSet, len(p.Outer))
	}
	p.center = center
	p.letters = center | outer
	p.valid = make(map[string]struct{}, len(p.ValidWords))
	for _, w := range p.ValidWords {
		p.valid[w] = struct{}{}
	}
	return nil
}

// Reason names why a guess was rejected. The zero value means accepted.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonTooShort        Reason = "too_short"
	ReasonMissingCenter   Reason = "missing_center_letter"
	ReasonInvalidLetters  Reason = "invalid_letters"
	ReasonAlreadyFound    Reason = "already_found"
	ReasonNotInDictionary Reason = "not_in_dictionary"
)

// Result is the outcome of validating one guess. Exactly one of the two
// shapes occurs: Accepted with ScoreDelta/IsPangram, or rejected with a
// non-empty Reason and a zero ScoreDelta.
type Result struct {
	Word       string `json:"word"`
	Accepted   bool   `json:"accepted"`
	Reason     Reason `json:"reason,omitempty"`
	ScoreDelta int    `json:"scoreDelta"`
	IsPangram  bool   `json:"isPangram"`
}

func accepted(word string, delta int, pangram bool) Result {
	return Result{Word: word, Accepted: true, ScoreDelta: delta, IsPangram: pangram}
}

func rejected(word string, reason Reason) Result {
	return Result{Word: word, Reason: reason}
}

// Message is the player-facing text for a result.
func (r Result) Message(p *Puzzle) string {
	switch r.Reason {
	case ReasonNone:
		if r.IsPangram {
			return fmt.Sprintf("Pangram! +%d points!", r.ScoreDelta)
		}
		return fmt.Sprintf("+%d points!", r.ScoreDelta)
	case ReasonTooShort:
		return fmt.Sprintf("Words must be at least %d letters long", p.Scoring.MinLength)
	case ReasonMissingCenter:
		return fmt.Sprintf("Words must contain the center letter (%s)", p.Center)
	case ReasonInvalidLetters:
		return "Words may only use the puzzle letters"
	case ReasonAlreadyFound:
		return "Already found"
	case ReasonNotInDictionary:
		return "Not in word list"
	}
	return string(r.Reason)
}

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// SessionState is a point-in-time copy of a session, used for persistence
// and for presentation. Remaining and PangramsFound are derived.
type SessionState struct {
	ID            string     `json:"id"`
	PuzzleID      string     `json:"puzzleId"`
	UserID        string     `json:"userId"`
	FoundWords    []string   `json:"foundWords"`
	Score         int        `json:"score"`
	Status        Status     `json:"status"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Remaining     int        `json:"remaining"`
	PangramsFound []string   `json:"pangramsFound"`
	// Version counts state changes. A store keeps the highest version it
	// has seen, so late writes of older snapshots are dropped.
	Version int `json:"version"`
}

// Clone returns a deep copy.
func (s SessionState) Clone() SessionState {
	s.FoundWords = slices.Clone(s.FoundWords)
	s.PangramsFound = slices.Clone(s.PangramsFound)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	return s
}
