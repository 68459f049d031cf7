// internal/game/engine.go
//
// Puzzle generation.
// Responsibilities:
//   - Build a Puzzle from a dictionary and an explicit letter set (NewPuzzle).
//   - Search for a well-formed letter set deterministically from a seed (Generate).
//
// Search:
//   1. HMAC-SHA256(salt, seed) seeds a PCG generator; no wall-clock entropy.
//   2. Candidates are the distinct 7-letter sets of real corpus words, so every
//      candidate already carries a pangram and has natural letter frequencies.
//      They are drawn without replacement (partial Fisher–Yates).
//   3. A candidate is accepted when its pangram count and at least one of its
//      seven center rotations fall inside Bounds. The in-bounds rotation with
//      the most words wins; ties go to the lowest letter.
//   4. After MaxAttempts candidates (or the whole pool) the search fails with
//      ErrGenerationExhausted.
//
// Generate is a pure function of (seed, dictionary, config) and safe to call
// concurrently.
package game

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/spellbee/internal/words"
)

// puzzleNamespace scopes the name-based UUIDs used as puzzle ids.
var puzzleNamespace = uuid.MustParse("6f1c1f64-58d2-4c0e-9a57-0b5de7a9c3e1")

var (
	generationAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spellbee_generation_attempts",
		Help:    "Candidate letter sets evaluated per Generate call",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	})
	puzzlesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spellbee_puzzles_generated_total",
		Help: "Generate calls by result",
	}, []string{"result"})
)

// Bounds are the acceptance limits for a generated puzzle.
type Bounds struct {
	MinWords    int
	MaxWords    int
	MinPangrams int
	// RequirePerfectPangram additionally demands a pangram that uses each of
	// the seven letters exactly once.
	RequirePerfectPangram bool
}

// GeneratorConfig is everything Generate depends on besides the dictionary.
type GeneratorConfig struct {
	Salt        string
	Bounds      Bounds
	MaxAttempts int
	Scoring     Scoring
}

// DefaultGeneratorConfig returns 20–60 words, at least one pangram, 500 attempts.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Bounds:      Bounds{MinWords: 20, MaxWords: 60, MinPangrams: 1},
		MaxAttempts: 500,
		Scoring:     DefaultScoring(),
	}
}

// Validate checks the config for internal consistency.
func (c GeneratorConfig) Validate() error {
	b := c.Bounds
	if b.MinWords < 1 || b.MaxWords < b.MinWords {
		return fmt.Errorf("%w: word bounds [%d, %d]", ErrInvalidConfig, b.MinWords, b.MaxWords)
	}
	if b.MinPangrams < 1 {
		return fmt.Errorf("%w: min pangrams %d", ErrInvalidConfig, b.MinPangrams)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d", ErrInvalidConfig, c.MaxAttempts)
	}
	return c.Scoring.Validate()
}

// Generator turns seeds into puzzles.
type Generator struct {
	dict *words.Dictionary
	cfg  GeneratorConfig
}

// NewGenerator validates cfg and binds it to a dictionary.
func NewGenerator(dict *words.Dictionary, cfg GeneratorConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{dict: dict, cfg: cfg}, nil
}

// Config returns the generator's settings.
func (g *Generator) Config() GeneratorConfig { return g.cfg }

// Generate deterministically builds the puzzle for seed.
func (g *Generator) Generate(seed string) (*Puzzle, error) {
	rng := seededRand(g.cfg.Salt, seed)
	pool := g.dict.MasksWithLetters(PuzzleLetters)
	limit := min(g.cfg.MaxAttempts, len(pool))

	for i := 0; i < limit; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]

		center, ok := g.evaluate(pool[i])
		if !ok {
			continue
		}
		generationAttempts.Observe(float64(i + 1))
		p, err := g.build(seed, pool[i], center)
		if err != nil {
			puzzlesGenerated.WithLabelValues("error").Inc()
			return nil, err
		}
		puzzlesGenerated.WithLabelValues("ok").Inc()
		log.Debug().
			Str("seed", seed).
			Int("attempts", i+1).
			Str("letters", pool[i].String()).
			Str("center", p.Center).
			Int("words", len(p.ValidWords)).
			Msg("puzzle generated")
		return p, nil
	}

	generationAttempts.Observe(float64(limit))
	puzzlesGenerated.WithLabelValues("exhausted").Inc()
	return nil, fmt.Errorf("%w: seed %q, %d of %d candidate letter sets tried",
		ErrGenerationExhausted, seed, limit, len(pool))
}

// evaluate applies Bounds to one candidate set and picks its center.
func (g *Generator) evaluate(set words.Mask) (rune, bool) {
	b := g.cfg.Bounds
	minLen := g.cfg.Scoring.MinLength

	pangrams := lo.Filter(g.dict.WordsWithMask(set), func(w string, _ int) bool {
		return len(w) >= minLen
	})
	if len(pangrams) < b.MinPangrams {
		return 0, false
	}
	if b.RequirePerfectPangram && !lo.ContainsBy(pangrams, func(w string) bool { return len(w) == PuzzleLetters }) {
		return 0, false
	}

	best, bestN := rune(0), -1
	for _, r := range set.Runes() {
		n := g.dict.CountMatch(set, words.LetterMask(r), minLen)
		if n < b.MinWords || n > b.MaxWords {
			continue
		}
		if n > bestN {
			best, bestN = r, n
		}
	}
	return best, bestN >= 0
}

func (g *Generator) build(seed string, set words.Mask, center rune) (*Puzzle, error) {
	outer := lo.Filter(set.Runes(), func(r rune, _ int) bool { return r != center })
	return NewPuzzle(g.dict, seed, center, outer, g.cfg.Scoring)
}

// NewPuzzle builds the puzzle for an explicit letter set: every dictionary
// word of at least scoring.MinLength letters that uses only those letters and
// contains center.
func NewPuzzle(dict *words.Dictionary, seed string, center rune, outer []rune, scoring Scoring) (*Puzzle, error) {
	if err := scoring.Validate(); err != nil {
		return nil, err
	}
	center = unicode.ToUpper(center)
	p := &Puzzle{
		Seed:    seed,
		Center:  string(center),
		Outer:   make([]string, 0, len(outer)),
		Scoring: scoring,
	}
	var outerMask words.Mask
	for _, r := range outer {
		outerMask |= words.LetterMask(unicode.ToUpper(r))
	}
	for _, r := range outerMask.Runes() {
		p.Outer = append(p.Outer, string(r))
	}
	if len(p.Outer) != len(outer) {
		return nil, fmt.Errorf("%w: outer letters %q", ErrInvalidLetterSet, string(outer))
	}
	if err := p.index(); err != nil {
		return nil, err
	}

	p.ValidWords = dict.Match(p.letters, p.center, scoring.MinLength)
	p.Pangrams = lo.Filter(p.ValidWords, func(w string, _ int) bool { return p.IsPangram(w) })
	p.MaxScore = lo.SumBy(p.ValidWords, func(w string) int {
		return scoring.WordScore(w, p.IsPangram(w))
	})
	if err := p.index(); err != nil {
		return nil, err
	}

	p.ID = uuid.NewSHA1(puzzleNamespace, []byte(seed+"|"+p.letters.String()+"|"+p.Center)).String()
	if day, err := time.Parse(time.DateOnly, seed); err == nil {
		p.CreatedAt = day
	}
	return p, nil
}

// seededRand derives a PCG stream from HMAC(salt, seed).
func seededRand(salt, seed string) *rand.Rand {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(seed))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}
