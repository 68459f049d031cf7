// internal/words/words.go
//
// Dictionary for the puzzle engine.
//
// Responsibilities:
//   - Load a word corpus (file, reader or the embedded default) once at startup.
//   - Normalize every entry (trim, fold diacritics, uppercase) and keep only A–Z words.
//   - Precompute each word's 26-bit letter mask and group words by mask.
//   - Answer membership and "uses only these letters" queries.
//
// Query strategy:
//   A puzzle allows 7 letters, so at most 2^7 = 128 distinct masks can match.
//   Match enumerates the submasks of the allowed set and looks each one up in
//   the mask index, which keeps a query independent of corpus size. Allowed
//   sets wider than subsetScanLimit fall back to scanning the index.
//
// A Dictionary is immutable after Load and safe for concurrent readers.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/robalobadob/spellbee/assets"
)

// subsetScanLimit bounds submask enumeration (2^16 lookups) before Match
// switches to a linear pass over the mask index.
const subsetScanLimit = 16

// ErrEmptyCorpus is wrapped by CorpusError when a source holds no usable words.
var ErrEmptyCorpus = errors.New("corpus has no usable words")

// CorpusError reports an unreadable or empty corpus source.
type CorpusError struct {
	Source string
	Err    error
}

func (e *CorpusError) Error() string {
	return fmt.Sprintf("words: corpus %s: %v", e.Source, e.Err)
}

func (e *CorpusError) Unwrap() error { return e.Err }

// Dictionary is a normalized, read-only word set with a letter-mask index.
type Dictionary struct {
	words  map[string]Mask
	groups map[Mask][]string // words sharing a mask, sorted
}

// Stats summarizes a loaded corpus.
type Stats struct {
	Words        int `json:"words"`
	Masks        int `json:"masks"`
	PangramMasks int `json:"pangramMasks"` // masks with exactly 7 letters
}

// Load reads one word per line from r. Blank lines and lines starting with
// '#' are skipped, as are entries that still contain non-letters after
// normalization.
func Load(r io.Reader) (*Dictionary, error) {
	return load("reader", r)
}

// LoadFile loads the corpus stored at path.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CorpusError{Source: path, Err: err}
	}
	defer f.Close()
	return load(path, f)
}

// LoadDefault loads the corpus embedded in the binary.
func LoadDefault() (*Dictionary, error) {
	f, err := assets.Corpus()
	if err != nil {
		return nil, &CorpusError{Source: "embedded", Err: err}
	}
	defer f.Close()
	return load("embedded", f)
}

func load(source string, r io.Reader) (*Dictionary, error) {
	d := &Dictionary{
		words:  make(map[string]Mask),
		groups: make(map[Mask][]string),
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w := Normalize(line)
		m, ok := MaskOf(w)
		if !ok {
			continue
		}
		if _, dup := d.words[w]; dup {
			continue
		}
		d.words[w] = m
		d.groups[m] = append(d.groups[m], w)
	}
	if err := sc.Err(); err != nil {
		return nil, &CorpusError{Source: source, Err: err}
	}
	if len(d.words) == 0 {
		return nil, &CorpusError{Source: source, Err: ErrEmptyCorpus}
	}
	for m := range d.groups {
		slices.Sort(d.groups[m])
	}
	return d, nil
}

// Len is the number of distinct words.
func (d *Dictionary) Len() int { return len(d.words) }

// Contains reports whether word (in any case, with or without diacritics)
// is in the corpus.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[Normalize(word)]
	return ok
}

// MaskFor returns the stored mask of a word.
func (d *Dictionary) MaskFor(word string) (Mask, bool) {
	m, ok := d.words[Normalize(word)]
	return m, ok
}

// WordsUsingOnly returns, sorted, every word of at least minLength letters
// built only from allowed and containing mustContain. Letters are matched
// case-insensitively; a mustContain outside allowed matches nothing.
func (d *Dictionary) WordsUsingOnly(allowed []rune, mustContain rune, minLength int) []string {
	var set Mask
	for _, r := range allowed {
		set |= LetterMask(unicode.ToUpper(r))
	}
	must := LetterMask(unicode.ToUpper(mustContain))
	if must == 0 || !set.Contains(must) {
		return nil
	}
	return d.Match(set, must, minLength)
}

// Match is WordsUsingOnly on precomputed masks. must may hold several
// letters (all required) or be zero (none required).
func (d *Dictionary) Match(allowed, must Mask, minLength int) []string {
	var out []string
	d.each(allowed, must, minLength, func(w string, _ Mask) {
		out = append(out, w)
	})
	slices.Sort(out)
	return out
}

// CountMatch is len(Match(...)) without building the slice.
func (d *Dictionary) CountMatch(allowed, must Mask, minLength int) int {
	n := 0
	d.each(allowed, must, minLength, func(string, Mask) { n++ })
	return n
}

// MasksWithLetters returns, ascending, every distinct word mask with
// exactly n letters. With n = 7 these are the letter sets that can carry a
// pangram.
func (d *Dictionary) MasksWithLetters(n int) []Mask {
	out := lo.Filter(lo.Keys(d.groups), func(m Mask, _ int) bool {
		return m.Count() == n
	})
	slices.Sort(out)
	return out
}

// WordsWithMask returns the words whose letter set is exactly m.
func (d *Dictionary) WordsWithMask(m Mask) []string {
	return slices.Clone(d.groups[m])
}

// Stats reports corpus counts.
func (d *Dictionary) Stats() Stats {
	return Stats{
		Words:        len(d.words),
		Masks:        len(d.groups),
		PangramMasks: len(d.MasksWithLetters(7)),
	}
}

func (d *Dictionary) each(allowed, must Mask, minLength int, fn func(string, Mask)) {
	if !allowed.Contains(must) {
		return
	}
	visit := func(m Mask) {
		for _, w := range d.groups[m] {
			if len(w) >= minLength {
				fn(w, m)
			}
		}
	}
	if allowed.Count() > subsetScanLimit {
		for m := range d.groups {
			if allowed.Contains(m) && m.Contains(must) {
				visit(m)
			}
		}
		return
	}
	// Walk every submask of allowed, largest first; the empty set is skipped.
	for sub := allowed; sub != 0; sub = (sub - 1) & allowed {
		if sub.Contains(must) {
			visit(sub)
		}
	}
}
