package words

import (
	"math/bits"
	"strings"
)

// Mask is a 26-bit letter-presence set: bit i is set when letter 'A'+i
// occurs at least once. Word order and repeats are discarded.
type Mask uint32

// MaskOf computes the letter mask of an already-normalized word.
// ok is false when w contains anything outside A–Z.
func MaskOf(w string) (m Mask, ok bool) {
	for i := 0; i < len(w); i++ {
		c := w[i]
		if c < 'A' || c > 'Z' {
			return 0, false
		}
		m |= 1 << (c - 'A')
	}
	return m, true
}

// LetterMask returns the single-bit mask for an uppercase letter, or 0.
func LetterMask(r rune) Mask {
	if r < 'A' || r > 'Z' {
		return 0
	}
	return 1 << (r - 'A')
}

// Has reports whether letter r is in the set.
func (m Mask) Has(r rune) bool {
	b := LetterMask(r)
	return b != 0 && m&b != 0
}

// Contains reports whether every letter of o is also in m.
func (m Mask) Contains(o Mask) bool { return o&^m == 0 }

// Count is the number of distinct letters in the set.
func (m Mask) Count() int { return bits.OnesCount32(uint32(m)) }

// Runes lists the letters in ascending order.
func (m Mask) Runes() []rune {
	out := make([]rune, 0, m.Count())
	for i := 0; i < 26; i++ {
		if m&(1<<i) != 0 {
			out = append(out, rune('A'+i))
		}
	}
	return out
}

// String renders the set as its letters in ascending order, e.g. "AEGNRST".
func (m Mask) String() string {
	var b strings.Builder
	for _, r := range m.Runes() {
		b.WriteRune(r)
	}
	return b.String()
}
