package words

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims, folds diacritics and uppercases s, so "  Café " and
// "CAFE" compare equal. It does not filter non-letters; MaskOf does.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if isASCII(s) {
		return strings.ToUpper(s)
	}
	// Chained transformers keep internal buffers, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
