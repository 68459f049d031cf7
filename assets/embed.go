// assets/embed.go
//
// Embedded defaults so the server runs without any files configured:
//   - words.txt:  the default dictionary corpus (one word per line).
//   - ranks.yaml: the default rank ladder.

package assets

import (
	"embed"
	"io"
)

//go:embed words.txt ranks.yaml
var FS embed.FS

// Corpus opens the embedded word list. Callers close the reader.
func Corpus() (io.ReadCloser, error) {
	return FS.Open("words.txt")
}

// Ranks returns the raw embedded rank ladder.
func Ranks() ([]byte, error) {
	return FS.ReadFile("ranks.yaml")
}
