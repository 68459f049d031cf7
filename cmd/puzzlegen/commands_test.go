package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/spellbee/internal/daily"
	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/words"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func expected(t *testing.T, date string) *game.Puzzle {
	t.Helper()
	d, err := words.LoadDefault()
	require.NoError(t, err)
	cfg := game.DefaultGeneratorConfig()
	cfg.Salt = "cli-test"
	g, err := game.NewGenerator(d, cfg)
	require.NoError(t, err)
	p, err := g.Generate(date)
	require.NoError(t, err)
	return p
}

func TestGenerate_JSONMatchesGenerator(t *testing.T) {
	out, err := run(t, "generate", "--date", "2024-05-01", "--salt", "cli-test", "--json")
	require.NoError(t, err)

	var got game.Puzzle
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	want := expected(t, "2024-05-01")
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Center, got.Center)
	assert.Equal(t, want.Outer, got.Outer)
	assert.Equal(t, want.ValidWords, got.ValidWords)
	assert.Equal(t, want.MaxScore, got.MaxScore)
}

func TestGenerate_Text(t *testing.T) {
	out, err := run(t, "generate", "--date", "2024-05-01", "--salt", "cli-test")
	require.NoError(t, err)
	want := expected(t, "2024-05-01")
	assert.Contains(t, out, "date:     2024-05-01")
	assert.Contains(t, out, "center:   "+want.Center)
	assert.Contains(t, out, want.Pangrams[0])
}

func TestGenerate_BadDate(t *testing.T) {
	_, err := run(t, "generate", "--date", "05/01/2024")
	assert.ErrorIs(t, err, daily.ErrInvalidDate)
}

func TestCheck(t *testing.T) {
	p := expected(t, "2024-05-01")

	out, err := run(t, "check", "--date", "2024-05-01", "--salt", "cli-test", "--word", p.Pangrams[0])
	require.NoError(t, err)
	assert.Contains(t, out, "accepted")
	assert.Contains(t, out, "Pangram!")

	out, err = run(t, "check", "--date", "2024-05-01", "--salt", "cli-test", "--word", "ab")
	require.NoError(t, err)
	assert.Contains(t, out, "rejected, too_short")

	_, err = run(t, "check", "--date", "2024-05-01")
	assert.Error(t, err)
}

func TestStats_WordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("# sample\nrate\nstare\nSTRANGE\nrate\n"), 0o644))

	out, err := run(t, "stats", "--words", path)
	require.NoError(t, err)
	assert.Contains(t, out, "words: 3\n")
	assert.Contains(t, out, "letter sets: 3\n")
	assert.Contains(t, out, "pangram sets: 1\n")

	_, err = run(t, "stats", "--words", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
