package game

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/spellbee/assets"
)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func TestSession_DuplicateLeavesScore(t *testing.T) {
	s := NewSession(testPuzzle(t), "u1", nil)

	_, err := s.SubmitGuess("RATES")
	require.NoError(t, err)
	res, err := s.SubmitGuess("rates")
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonAlreadyFound, res.Reason)
	assert.Equal(t, 5, s.Score())
}

func TestSession_CompleteIsTerminal(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession(testPuzzle(t), "u1", fixedClock(at))

	assert.True(t, s.Complete())
	assert.False(t, s.Complete(), "second complete is a no-op")

	_, err := s.SubmitGuess("RATE")
	assert.ErrorIs(t, err, ErrSessionCompleted)

	snap := s.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	require.NotNil(t, snap.CompletedAt)
	assert.Equal(t, at, *snap.CompletedAt)
	assert.Zero(t, snap.Score)
}

func TestSession_VersionCountsChanges(t *testing.T) {
	p := testPuzzle(t)
	s := NewSession(p, "u1", nil)
	assert.Zero(t, s.Snapshot().Version)

	_, err := s.SubmitGuess("RATE")
	require.NoError(t, err)
	_, err = s.SubmitGuess("PLANET")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Snapshot().Version, "rejections change nothing")

	s.Complete()
	s.Complete()
	assert.Equal(t, 2, s.Snapshot().Version)

	got, err := Restore(p, s.Snapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Snapshot().Version)
}

func TestSession_ConcurrentGuesses(t *testing.T) {
	p := testPuzzle(t)
	s := NewSession(p, "u1", nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, w := range p.ValidWords {
				_, err := s.SubmitGuess(w)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.ElementsMatch(t, p.ValidWords, snap.FoundWords, "each word recorded once")
	assert.Equal(t, p.MaxScore, snap.Score)
	assert.Zero(t, snap.Remaining)
}

func TestRestore_ReplaysWords(t *testing.T) {
	p := testPuzzle(t)
	s := NewSession(p, "u1", nil)
	for _, w := range []string{"RATE", "GARNETS"} {
		_, err := s.SubmitGuess(w)
		require.NoError(t, err)
	}
	s.Complete()
	snap := s.Snapshot()
	snap.Score = 999 // ignored; recomputed from the words

	got, err := Restore(p, snap, nil)
	require.NoError(t, err)
	want := s.Snapshot()
	assert.Equal(t, want, got.Snapshot())

	_, err = got.SubmitGuess("STARE")
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestRestore_Rejects(t *testing.T) {
	p := testPuzzle(t)
	base := SessionState{ID: "s1", PuzzleID: p.ID, UserID: "u1"}

	st := base
	st.PuzzleID = "other"
	_, err := Restore(p, st, nil)
	assert.ErrorIs(t, err, ErrPuzzleMismatch)

	st = base
	st.FoundWords = []string{"RATE", "RATE"}
	_, err = Restore(p, st, nil)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	st = base
	st.FoundWords = []string{"PLANET"}
	_, err = Restore(p, st, nil)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	st = base
	st.Status = "paused"
	_, err = Restore(p, st, nil)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	st = base
	st.UserID = ""
	_, err = Restore(p, st, nil)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestRegistry_CreateOpenGet(t *testing.T) {
	p := testPuzzle(t)
	r := NewRegistry(nil)

	s, err := r.Create(p, "u1")
	require.NoError(t, err)

	_, err = r.Create(p, "u1")
	assert.ErrorIs(t, err, ErrSessionExists)

	got, created := r.Open(p, "u1")
	assert.False(t, created)
	assert.Same(t, s, got)

	other, created := r.Open(p, "u2")
	assert.True(t, created)
	assert.NotEqual(t, s.ID(), other.ID())

	found, ok := r.Get(p.ID, "u2")
	assert.True(t, ok)
	assert.Same(t, other, found)

	_, ok = r.Get(p.ID, "nobody")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_OpenConcurrent(t *testing.T) {
	p := testPuzzle(t)
	r := NewRegistry(nil)

	sessions := make([]*Session, 32)
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions[i], _ = r.Open(p, "u1")
		}()
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RestoreAndPrune(t *testing.T) {
	p := testPuzzle(t)
	old, err := NewPuzzle(testDict(t), "old", 'E', []rune("AGNRST"), DefaultScoring())
	require.NoError(t, err)

	r := NewRegistry(nil)
	_, err = r.Restore(old, SessionState{ID: "s-old", PuzzleID: old.ID, UserID: "u1"})
	require.NoError(t, err)
	live, err := r.Restore(p, SessionState{ID: "s-new", PuzzleID: p.ID, UserID: "u1", FoundWords: []string{"TEAR"}})
	require.NoError(t, err)
	assert.Equal(t, 1, live.Score())

	again, err := r.Restore(p, SessionState{ID: "ignored", PuzzleID: p.ID, UserID: "u1"})
	require.NoError(t, err)
	assert.Same(t, live, again, "live session wins over stored copy")

	assert.Equal(t, 1, r.Prune(p.ID))
	_, ok := r.Get(old.ID, "u1")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRanks_EmbeddedMatchesDefault(t *testing.T) {
	raw, err := assets.Ranks()
	require.NoError(t, err)
	rs, err := ParseRanks(raw)
	require.NoError(t, err)
	assert.Equal(t, DefaultRanks(), rs)
}

func TestRanks_For(t *testing.T) {
	rs := DefaultRanks()

	assert.Equal(t, []int{0, 22, 44, 56, 67, 78, 89, 94, 100}, rs.Thresholds(100))

	lv := rs.For(0, 100)
	assert.Equal(t, Level{Name: "Beginner", Threshold: 0, Next: "Good Start", NextThreshold: 22, ToNext: 22}, lv)

	lv = rs.For(60, 100)
	assert.Equal(t, "Good", lv.Name)
	assert.Equal(t, "Solid", lv.Next)
	assert.Equal(t, 7, lv.ToNext)

	lv = rs.For(100, 100)
	assert.Equal(t, "Genius", lv.Name)
	assert.Equal(t, "Genius", lv.Next)
	assert.Zero(t, lv.ToNext)
}

func TestRanks_Invalid(t *testing.T) {
	_, err := ParseRanks([]byte("ranks: []"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseRanks([]byte("ranks:\n  - {name: A, fraction: 0}\n  - {name: B, fraction: 0}\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseRanks([]byte("ranks:\n  - {name: A, fraction: 0.1}\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseRanks([]byte("ranks: [oops"))
	assert.Error(t, err)
}

func TestLoadRanksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ranks:\n  - {name: Start, fraction: 0}\n  - {name: Done, fraction: 1}\n"), 0o644))

	rs, err := LoadRanksFile(path)
	require.NoError(t, err)
	assert.Equal(t, Ranks{{"Start", 0}, {"Done", 1}}, rs)

	_, err = LoadRanksFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
