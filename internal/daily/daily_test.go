package daily

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/store"
	"github.com/robalobadob/spellbee/internal/words"
)

func TestKey(t *testing.T) {
	ts := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-10", Key(ts, nil))

	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, "2024-03-11", Key(ts, tokyo))
}

func TestNextReset(t *testing.T) {
	ts := time.Date(2024, 12, 31, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), NextReset(ts, time.UTC))

	ny := time.FixedZone("EST", -5*3600)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, ny), NextReset(ts, ny))
}

func TestParseKey(t *testing.T) {
	d, err := ParseKey("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	for _, bad := range []string{"", "2024-2-1", "2024-02-30", "today"} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

// countingStore counts lookups that reach the backing store.
type countingStore struct {
	store.PuzzleStore
	gets atomic.Int32
	puts atomic.Int32
}

func (c *countingStore) GetPuzzle(ctx context.Context, seed string) (*game.Puzzle, error) {
	c.gets.Add(1)
	return c.PuzzleStore.GetPuzzle(ctx, seed)
}

func (c *countingStore) PutPuzzle(ctx context.Context, p *game.Puzzle) error {
	c.puts.Add(1)
	return c.PuzzleStore.PutPuzzle(ctx, p)
}

func newService(t *testing.T, st store.PuzzleStore, now time.Time) *Service {
	t.Helper()
	d, err := words.LoadDefault()
	require.NoError(t, err)
	cfg := game.DefaultGeneratorConfig()
	cfg.Salt = "daily-test"
	g, err := game.NewGenerator(d, cfg)
	require.NoError(t, err)
	return NewService(g, st, time.UTC, func() time.Time { return now })
}

func TestService_GeneratesOncePerDay(t *testing.T) {
	cs := &countingStore{PuzzleStore: store.NewMemory()}
	svc := newService(t, cs, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]*game.Puzzle, 20)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.Today(ctx)
			assert.NoError(t, err)
			got[i] = p
		}()
	}
	wg.Wait()

	for _, p := range got {
		assert.Same(t, got[0], p)
	}
	assert.Equal(t, "2024-05-01", got[0].Seed)
	assert.LessOrEqual(t, cs.gets.Load(), int32(2), "misses collapse")
	assert.Equal(t, int32(1), cs.puts.Load())

	stored, err := cs.PuzzleStore.GetPuzzle(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, got[0].ID, stored.ID)
}

func TestService_PrefersStoredPuzzle(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	d, err := words.LoadDefault()
	require.NoError(t, err)
	pinned, err := game.NewPuzzle(d, "2024-05-02", 'A', []rune("DEGNRT"), game.DefaultScoring())
	require.NoError(t, err)
	require.NoError(t, mem.PutPuzzle(ctx, pinned))

	svc := newService(t, mem, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	p, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Same(t, pinned, p)
}

func TestService_MatchesGenerator(t *testing.T) {
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
	a := newService(t, store.NewMemory(), now)
	b := newService(t, store.NewMemory(), now)

	pa, err := a.ForDate(context.Background(), "2024-04-01")
	require.NoError(t, err)
	pb, err := b.ForDate(context.Background(), "2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, pa, pb, "independent processes agree")
}

func TestService_Errors(t *testing.T) {
	svc := newService(t, store.NewMemory(), time.Now())
	_, err := svc.ForDate(context.Background(), "not-a-date")
	assert.ErrorIs(t, err, ErrInvalidDate)

	boom := errors.New("disk on fire")
	svc = newService(t, failingStore{err: boom}, time.Now())
	_, err = svc.ForDate(context.Background(), "2024-01-01")
	assert.ErrorIs(t, err, boom)
}

func TestService_Forget(t *testing.T) {
	svc := newService(t, store.NewMemory(), time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	for _, k := range []string{"2024-05-03", "2024-05-04", "2024-05-05"} {
		_, err := svc.ForDate(ctx, k)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, svc.Forget(svc.TodayKey()))
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), svc.NextReset())
}

type failingStore struct{ err error }

func (f failingStore) GetPuzzle(context.Context, string) (*game.Puzzle, error) { return nil, f.err }
func (f failingStore) PutPuzzle(context.Context, *game.Puzzle) error           { return f.err }
