package leaderboard

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRecord_Monotonic(t *testing.T) {
	b := New(stepClock(t0))

	e, changed := b.Record("p1", "u1", 50)
	assert.True(t, changed)
	assert.Equal(t, 50, e.Score)
	first := e.LastUpdatedAt

	e, changed = b.Record("p1", "u1", 30)
	assert.False(t, changed, "lower score is ignored")
	assert.Equal(t, 50, e.Score)

	e, changed = b.Record("p1", "u1", 50)
	assert.False(t, changed, "equal score keeps the first timestamp")
	assert.Equal(t, first, e.LastUpdatedAt)

	e, changed = b.Record("p1", "u1", 70)
	assert.True(t, changed)
	assert.Equal(t, 70, e.Score)
	assert.True(t, e.LastUpdatedAt.After(first))
}

func TestRank_TieBreakByTime(t *testing.T) {
	b := New(stepClock(t0))

	b.Record("p1", "late90", 10)
	b.Record("p1", "top", 140)
	b.Record("p1", "early90", 90)
	b.Record("p1", "low", 40)
	b.Record("p1", "late90", 90)

	got := b.Rank("p1")
	require.Len(t, got, 4)
	assert.Equal(t, []string{"top", "early90", "late90", "low"}, lo.Map(got, func(e Entry, _ int) string { return e.UserID }))
	assert.Equal(t, []int{140, 90, 90, 40}, lo.Map(got, func(e Entry, _ int) int { return e.Score }))
	assert.Equal(t, []int{1, 2, 3, 4}, lo.Map(got, func(e Entry, _ int) int { return e.Rank }))
}

func TestRank_SeparatesPuzzles(t *testing.T) {
	b := New(nil)
	b.Record("p1", "u1", 10)
	b.Record("p2", "u1", 20)

	assert.Len(t, b.Rank("p1"), 1)
	assert.Equal(t, 20, b.Rank("p2")[0].Score)
	assert.Empty(t, b.Rank("none"))
}

func TestTopAndPosition(t *testing.T) {
	b := New(stepClock(t0))
	for i := 1; i <= 5; i++ {
		b.Record("p1", fmt.Sprintf("u%d", i), i*10)
	}

	top := b.Top("p1", 2)
	require.Len(t, top, 2)
	assert.Equal(t, "u5", top[0].UserID)
	assert.Equal(t, "u4", top[1].UserID)
	assert.Len(t, b.Top("p1", 0), 5)

	pos, ok := b.Position("p1", "u2")
	assert.True(t, ok)
	assert.Equal(t, 4, pos.Rank)

	_, ok = b.Position("p1", "ghost")
	assert.False(t, ok)
}

func TestLoad_KeepsTimestampsAndGuard(t *testing.T) {
	b := New(stepClock(t0))
	stored := t0.Add(-time.Hour)
	b.Load([]Entry{
		{PuzzleID: "p1", UserID: "u1", Score: 40, LastUpdatedAt: stored},
		{PuzzleID: "p1", UserID: "u1", Score: 20, LastUpdatedAt: stored.Add(time.Minute)},
		{PuzzleID: "p1", UserID: "u2", Score: 40, LastUpdatedAt: stored.Add(time.Minute), Rank: 9},
	})

	got := b.Rank("p1")
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, 40, got[0].Score)
	assert.Equal(t, stored, got[0].LastUpdatedAt)
	assert.Equal(t, 2, got[1].Rank)
}

func TestPrune_KeepsOnePuzzle(t *testing.T) {
	b := New(stepClock(t0))
	b.Record("p1", "u1", 10)
	b.Record("p2", "u1", 20)
	b.Record("p3", "u2", 30)

	assert.Equal(t, 2, b.Prune("p3"))
	assert.Empty(t, b.Rank("p1"))
	assert.Empty(t, b.Rank("p2"))
	assert.Len(t, b.Rank("p3"), 1)
	assert.Zero(t, b.Prune("p3"))

	b.Load([]Entry{{PuzzleID: "p1", UserID: "u1", Score: 10, LastUpdatedAt: t0}})
	assert.Len(t, b.Rank("p1"), 1, "pruned puzzles reload")
}

func TestRecord_ConcurrentNeverRegresses(t *testing.T) {
	b := New(nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := 0; s <= 500; s++ {
				score := s
				if g%2 == 1 {
					score = 500 - s
				}
				b.Record("p1", "u1", score)
				b.Record("p1", fmt.Sprintf("g%d", g), score)
			}
		}()
	}
	wg.Wait()

	pos, ok := b.Position("p1", "u1")
	require.True(t, ok)
	assert.Equal(t, 500, pos.Score)
	assert.Len(t, b.Rank("p1"), 9)
}
