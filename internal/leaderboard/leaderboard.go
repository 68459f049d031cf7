// internal/leaderboard/leaderboard.go
//
// Per-puzzle best scores.
// Responsibilities:
//   - Record a player's score with a monotonic guard: a lower or equal score
//     never replaces the stored one, so out-of-order updates cannot regress.
//   - Rank a puzzle's entries: score descending, then earliest LastUpdatedAt,
//     then user id.
//
// Each (puzzle, user) entry lives behind its own atomic pointer and is
// updated with a compare-and-swap loop. A lost race is retried, never
// surfaced. Ranking is computed on read.
package leaderboard

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var casRetries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "spellbee_leaderboard_cas_retries_total",
	Help: "Compare-and-swap retries on leaderboard updates",
})

// Entry is one player's best known score on one puzzle. Rank is filled in
// by the read methods and is 0 on entries returned by Record.
type Entry struct {
	PuzzleID      string    `json:"puzzleId"`
	UserID        string    `json:"userId"`
	Score         int       `json:"score"`
	Rank          int       `json:"rank,omitempty"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

type slot = atomic.Pointer[Entry]

// table holds one puzzle's entries, userID → *slot.
type table struct {
	entries sync.Map
}

// Board is safe for concurrent use. Updates to different keys never
// contend.
type Board struct {
	tables sync.Map // puzzleID → *table
	now    func() time.Time
}

// New returns an empty board. A nil clock means time.Now.
func New(now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{now: now}
}

func (b *Board) slot(puzzleID, userID string) *slot {
	t, _ := b.tables.LoadOrStore(puzzleID, &table{})
	s, _ := t.(*table).entries.LoadOrStore(userID, &slot{})
	return s.(*slot)
}

// Record stores score for (puzzleID, userID) if it beats the current entry.
// Only a strictly higher score counts: re-recording an equal score keeps the
// original LastUpdatedAt, the moment the player first reached it, so ties
// stay ordered earliest-first. It returns the entry now in effect and
// whether this call changed it.
func (b *Board) Record(puzzleID, userID string, score int) (Entry, bool) {
	return b.put(Entry{PuzzleID: puzzleID, UserID: userID, Score: score}, true)
}

// Load seeds the board with persisted entries, keeping their timestamps.
// The same monotonic guard applies.
func (b *Board) Load(entries []Entry) {
	for _, e := range entries {
		e.Rank = 0
		b.put(e, false)
	}
}

func (b *Board) put(e Entry, stamp bool) (Entry, bool) {
	s := b.slot(e.PuzzleID, e.UserID)
	for {
		old := s.Load()
		if old != nil && e.Score <= old.Score {
			return *old, false
		}
		next := e
		if stamp {
			next.LastUpdatedAt = b.now().UTC()
		}
		if s.CompareAndSwap(old, &next) {
			return next, true
		}
		casRetries.Inc()
	}
}

// Prune drops every puzzle's table except keepPuzzleID and returns how many
// went. Dropped puzzles can be reloaded with Load.
func (b *Board) Prune(keepPuzzleID string) int {
	n := 0
	b.tables.Range(func(k, _ any) bool {
		if k.(string) != keepPuzzleID {
			b.tables.Delete(k)
			n++
		}
		return true
	})
	return n
}

// Rank returns every entry for puzzleID in rank order with Rank set from 1.
func (b *Board) Rank(puzzleID string) []Entry {
	t, ok := b.tables.Load(puzzleID)
	if !ok {
		return []Entry{}
	}
	out := make([]Entry, 0)
	t.(*table).entries.Range(func(_, v any) bool {
		if e := v.(*slot).Load(); e != nil {
			out = append(out, *e)
		}
		return true
	})
	slices.SortFunc(out, compare)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top returns at most limit ranked entries. limit <= 0 means all.
func (b *Board) Top(puzzleID string, limit int) []Entry {
	all := b.Rank(puzzleID)
	if limit > 0 && len(all) > limit {
		return all[:limit]
	}
	return all
}

// Position returns userID's ranked entry on puzzleID.
func (b *Board) Position(puzzleID, userID string) (Entry, bool) {
	for _, e := range b.Rank(puzzleID) {
		if e.UserID == userID {
			return e, true
		}
	}
	return Entry{}, false
}

func compare(a, b Entry) int {
	return cmp.Or(
		cmp.Compare(b.Score, a.Score),
		a.LastUpdatedAt.Compare(b.LastUpdatedAt),
		cmp.Compare(a.UserID, b.UserID),
	)
}
