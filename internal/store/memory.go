// internal/store/memory.go
//
// In-memory implementation of Store.
// Used for development and tests, or when durability is not required.
//
// Characteristics:
//   - Plain maps guarded by one RWMutex (concurrent reads, exclusive writes).
//   - Values are copied in and out so callers never share state with the store.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/leaderboard"
)

type userKey struct{ puzzleID, userID string }

type memory struct {
	mu       sync.RWMutex
	puzzles  map[string]*game.Puzzle // by seed
	sessions map[userKey]game.SessionState
	entries  map[userKey]leaderboard.Entry
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() Store {
	return &memory{
		puzzles:  make(map[string]*game.Puzzle),
		sessions: make(map[userKey]game.SessionState),
		entries:  make(map[userKey]leaderboard.Entry),
	}
}

// GetPuzzle returns the shared puzzle; puzzles are immutable after build.
func (m *memory) GetPuzzle(_ context.Context, seed string) (*game.Puzzle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.puzzles[seed]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *memory) PutPuzzle(_ context.Context, p *game.Puzzle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.puzzles[p.Seed]; !ok {
		m.puzzles[p.Seed] = p
	}
	return nil
}

func (m *memory) GetSession(_ context.Context, puzzleID, userID string) (game.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.sessions[userKey{puzzleID, userID}]; ok {
		return st.Clone(), nil
	}
	return game.SessionState{}, ErrNotFound
}

func (m *memory) PutSession(_ context.Context, st game.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := userKey{st.PuzzleID, st.UserID}
	if old, ok := m.sessions[k]; ok && st.Version < old.Version {
		return nil
	}
	m.sessions[k] = st.Clone()
	return nil
}

func (m *memory) RecordScore(_ context.Context, e leaderboard.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := userKey{e.PuzzleID, e.UserID}
	if old, ok := m.entries[k]; ok && e.Score <= old.Score {
		return nil
	}
	e.Rank = 0
	m.entries[k] = e
	return nil
}

func (m *memory) Entries(_ context.Context, puzzleID string) ([]leaderboard.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Filter(lo.Values(m.entries), func(e leaderboard.Entry, _ int) bool {
		return e.PuzzleID == puzzleID
	}), nil
}

func (m *memory) Close() error { return nil }
