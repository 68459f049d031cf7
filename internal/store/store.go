// internal/store/store.go
//
// Persistence contracts for the puzzle server.
// Layout:
//   - Puzzles keyed by seed (the daily date key).
//   - Sessions keyed by (puzzle id, user id).
//   - Leaderboard entries keyed by (puzzle id, user id), ordered by score.
//
// Implementations: memory (this package), SQLite (sqlite.go), Badger (badger.go).

package store

import (
	"context"
	"errors"

	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/leaderboard"
)

// ErrNotFound is returned by every Get when the key has no record.
var ErrNotFound = errors.New("store: not found")

// PuzzleStore persists generated puzzles.
type PuzzleStore interface {
	// GetPuzzle returns the puzzle generated for seed.
	GetPuzzle(ctx context.Context, seed string) (*game.Puzzle, error)

	// PutPuzzle stores p under p.Seed. An existing puzzle for the seed is
	// left untouched; the first writer wins.
	PutPuzzle(ctx context.Context, p *game.Puzzle) error
}

// SessionStore persists session snapshots.
type SessionStore interface {
	GetSession(ctx context.Context, puzzleID, userID string) (game.SessionState, error)

	// PutSession stores st unless the stored snapshot has a higher Version.
	// Writers may race; the newest state always survives.
	PutSession(ctx context.Context, st game.SessionState) error
}

// LeaderboardStore persists best scores.
type LeaderboardStore interface {
	// RecordScore upserts e, replacing the stored row only when e.Score is
	// strictly higher.
	RecordScore(ctx context.Context, e leaderboard.Entry) error

	// Entries returns every stored entry for a puzzle, unordered.
	Entries(ctx context.Context, puzzleID string) ([]leaderboard.Entry, error)
}

// Store is the full persistence surface.
type Store interface {
	PuzzleStore
	SessionStore
	LeaderboardStore
	Close() error
}
