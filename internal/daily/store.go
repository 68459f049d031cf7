// internal/daily/store.go
//
// Daily puzzle store: one puzzle per date key.
// Lookup order:
//   1. in-process cache
//   2. persistent store (puzzle generated earlier, possibly by another process)
//   3. generate from the date key, persist, cache
//
// Concurrent misses for the same date collapse into one load via singleflight.
// Generation is deterministic, so a lost first-writer race on persist yields
// the same puzzle.

package daily

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/store"
)

// Service resolves date keys to puzzles.
type Service struct {
	gen   *game.Generator
	store store.PuzzleStore
	loc   *time.Location
	now   func() time.Time

	mu    sync.RWMutex
	cache map[string]*game.Puzzle
	group singleflight.Group
}

// NewService wires a generator to a puzzle store. loc is the puzzle time
// zone; now defaults to time.Now.
func NewService(gen *game.Generator, st store.PuzzleStore, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{gen: gen, store: st, loc: loc, now: now, cache: make(map[string]*game.Puzzle)}
}

// TodayKey is the current date key.
func (s *Service) TodayKey() string { return Key(s.now(), s.loc) }

// NextReset is when TodayKey next changes.
func (s *Service) NextReset() time.Time { return NextReset(s.now(), s.loc) }

// Today returns the current puzzle.
func (s *Service) Today(ctx context.Context) (*game.Puzzle, error) {
	return s.ForDate(ctx, s.TodayKey())
}

// ForDate returns the puzzle for a YYYY-MM-DD key.
func (s *Service) ForDate(ctx context.Context, key string) (*game.Puzzle, error) {
	if _, err := ParseKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	p, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		p, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[key] = p
		s.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.Puzzle), nil
}

func (s *Service) load(ctx context.Context, key string) (*game.Puzzle, error) {
	p, err := s.store.GetPuzzle(ctx, key)
	if err == nil {
		log.Debug().Str("date", key).Str("puzzle", p.ID).Msg("puzzle loaded from store")
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	start := time.Now()
	p, err = s.gen.Generate(key)
	if err != nil {
		log.Error().Err(err).Str("date", key).Msg("puzzle generation failed")
		return nil, err
	}
	if err := s.store.PutPuzzle(ctx, p); err != nil {
		log.Warn().Err(err).Str("date", key).Msg("persist puzzle")
	}
	log.Info().
		Str("date", key).
		Str("puzzle", p.ID).
		Str("center", p.Center).
		Strs("outer", p.Outer).
		Int("words", len(p.ValidWords)).
		Int("maxScore", p.MaxScore).
		Dur("took", time.Since(start)).
		Msg("puzzle generated")
	return p, nil
}

// Forget drops cached puzzles other than keep. It returns how many went.
func (s *Service) Forget(keep string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.cache {
		if k != keep {
			delete(s.cache, k)
			n++
		}
	}
	return n
}
