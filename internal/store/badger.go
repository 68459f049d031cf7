// internal/store/badger.go
//
// BadgerDB implementation of Store, for deployments that want an embedded
// key-value store instead of SQLite.
//
// Keys:
//   puzzle/<seed>
//   session/<puzzleID>/<userID>
//   lb/<puzzleID>/<userID>
// Values are JSON. Read-modify-write transactions that lose to a concurrent
// writer (badger.ErrConflict) are retried.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/leaderboard"
)

const conflictRetries = 100

// BadgerConfig selects where the database lives.
type BadgerConfig struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct{ l zerolog.Logger }

func (b badgerLogger) Errorf(f string, args ...any)   { b.l.Error().Msgf(f, args...) }
func (b badgerLogger) Warningf(f string, args ...any) { b.l.Warn().Msgf(f, args...) }
func (b badgerLogger) Infof(f string, args ...any)    { b.l.Debug().Msgf(f, args...) }
func (b badgerLogger) Debugf(f string, args ...any)   { b.l.Trace().Msgf(f, args...) }

type badgerStore struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) a Badger-backed Store.
func OpenBadger(cfg BadgerConfig) (Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store: badger path is required unless in-memory")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{l: log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &badgerStore{db: db}, nil
}

func puzzleKey(seed string) []byte { return []byte("puzzle/" + seed) }
func sessionKey(puzzleID, userID string) []byte {
	return []byte("session/" + puzzleID + "/" + userID)
}
func entryPrefix(puzzleID string) []byte { return []byte("lb/" + puzzleID + "/") }
func entryKey(puzzleID, userID string) []byte {
	return append(entryPrefix(puzzleID), userID...)
}

// getJSON decodes the value at key into v, mapping a missing key to ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error { return json.Unmarshal(val, v) })
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

// update runs fn in a read-write transaction, retrying on conflict.
func (s *badgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for range conflictRetries {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *badgerStore) GetPuzzle(_ context.Context, seed string) (*game.Puzzle, error) {
	var p game.Puzzle
	err := s.db.View(func(txn *badger.Txn) error { return getJSON(txn, puzzleKey(seed), &p) })
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *badgerStore) PutPuzzle(ctx context.Context, p *game.Puzzle) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(puzzleKey(p.Seed))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, puzzleKey(p.Seed), p)
	})
}

func (s *badgerStore) GetSession(_ context.Context, puzzleID, userID string) (game.SessionState, error) {
	var st game.SessionState
	err := s.db.View(func(txn *badger.Txn) error { return getJSON(txn, sessionKey(puzzleID, userID), &st) })
	return st, err
}

func (s *badgerStore) PutSession(ctx context.Context, st game.SessionState) error {
	key := sessionKey(st.PuzzleID, st.UserID)
	return s.update(ctx, func(txn *badger.Txn) error {
		var old game.SessionState
		switch err := getJSON(txn, key, &old); {
		case err == nil && st.Version < old.Version:
			return nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return err
		}
		return setJSON(txn, key, st)
	})
}

func (s *badgerStore) RecordScore(ctx context.Context, e leaderboard.Entry) error {
	e.Rank = 0
	key := entryKey(e.PuzzleID, e.UserID)
	return s.update(ctx, func(txn *badger.Txn) error {
		var old leaderboard.Entry
		switch err := getJSON(txn, key, &old); {
		case err == nil:
			if e.Score <= old.Score {
				return nil
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
		return setJSON(txn, key, e)
	})
}

func (s *badgerStore) Entries(_ context.Context, puzzleID string) ([]leaderboard.Entry, error) {
	out := make([]leaderboard.Entry, 0)
	prefix := entryPrefix(puzzleID)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e leaderboard.Entry
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (s *badgerStore) Close() error { return s.db.Close() }
