// internal/store/sqlite.go
//
// SQLite implementation of Store.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded sql/*.sql migrations (idempotent, recorded in _migrations).
//   - Puzzle and session rows hold the JSON encoding of the domain value;
//     leaderboard rows are plain columns so ranking can use the index.

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/leaderboard"
)

//go:embed sql/*.sql
var migrations embed.FS

// tsLayout is fixed width so text order equals time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

/**
 * OpenSQLite opens (and creates if missing) a SQLite database file.
 *
 * - Ensures the parent directory exists for relative paths (e.g. ./data/app.db).
 * - Configures busy timeout and WAL journaling, enforces foreign keys.
 */
func OpenSQLite(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

/**
 * Migrate applies the embedded migrations in lexical order.
 *
 * - Uses a _migrations table to track applied files.
 * - Each file runs in its own transaction; applied files are skipped.
 */
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

type sqlStore struct {
	db *sql.DB
}

// NewSQL wraps a migrated database. Close closes db.
func NewSQL(db *sql.DB) Store { return &sqlStore{db: db} }

func (s *sqlStore) GetPuzzle(ctx context.Context, seed string) (*game.Puzzle, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM puzzles WHERE seed=?`, seed).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get puzzle %s: %w", seed, err)
	}
	var p game.Puzzle
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode puzzle %s: %w", seed, err)
	}
	return &p, nil
}

func (s *sqlStore) PutPuzzle(ctx context.Context, p *game.Puzzle) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode puzzle %s: %w", p.Seed, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO puzzles(seed, id, body) VALUES (?, ?, ?)`,
		p.Seed, p.ID, body,
	)
	if err != nil {
		return fmt.Errorf("put puzzle %s: %w", p.Seed, err)
	}
	return nil
}

func (s *sqlStore) GetSession(ctx context.Context, puzzleID, userID string) (game.SessionState, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM sessions WHERE puzzle_id=? AND user_id=?`, puzzleID, userID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return game.SessionState{}, ErrNotFound
	}
	if err != nil {
		return game.SessionState{}, fmt.Errorf("get session: %w", err)
	}
	var st game.SessionState
	if err := json.Unmarshal(body, &st); err != nil {
		return game.SessionState{}, fmt.Errorf("decode session: %w", err)
	}
	return st, nil
}

func (s *sqlStore) PutSession(ctx context.Context, st game.SessionState) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", st.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO sessions (puzzle_id, user_id, id, body, score, status, version)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(puzzle_id, user_id) DO UPDATE SET
            body=excluded.body,
            score=excluded.score,
            status=excluded.status,
            version=excluded.version,
            updated_at=CURRENT_TIMESTAMP
        WHERE excluded.version >= sessions.version`,
		st.PuzzleID, st.UserID, st.ID, body, st.Score, string(st.Status), st.Version,
	)
	if err != nil {
		return fmt.Errorf("put session %s: %w", st.ID, err)
	}
	return nil
}

// RecordScore only overwrites when the incoming score is strictly higher,
// so concurrent writers cannot regress a row.
func (s *sqlStore) RecordScore(ctx context.Context, e leaderboard.Entry) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO leaderboard_entries (puzzle_id, user_id, score, last_updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(puzzle_id, user_id) DO UPDATE SET
            score=excluded.score,
            last_updated_at=excluded.last_updated_at
        WHERE excluded.score > leaderboard_entries.score`,
		e.PuzzleID, e.UserID, e.Score, e.LastUpdatedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

func (s *sqlStore) Entries(ctx context.Context, puzzleID string) ([]leaderboard.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id, score, last_updated_at
        FROM leaderboard_entries
        WHERE puzzle_id=?
        ORDER BY score DESC, last_updated_at ASC, user_id ASC`, puzzleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]leaderboard.Entry, 0)
	for rows.Next() {
		e := leaderboard.Entry{PuzzleID: puzzleID}
		var ts string
		if err := rows.Scan(&e.UserID, &e.Score, &ts); err != nil {
			return nil, err
		}
		if e.LastUpdatedAt, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("parse last_updated_at %q: %w", ts, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error { return s.db.Close() }
