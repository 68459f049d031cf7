// db.go
//
// Persistence wiring for the spellbee server.
// Responsibilities:
//   - Picking the backend named by STORE_DRIVER (sqlite, badger, memory).
//   - For SQLite: opening with safe defaults and applying embedded migrations.
//
// Every backend satisfies store.Store, so the rest of the server never
// knows which one is in use.

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/spellbee/internal/config"
	"github.com/robalobadob/spellbee/internal/store"
)

/**
 * openStore opens the configured persistence backend.
 *
 * - sqlite: creates the file (and parent dir) if missing, then migrates.
 * - badger: opens (or creates) the directory at BADGER_PATH.
 * - memory: nothing survives a restart; handy for local play.
 *
 * @param cfg Store section of the loaded configuration.
 * @returns store.Store ready for use; callers Close it on shutdown.
 */
func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		if err := store.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("path", cfg.DBPath).Msg("sqlite store ready")
		return store.NewSQL(db), nil
	case "badger":
		st, err := store.OpenBadger(store.BadgerConfig{Path: cfg.BadgerPath, SyncWrites: true})
		if err != nil {
			return nil, fmt.Errorf("open badger %s: %w", cfg.BadgerPath, err)
		}
		log.Info().Str("path", cfg.BadgerPath).Msg("badger store ready")
		return st, nil
	case "memory":
		log.Warn().Msg("memory store: sessions and scores are lost on restart")
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
}
