// Package db persists sprint results in SQLite.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/sprint.report/internal/monitoring"
	"github.com/banshee-data/sprint.report/internal/timeutil"
)

var logf = monitoring.Tagged("db")

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
}

// OpenDB opens (creating if necessary) the database at path and applies
// migrations. Use ":memory:" for a throwaway database.
func OpenDB(path string) (*DB, error) {
	return OpenDBWithClock(path, timeutil.RealClock{})
}

// OpenDBWithClock is OpenDB with an injected clock for recorded_at stamps.
func OpenDBWithClock(path string, clock timeutil.Clock) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps per-connection pragmas and :memory:
	// databases consistent.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, clock: clock}
	if err := db.applyPragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	v, _, err := db.MigrateVersion()
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	logf("opened %s at schema version %d", path, v)
	return db, nil
}

func (db *DB) applyPragmas() error {
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
