// Package database bootstraps the recorder's SQLite database. The capture
// pipeline does not depend on it; startup only needs it to exist and answer.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/breeze-rmm/recorder/internal/logging"

	_ "modernc.org/sqlite"
)

var log = logging.L("database")

// ErrNoDatabaseURL is returned when no database URL is configured.
var ErrNoDatabaseURL = errors.New("database url not set")

const metaSchema = `CREATE TABLE IF NOT EXISTS recorder_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// ParsePath turns a database URL into a file path for the sqlite driver.
// Accepted forms: sqlite://path, sqlite:path, file:path, a plain path and
// :memory:.
func ParsePath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNoDatabaseURL
	}
	for _, prefix := range []string{"sqlite://", "sqlite:", "file://", "file:"} {
		if strings.HasPrefix(raw, prefix) {
			raw = strings.TrimPrefix(raw, prefix)
			break
		}
	}
	// drop driver options, we set pragmas ourselves
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "", fmt.Errorf("database url has no path")
	}
	return raw, nil
}

// EnsureReady creates the database if it does not exist yet, applies the
// connection pragmas, verifies it answers and records when it was first
// bootstrapped. Safe to call on every start.
func EnsureReady(ctx context.Context, rawURL string) error {
	path, err := ParsePath(rawURL)
	if err != nil {
		return err
	}

	if path != ":memory:" {
		if _, err := os.Stat(path); err == nil {
			log.Info("database already exists", logging.KeyPath, path)
		} else if errors.Is(err, os.ErrNotExist) {
			log.Info("creating database", logging.KeyPath, path)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("database: mkdir: %w", err)
			}
		} else {
			return fmt.Errorf("database: stat %s: %w", path, err)
		}
	}

	db, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, metaSchema); err != nil {
		return fmt.Errorf("database: schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO recorder_meta (key, value) VALUES ('bootstrapped_at', ?)`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("database: record bootstrap: %w", err)
	}
	return nil
}

// Open opens path with WAL journaling and a busy timeout, and pings it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	// one writer is all sqlite allows; :memory: also needs a single connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("database: %s: %w", p, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return db, nil
}
