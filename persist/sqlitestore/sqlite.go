// Package sqlitestore implements tweak.Persister on SQLite via modernc.org/sqlite.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/evan-idocoding/tweakkit/persist"
	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite-backed tweak.Persister.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ tweak.Persister = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report rows skipped on load.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

const memoryPath = ":memory:"

// Open opens (or creates) the database file at path and runs pending
// migrations. Pass ":memory:" for an in-memory database (used by tests).
func Open(path string, opts ...Option) (*Store, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	// One connection: ":memory:" stays a single database and writers never
	// contend for the file lock.
	db.SetMaxOpenConns(1)
	if err := configure(db, path == memoryPath); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return s, nil
}

// configure applies connection pragmas. WAL is skipped for in-memory
// databases, which do not support it.
func configure(db *sql.DB, memory bool) error {
	pragmas := []string{"busy_timeout = 5000", "foreign_keys = ON"}
	if !memory {
		pragmas = append(pragmas, "journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec("PRAGMA " + p); err != nil {
			return fmt.Errorf("sqlitestore: pragma %s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies every embedded NNN_name.sql file whose version is not yet
// recorded in schema_version, in file-name order.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return err
	}
	applied, err := s.AppliedMigrations()
	if err != nil {
		return err
	}
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	slices.Sort(names)
	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(path.Base(name), "%d_", &version); err != nil {
			return fmt.Errorf("%s: bad version prefix: %w", name, err)
		}
		if slices.Contains(applied, version) {
			continue
		}
		if err := s.applyMigration(name, version); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) applyMigration(name string, version int) error {
	body, err := migrationsFS.ReadFile(name)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(string(body)); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
		version, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// LoadOverrides returns every decodable row. Undecodable rows are skipped and logged.
func (s *Store) LoadOverrides() (map[string]tweak.Value, error) {
	rows, err := s.db.Query("SELECT key, kind, value FROM overrides")
	if err != nil {
		return nil, fmt.Errorf("querying overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[string]tweak.Value)
	for rows.Next() {
		var key string
		var r persist.Record
		if err := rows.Scan(&key, &r.Kind, &r.Value); err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		v, err := persist.Decode(r)
		if err != nil {
			s.logger.Warn("sqlitestore: skipping row", "key", key, "error", err)
			continue
		}
		out[key] = v
	}
	return out, rows.Err()
}

// SaveOverride upserts key's override.
func (s *Store) SaveOverride(key string, v tweak.Value) error {
	r := persist.Encode(v)
	_, err := s.db.Exec(`
		INSERT INTO overrides (key, kind, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at`,
		key, r.Kind, r.Value, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving override %q: %w", key, err)
	}
	return nil
}

// DeleteOverride removes key's override, if present.
func (s *Store) DeleteOverride(key string) error {
	if _, err := s.db.Exec("DELETE FROM overrides WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting override %q: %w", key, err)
	}
	return nil
}

// SaveReset deletes every override and records the reset in the resets table,
// in one transaction.
func (s *Store) SaveReset() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning reset: %w", err)
	}
	res, err := tx.Exec("DELETE FROM overrides")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing overrides: %w", err)
	}
	n, _ := res.RowsAffected()
	if _, err := tx.Exec("INSERT INTO resets (reset_at, cleared) VALUES (?, ?)", s.now().UTC().Format(time.RFC3339Nano), n); err != nil {
		tx.Rollback()
		return fmt.Errorf("recording reset: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}

// Reset is one recorded SaveReset call.
type Reset struct {
	At      time.Time
	Cleared int
}

// Resets returns the recorded resets, oldest first.
func (s *Store) Resets() ([]Reset, error) {
	rows, err := s.db.Query("SELECT reset_at, cleared FROM resets ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reset
	for rows.Next() {
		var at string
		var r Reset
		if err := rows.Scan(&at, &r.Cleared); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parsing reset_at: %w", err)
		}
		r.At = t
		out = append(out, r)
	}
	return out, rows.Err()
}

// Ping checks the database connection. It backs the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
