// Package store is the persistence facade the spec calls the Upstream
// Registry and Session Store (spec §3, §4.B, §4.C) plus the full CRUD
// contract of §6. It is implemented against SQLite rather than Postgres
// (see DESIGN.md / SPEC_FULL.md Open Question D.1): no Postgres driver
// exists anywhere in the example corpus, while modernc.org/sqlite, WAL
// mode, and a single-writer connection pool are exactly the teacher's own
// persistence idiom (pkg/limits/storage/sqlite.go).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed implementation of the Upstream Registry,
// Session Store, and fleet-administration contract.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	done chan struct{}

	closeOnce sync.Once
}

// Config configures a Store.
type Config struct {
	// Path is the SQLite database file path.
	Path string
	// BusyTimeout bounds how long a writer waits for the single-writer
	// lock before failing. Default: 5s.
	BusyTimeout time.Duration
	// CheckpointInterval is how often the WAL is checkpointed. Default: 5m.
	CheckpointInterval time.Duration
}

// Open opens (creating if necessary) the SQLite-backed store and
// initializes its schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path cannot be empty")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, done: make(chan struct{})}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	go s.checkpointLoop(cfg.CheckpointInterval)

	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS proxies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scheme TEXT NOT NULL,
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT '',
		last_used INTEGER NOT NULL DEFAULT 0,
		deleted_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_proxies_last_used ON proxies(last_used);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS proxy_tags (
		proxy_id INTEGER NOT NULL REFERENCES proxies(id),
		tag_id INTEGER NOT NULL REFERENCES tags(id),
		PRIMARY KEY (proxy_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS domains (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS domain_tags (
		domain_id INTEGER NOT NULL REFERENCES domains(id),
		tag_id INTEGER NOT NULL REFERENCES tags(id),
		PRIMARY KEY (domain_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS domain_coefficients (
		proxy_id INTEGER NOT NULL REFERENCES proxies(id),
		domain_id INTEGER NOT NULL REFERENCES domains(id),
		score INTEGER NOT NULL DEFAULT 50,
		PRIMARY KEY (proxy_id, domain_id)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		proxy_id INTEGER NOT NULL REFERENCES proxies(id),
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) checkpointLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.done)
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		closeErr = s.db.Close()
	})
	return closeErr
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
