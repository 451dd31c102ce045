// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. The
// portal is a single-process, single-database deployment, which is exactly
// the shape SQLite is built for. Use ":memory:" for tests.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) knows
	// how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The repository interfaces are served by
// the Users() and Subscriptions() store views, which share this one pool.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/portal.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests, lost on close)
//
// sql.Open() does NOT actually open a connection — it creates a pool manager.
// We call Ping() to force an immediate connection so a bad path or permissions
// issue surfaces at startup, not on the first request.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode:
	// Default SQLite locks the entire database during writes. WAL allows
	// concurrent reads WHILE a write is happening — important for a web
	// server where the webhook can write while profile reads are in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We turn them on so subscriptions cannot reference nonexistent users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Wherever you call New(),
// immediately defer Close() — this flushes the WAL and releases the file lock
// even if a panic occurs.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// running this on an existing database is safe.
//
// THE EMAIL UNIQUENESS CONSTRAINT IS THE INVARIANT GUARDIAN:
// The auth service does a friendly existence check before inserting, but two
// concurrent registrations with the same email can both pass that check. The
// UNIQUE index (COLLATE NOCASE, so "A@x.com" == "a@x.com") is what actually
// prevents the duplicate row — the loser of the race gets a constraint error
// that Create translates into a conflict.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			full_name     TEXT NOT NULL DEFAULT '',
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// No uniqueness on (user_id, is_active): a user keeps historical
	// subscription rows, and entitlement reads take the most recent active
	// one. See GetActiveByUser.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS subscriptions (
			id                     TEXT PRIMARY KEY,
			user_id                TEXT NOT NULL REFERENCES users(id),
			plan_type              TEXT NOT NULL,
			is_active              INTEGER NOT NULL DEFAULT 1,
			stripe_customer_id     TEXT NOT NULL DEFAULT '',
			stripe_subscription_id TEXT NOT NULL DEFAULT '',
			status                 TEXT NOT NULL DEFAULT 'active',
			created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating subscriptions table: %w", err)
	}

	return nil
}
