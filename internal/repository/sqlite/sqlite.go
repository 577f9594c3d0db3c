// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — it works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces (UserRepository, LibraryRepository, BookRepository).
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	// WAL lets reads proceed concurrently with a write, and foreign keys
	// must be on for the ON DELETE CASCADE chain (user → libraries →
	// associations) to fire. Both are per-connection settings, so they go
	// in the DSN where every pooled connection picks them up, not just
	// whichever one ran a PRAGMA statement.
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A ":memory:" database exists per connection, so a pool of more than
	// one would hand queries different empty databases. With the pool
	// capped, the PRAGMA below reaches the only connection there is.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
		}
	}

	// sql.Open doesn't actually connect; Ping surfaces a bad path or
	// permissions problem immediately instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New —
// closing flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent, so it is safe to run on every start.
//
// Schema notes:
//   - email is nullable UNIQUE: OAuth-created accounts may have no address,
//     and SQLite treats NULLs as distinct for UNIQUE purposes.
//   - library_books has a composite primary key — a (library, book) pair
//     exists at most once, enforced by the engine.
//   - rating lives on the association, nullable: NULL means "shelved but
//     not yet rated". Aggregates are computed at read time, never stored.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS libraries (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			private    INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_libraries_user_id ON libraries(user_id);

		CREATE TABLE IF NOT EXISTS books (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			author         TEXT NOT NULL DEFAULT 'Unknown',
			genre          TEXT NOT NULL DEFAULT '',
			published_year INTEGER,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS library_books (
			library_id TEXT NOT NULL REFERENCES libraries(id) ON DELETE CASCADE,
			book_id    TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			rating     INTEGER,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (library_id, book_id)
		);
		CREATE INDEX IF NOT EXISTS idx_library_books_book_id ON library_books(book_id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// (duplicate username/email/github_id, or a duplicate association row).
// Callers translate these into apperror.Conflict; there is no retry, the
// conflict goes straight back to the client.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
