// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite — no CGo, no C toolchain, easy
// cross-compilation. The blank import below registers it with
// database/sql as the "sqlite" driver.
//
// The one structural trick in this package is the querier field: every
// query method runs against q, which is either the *sql.DB pool or an
// open *sql.Tx. InTx hands callers a shallow copy of DB bound to the
// transaction, so the same repository methods serve both transactional
// and standalone use without duplication.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/yuta/grassuma/internal/repository"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the connection pool and implements repository.TxStore.
type DB struct {
	conn *sql.DB
	q    querier
}

var _ repository.TxStore = (*DB)(nil)

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write transaction is open — the
	// discovery/feed transactions would otherwise block every sync.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity for user_id/species_id references.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, q: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InTx runs fn inside one transaction. The Store passed to fn is this DB
// rebound to the transaction; fn returning an error (or a panic) rolls
// back every write made through it.
//
// Nested calls are flattened: if this DB is already transaction-bound,
// fn joins the open transaction instead of starting a second one, which
// SQLite does not support.
func (db *DB) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if _, inTx := db.q.(*sql.Tx); inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	txdb := &DB{conn: db.conn, q: tx}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txdb); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			github_id         INTEGER NOT NULL UNIQUE,
			login             TEXT NOT NULL,
			avatar_url        TEXT NOT NULL DEFAULT '',
			grass_power       INTEGER NOT NULL DEFAULT 0 CHECK (grass_power >= 0),
			total_discoveries INTEGER NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS species (
			id                  INTEGER PRIMARY KEY,
			name                TEXT NOT NULL UNIQUE,
			emoji               TEXT NOT NULL DEFAULT '',
			rarity              INTEGER NOT NULL,
			discovery_threshold INTEGER NOT NULL,
			habitat             TEXT NOT NULL DEFAULT '',
			description         TEXT NOT NULL DEFAULT '',
			active              INTEGER NOT NULL DEFAULT 1
		);
	`)
	if err != nil {
		return fmt.Errorf("creating species table: %w", err)
	}

	// UNIQUE(user_id, date) is the double-credit guard: at most one
	// reconciliation row per user per calendar day.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS daily_contributions (
			id        TEXT PRIMARY KEY,
			user_id   TEXT NOT NULL REFERENCES users(id),
			date      TEXT NOT NULL,
			count     INTEGER NOT NULL,
			reward    INTEGER NOT NULL,
			synced_at DATETIME NOT NULL,
			UNIQUE(user_id, date)
		);
		CREATE INDEX IF NOT EXISTS idx_daily_contributions_user
			ON daily_contributions(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating daily_contributions table: %w", err)
	}

	// UNIQUE(user_id, species_id): a user owns each species at most once.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS discoveries (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(id),
			species_id    INTEGER NOT NULL REFERENCES species(id),
			level         INTEGER NOT NULL DEFAULT 1,
			affection     INTEGER NOT NULL DEFAULT 0,
			nickname      TEXT NOT NULL DEFAULT '',
			fed_total     INTEGER NOT NULL DEFAULT 0,
			discovered_at DATETIME NOT NULL,
			UNIQUE(user_id, species_id)
		);
		CREATE INDEX IF NOT EXISTS idx_discoveries_user ON discoveries(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating discoveries table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS activity_log (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			type        TEXT NOT NULL,
			description TEXT NOT NULL,
			cost        INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_activity_log_user ON activity_log(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating activity_log table: %w", err)
	}

	return nil
}
