/*
Package sqlite provides a SQLite-backed implementation of the desk store interfaces.

PURPOSE:
  Implements desk.Store (ideas, clients, tasks, assignees, workpapers,
  calculator payloads) over a single SQLite file using database/sql.

KEY TABLES:
  ideas:           Scored ideas (standalone)
  clients:         Customer accounts, unique name, free-text owner
  tasks:           Per-client work items            (cascade with client)
  assignees:       Per-client staff members         (cascade with client)
  workpapers:      Per-assignee review artifacts    (cascade with assignee)
  calculator_data: Per-assignee calculator payloads (cascade with assignee),
                   unique on (assignee_id, calc_key)

CONNECTIONS:
  One *sql.DB pool is opened at startup and injected wherever it is needed.
  Every statement checks a connection out of the pool and returns it when the
  statement (or its rows) is closed. There is no application-level locking;
  concurrent writers to the same row are resolved by SQLite statement
  atomicity.

  ":memory:" databases are pinned to a single connection, otherwise each
  pooled connection would see its own empty database.

FOREIGN KEYS:
  Opened with _foreign_keys=on so ON DELETE CASCADE is enforced on every
  connection.

MIGRATION:
  Migrate() creates the schema idempotently. Seed() inserts demo rows only
  when the clients table is empty. Both are explicit steps run by the
  `migrate` and `serve` commands; Open() does neither.

USAGE:
  store, err := sqlite.Open("./data/clientdesk.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  if err := store.Migrate(ctx); err != nil { ... }
  if _, err := store.Seed(ctx); err != nil { ... }

SEE ALSO:
  - desk/store.go: Interface definitions
  - seed.go:       Demo data
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/clientdesk/desk"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var _ desk.Store = (*Store)(nil)

// Store implements desk.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path, creating parent directories as
// needed. Use MemoryPath for an in-memory database.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

// Migrate creates the database schema.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ideas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		owner TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_clients_owner ON clients(owner);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'awaiting'
			CHECK (status IN ('awaiting', 'in_progress', 'done')),
		due_date TEXT,
		FOREIGN KEY(client_id) REFERENCES clients(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_client ON tasks(client_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS assignees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		FOREIGN KEY(client_id) REFERENCES clients(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_assignees_client ON assignees(client_id);

	CREATE TABLE IF NOT EXISTS workpapers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assignee_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft', 'review', 'final')),
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		FOREIGN KEY(assignee_id) REFERENCES assignees(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_workpapers_assignee ON workpapers(assignee_id);

	CREATE TABLE IF NOT EXISTS calculator_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assignee_id INTEGER NOT NULL,
		calc_key TEXT NOT NULL,
		data TEXT NOT NULL DEFAULT '{}',
		updated_at TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE(assignee_id, calc_key),
		FOREIGN KEY(assignee_id) REFERENCES assignees(id) ON DELETE CASCADE
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// WithTx runs fn inside a SQL transaction, rolling back on error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// sqliteTimeLayout is what datetime('now') produces.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func parseTime(s string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.UTC()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeSubstring builds a LIKE pattern matching s anywhere, with wildcards
// in s taken literally. Use with ESCAPE '\'.
func likeSubstring(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
