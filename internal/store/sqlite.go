// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/workspace/session/predicate persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements the combined interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			address    TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL DEFAULT '',
			avatar     TEXT NOT NULL DEFAULT '',
			notify     INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_address ON users(address);

		CREATE TABLE IF NOT EXISTS workspaces (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			avatar     TEXT NOT NULL DEFAULT '',
			single     INTEGER NOT NULL DEFAULT 0,
			owner_id   TEXT NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_workspaces_owner ON workspaces(owner_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_workspaces_single_owner
			ON workspaces(owner_id) WHERE single = 1;

		CREATE TABLE IF NOT EXISTS workspace_members (
			workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
			user_id      TEXT NOT NULL REFERENCES users(id),
			created_at   TEXT NOT NULL,

			PRIMARY KEY (workspace_id, user_id)
		);

		CREATE INDEX IF NOT EXISTS idx_members_user ON workspace_members(user_id);

		-- One row per member keeps permission edits atomic per member; a full-map
		-- overwrite computed from a stale read could drop a concurrent grant.
		CREATE TABLE IF NOT EXISTS workspace_permissions (
			workspace_id      TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
			user_id           TEXT NOT NULL REFERENCES users(id),
			role              TEXT NOT NULL,
			capabilities_json TEXT NOT NULL,
			updated_at        TEXT NOT NULL,

			PRIMARY KEY (workspace_id, user_id),
			CHECK (role IN ('owner', 'admin', 'manager', 'viewer'))
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			workspace_id TEXT NOT NULL REFERENCES workspaces(id),
			created_at   TEXT NOT NULL,
			expires_at   TEXT NOT NULL,
			revoked_at   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_user_live
			ON sessions(user_id) WHERE revoked_at IS NULL;

		CREATE TABLE IF NOT EXISTS predicates (
			id           TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL REFERENCES workspaces(id),
			name         TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			address      TEXT NOT NULL,
			bytecode     TEXT NOT NULL DEFAULT '',
			configurable TEXT NOT NULL DEFAULT '',
			created_by   TEXT NOT NULL REFERENCES users(id),
			created_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_predicates_workspace ON predicates(workspace_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// formatTime serializes a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserializes a stored timestamp.
func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", v, err)
	}
	return t, nil
}

// isUniqueConstraintError reports whether err is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}
