// ABOUTME: Shared test helpers for store tests
// ABOUTME: Provides an in-memory SQLite store and fixture builders

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates an in-memory SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

// createTestUser inserts a user with a unique address and returns it.
func createTestUser(t *testing.T, s *SQLiteStore, name string) *User {
	t.Helper()

	now := time.Now()
	user := &User{
		ID:        uuid.NewString(),
		Address:   "addr-" + uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// createTestWorkspace inserts a workspace owned by ownerID and returns it.
func createTestWorkspace(t *testing.T, s *SQLiteStore, ownerID string, single bool) *Workspace {
	t.Helper()

	now := time.Now()
	ws := &Workspace{
		ID:        uuid.NewString(),
		Name:      "workspace-" + uuid.NewString()[:8],
		Single:    single,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateWorkspace(context.Background(), ws))
	return ws
}
