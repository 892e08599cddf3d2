// Package store provides persistent storage for bako-safe-api using SQLite.
//
// # Architecture
//
// The package uses an interface-driven architecture with one interface per
// concern:
//
//   - UserStore: users keyed by id, looked up by wallet address
//   - WorkspaceStore: workspaces, membership, per-member permission rows
//   - SessionStore: session records with the single-live-session invariant
//   - PredicateStore: vault predicates scoped to a workspace
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries.
//
// # Concurrency contracts
//
// Two operations carry explicit transactional guarantees:
//
//   - ReplaceSession revokes any live session for the user and inserts the new
//     one inside a single transaction. A partial unique index on
//     sessions(user_id) WHERE revoked_at IS NULL backstops the invariant.
//   - SetMemberPermissions upserts a single (workspace_id, user_id) row. The
//     permission map is stored row-per-member precisely so concurrent edits to
//     different members of the same workspace cannot lose updates.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Common errors:
//
//   - ErrUserNotFound, ErrWorkspaceNotFound, ErrSessionNotFound, ErrPredicateNotFound
//   - ErrAddressExists: address uniqueness violation on user creation
//   - ErrMemberExists: duplicate membership insert
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewSQLiteStore(":memory:") for tests with real SQLite.
package store
