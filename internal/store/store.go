// ABOUTME: Store interfaces and data types for bako-safe-api persistence
// ABOUTME: Defines User, Workspace, Session, Predicate and the per-concern store interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a requested user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrAddressExists is returned when creating a user with an address that is already registered.
var ErrAddressExists = errors.New("address already registered")

// ErrWorkspaceNotFound is returned when a requested workspace does not exist.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrSessionNotFound is returned when a session doesn't exist or has been revoked.
var ErrSessionNotFound = errors.New("session not found")

// ErrPredicateNotFound is returned when a requested predicate does not exist.
var ErrPredicateNotFound = errors.New("predicate not found")

// ErrMemberExists is returned when adding a member that already belongs to the workspace.
var ErrMemberExists = errors.New("member already in workspace")

// Role names assignable inside a workspace. The owner role is implicit for the
// workspace owner and is never written to the permissions table.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// ValidRoles lists every role accepted by the permissions table.
var ValidRoles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleViewer}

// User is an identity keyed by a wallet address. The address is immutable;
// profile fields are not.
type User struct {
	ID        string
	Address   string
	Name      string
	Avatar    string
	Notify    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PermissionSet associates a role with the capability strings granted to one
// workspace member. Capabilities may be the role defaults or a custom override.
type PermissionSet struct {
	Role         Role
	Capabilities []string
}

// Workspace is a tenancy boundary grouping users, vaults and a permission map.
// The owner is an implicit member with full capabilities regardless of the
// Permissions content.
type Workspace struct {
	ID          string
	Name        string
	Avatar      string
	Single      bool
	OwnerID     string
	Members     []string                 // user ids, owner included
	Permissions map[string]PermissionSet // user id -> granted permissions
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether userID is the owner or listed as a member.
func (w *Workspace) HasMember(userID string) bool {
	if userID == w.OwnerID {
		return true
	}
	for _, m := range w.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Session binds an authenticated user to an active workspace with sliding
// expiry. At most one live session exists per user.
type Session struct {
	ID          string
	UserID      string
	WorkspaceID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}

// Revoked reports whether the session has been explicitly invalidated.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Predicate is a managed custody vault scoped to a workspace.
type Predicate struct {
	ID           string
	WorkspaceID  string
	Name         string
	Description  string
	Address      string
	Bytecode     string
	Configurable string
	CreatedBy    string
	CreatedAt    time.Time
}

// UserStore defines persistence for user records.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByAddress(ctx context.Context, address string) (*User, error)
	UpdateUserProfile(ctx context.Context, id, name, avatar string, notify bool) error
	ListUsers(ctx context.Context) ([]*User, error)
}

// WorkspaceStore defines persistence for workspaces, membership and the
// per-member permission map. SetMemberPermissions and RemoveMember operate on
// single rows so concurrent edits to different members never lose updates.
type WorkspaceStore interface {
	CreateWorkspace(ctx context.Context, ws *Workspace) error
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)
	GetSingleWorkspace(ctx context.Context, ownerID string) (*Workspace, error)
	ListWorkspacesByUser(ctx context.Context, userID string) ([]*Workspace, error)
	AddMember(ctx context.Context, workspaceID, userID string, perms PermissionSet) error
	RemoveMember(ctx context.Context, workspaceID, userID string) error
	SetMemberPermissions(ctx context.Context, workspaceID, userID string, perms PermissionSet) error
}

// SessionStore defines persistence for session records. ReplaceSession must
// atomically revoke any live session for the same user before inserting the
// new one, so two concurrent sign-ins can never both hold a live session.
type SessionStore interface {
	ReplaceSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	GetLiveSessionByUser(ctx context.Context, userID string) (*Session, error)
	RenewSession(ctx context.Context, id string, expiresAt time.Time) error
	SetSessionWorkspace(ctx context.Context, id, workspaceID string) error
	RevokeSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
	ListSessions(ctx context.Context) ([]*Session, error)
}

// PredicateStore defines persistence for predicate vaults.
type PredicateStore interface {
	CreatePredicate(ctx context.Context, p *Predicate) error
	GetPredicate(ctx context.Context, id string) (*Predicate, error)
	ListPredicatesByWorkspace(ctx context.Context, workspaceID string) ([]*Predicate, error)
}

// Store combines every persistence concern. SQLiteStore implements it.
type Store interface {
	UserStore
	WorkspaceStore
	SessionStore
	PredicateStore

	// Close releases any resources held by the store.
	Close() error
}
