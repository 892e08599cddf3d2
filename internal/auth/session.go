// ABOUTME: Session lifecycle: issue, recover, renew, switch workspace, invalidate
// ABOUTME: Enforces single-live-session-per-user and sliding-window expiry

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// Manager drives the session lifecycle on top of the session store.
type Manager struct {
	sessions   store.SessionStore
	workspaces store.WorkspaceStore
	codec      *CredentialCodec
	ttl        time.Duration
	maxSkew    time.Duration
	logger     *slog.Logger

	// now is swappable in tests
	now func() time.Time
}

// NewManager creates a session manager. ttl is the sliding expiry window;
// maxSkew bounds how far a client-asserted signing time may deviate from
// server time at issue.
func NewManager(sessions store.SessionStore, workspaces store.WorkspaceStore, codec *CredentialCodec, ttl, maxSkew time.Duration) *Manager {
	return &Manager{
		sessions:   sessions,
		workspaces: workspaces,
		codec:      codec,
		ttl:        ttl,
		maxSkew:    maxSkew,
		logger:     slog.Default().With("component", "sessions"),
		now:        time.Now,
	}
}

// Issue creates a session for the user bound to the workspace, expiring at
// signedAt + ttl. The store transactionally revokes any prior live session
// for the user: a new sign-in silently logs out other devices. Returns the
// session and its encoded bearer credential.
//
// Expiry is measured from the client-asserted signing time, not server
// receipt time, bounded by maxSkew in either direction.
func (m *Manager) Issue(ctx context.Context, userID, workspaceID string, signedAt time.Time) (*store.Session, string, error) {
	now := m.now()
	if signedAt.After(now.Add(m.maxSkew)) || now.Sub(signedAt) > m.maxSkew {
		return nil, "", fmt.Errorf("%w: signing time outside acceptance window", ErrInvalidSignature)
	}

	session := &store.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		CreatedAt:   signedAt,
		ExpiresAt:   signedAt.Add(m.ttl),
	}

	if err := m.sessions.ReplaceSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("issuing session: %w", err)
	}

	credential, err := m.codec.Encode(session.ID, now)
	if err != nil {
		return nil, "", err
	}

	return session, credential, nil
}

// Recover resolves a client-presented credential to its session record.
// Unknown, unparseable or revoked credentials fail with ErrInvalidCredential.
func (m *Manager) Recover(ctx context.Context, credential string) (*store.Session, error) {
	sessionID, err := m.codec.Decode(credential)
	if err != nil {
		return nil, err
	}

	session, err := m.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: unknown session", ErrInvalidCredential)
	}
	if err != nil {
		return nil, fmt.Errorf("recovering session: %w", err)
	}

	if session.Revoked() {
		return nil, fmt.Errorf("%w: session revoked", ErrInvalidCredential)
	}

	return session, nil
}

// Renew extends a session's sliding expiry window from the current time.
// Expiry is evaluated before renewal: an expired session fails with
// ErrSessionExpired and is never extended.
func (m *Manager) Renew(ctx context.Context, session *store.Session) (*store.Session, error) {
	now := m.now()
	if now.After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	expiresAt := now.Add(m.ttl)
	err := m.sessions.RenewSession(ctx, session.ID, expiresAt)
	if errors.Is(err, store.ErrSessionNotFound) {
		// Revoked between recovery and renewal
		return nil, fmt.Errorf("%w: session revoked", ErrInvalidCredential)
	}
	if err != nil {
		return nil, fmt.Errorf("renewing session: %w", err)
	}

	session.ExpiresAt = expiresAt
	return session, nil
}

// SwitchWorkspace moves the session's active workspace to the target. The
// caller must be the owner, a member, or hold an explicit permissions entry;
// otherwise the switch fails closed with ErrNotAuthorized and the session is
// left unchanged.
func (m *Manager) SwitchWorkspace(ctx context.Context, session *store.Session, workspaceID, callerID string) (*store.Workspace, error) {
	ws, err := m.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if _, hasEntry := ws.Permissions[callerID]; !hasEntry && !ws.HasMember(callerID) {
		return nil, fmt.Errorf("%w: not a member of workspace %s", ErrNotAuthorized, workspaceID)
	}

	if err := m.sessions.SetSessionWorkspace(ctx, session.ID, ws.ID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: session revoked", ErrInvalidCredential)
		}
		return nil, fmt.Errorf("switching workspace: %w", err)
	}

	session.WorkspaceID = ws.ID
	m.logger.Info("switched workspace", "session", session.ID, "workspace", ws.ID)
	return ws, nil
}

// Invalidate marks the session dead. Subsequent Recover calls for its
// credential fail with ErrInvalidCredential.
func (m *Manager) Invalidate(ctx context.Context, session *store.Session) error {
	if err := m.sessions.RevokeSession(ctx, session.ID); err != nil {
		return fmt.Errorf("invalidating session: %w", err)
	}
	return nil
}

// InvalidateUser revokes the user's live session, if any. Idempotent: no
// error when no live session exists.
func (m *Manager) InvalidateUser(ctx context.Context, userID string) error {
	session, err := m.sessions.GetLiveSessionByUser(ctx, userID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up live session: %w", err)
	}
	return m.Invalidate(ctx, session)
}

// Credential re-encodes the bearer credential for an existing session.
func (m *Manager) Credential(session *store.Session) (string, error) {
	return m.codec.Encode(session.ID, m.now())
}

// TTL returns the configured sliding expiry window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
