// ABOUTME: Session store methods enforcing the single-live-session-per-user policy
// ABOUTME: ReplaceSession revokes and inserts inside one transaction to stay race-safe

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReplaceSession revokes any live session for the session's user and inserts
// the new record, all in one transaction. Two concurrent sign-ins for the same
// user serialize here; exactly one live session survives.
func (s *SQLiteStore) ReplaceSession(ctx context.Context, session *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		formatTime(time.Now()), session.UserID)
	if err != nil {
		return fmt.Errorf("revoking prior sessions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, workspace_id, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, NULL)
	`,
		session.ID,
		session.UserID,
		session.WorkspaceID,
		formatTime(session.CreatedAt),
		formatTime(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}

	s.logger.Info("issued session", "id", session.ID, "user", session.UserID, "workspace", session.WorkspaceID)
	return nil
}

// GetSession retrieves a session by ID, revoked or not.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.getSessionWhere(ctx, "id = ?", id)
}

// GetLiveSessionByUser retrieves the user's non-revoked session, if any.
// Expiry is not evaluated here; that is the session manager's job.
func (s *SQLiteStore) GetLiveSessionByUser(ctx context.Context, userID string) (*Session, error) {
	return s.getSessionWhere(ctx, "user_id = ? AND revoked_at IS NULL", userID)
}

func (s *SQLiteStore) getSessionWhere(ctx context.Context, where string, arg any) (*Session, error) {
	query := `
		SELECT id, user_id, workspace_id, created_at, expires_at, revoked_at
		FROM sessions
		WHERE ` + where

	row := s.db.QueryRowContext(ctx, query, arg)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return session, nil
}

// RenewSession extends a live session's expiry. Returns ErrSessionNotFound if
// the session does not exist or was revoked.
func (s *SQLiteStore) RenewSession(ctx context.Context, id string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE id = ? AND revoked_at IS NULL`,
		formatTime(expiresAt), id)
	if err != nil {
		return fmt.Errorf("renewing session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SetSessionWorkspace updates the active workspace of a live session.
func (s *SQLiteStore) SetSessionWorkspace(ctx context.Context, id, workspaceID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET workspace_id = ? WHERE id = ? AND revoked_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return fmt.Errorf("updating session workspace: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeSession marks a session revoked. Revoking an already-revoked or
// missing session succeeds silently; sign-out is idempotent.
func (s *SQLiteStore) RevokeSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is before the cutoff.
// Expiry stays a pull-based check at renewal time; this only reclaims rows.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	if affected > 0 {
		s.logger.Debug("deleted expired sessions", "count", affected)
	}
	return affected, nil
}

// ListSessions returns all sessions ordered by creation time, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*Session, error) {
	query := `
		SELECT id, user_id, workspace_id, created_at, expires_at, revoked_at
		FROM sessions
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (*Session, error) {
	var session Session
	var createdAtStr, expiresAtStr string
	var revokedAtStr sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.WorkspaceID,
		&createdAtStr,
		&expiresAtStr,
		&revokedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if session.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = parseTime(expiresAtStr); err != nil {
		return nil, err
	}
	if revokedAtStr.Valid {
		revokedAt, err := parseTime(revokedAtStr.String)
		if err != nil {
			return nil, err
		}
		session.RevokedAt = &revokedAt
	}

	return &session, nil
}
