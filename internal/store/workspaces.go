// ABOUTME: Workspace store methods covering membership and the per-member permission map
// ABOUTME: Permission rows are upserted individually so concurrent member edits never collide

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CreateWorkspace inserts a workspace and its owner membership row in one
// transaction. The owner never gets a permissions row; ownership implies the
// wildcard at evaluation time.
func (s *SQLiteStore) CreateWorkspace(ctx context.Context, ws *Workspace) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workspaces (id, name, avatar, single, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ws.ID,
		ws.Name,
		ws.Avatar,
		boolToInt(ws.Single),
		ws.OwnerID,
		formatTime(ws.CreatedAt),
		formatTime(ws.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting workspace: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, created_at)
		VALUES (?, ?, ?)
	`, ws.ID, ws.OwnerID, formatTime(ws.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing workspace: %w", err)
	}

	s.logger.Info("created workspace", "id", ws.ID, "owner", ws.OwnerID, "single", ws.Single)
	return nil
}

// GetWorkspace retrieves a workspace by ID, including members and permissions.
func (s *SQLiteStore) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	return s.getWorkspaceWhere(ctx, "id = ?", id)
}

// GetSingleWorkspace retrieves a user's personal default workspace.
func (s *SQLiteStore) GetSingleWorkspace(ctx context.Context, ownerID string) (*Workspace, error) {
	return s.getWorkspaceWhere(ctx, "owner_id = ? AND single = 1", ownerID)
}

func (s *SQLiteStore) getWorkspaceWhere(ctx context.Context, where string, args ...any) (*Workspace, error) {
	query := `
		SELECT id, name, avatar, single, owner_id, created_at, updated_at
		FROM workspaces
		WHERE ` + where

	row := s.db.QueryRowContext(ctx, query, args...)
	ws, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying workspace: %w", err)
	}

	if err := s.loadWorkspaceRelations(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// ListWorkspacesByUser returns every workspace the user belongs to, owned or
// shared, ordered by creation time.
func (s *SQLiteStore) ListWorkspacesByUser(ctx context.Context, userID string) ([]*Workspace, error) {
	query := `
		SELECT w.id, w.name, w.avatar, w.single, w.owner_id, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.user_id = ?
		ORDER BY w.created_at
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workspace: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, ws := range workspaces {
		if err := s.loadWorkspaceRelations(ctx, ws); err != nil {
			return nil, err
		}
	}
	return workspaces, nil
}

// AddMember inserts a membership row and the member's initial permission row in
// one transaction. Returns ErrMemberExists if the user already belongs.
func (s *SQLiteStore) AddMember(ctx context.Context, workspaceID, userID string, perms PermissionSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, created_at)
		VALUES (?, ?, ?)
	`, workspaceID, userID, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrMemberExists
		}
		return fmt.Errorf("inserting member: %w", err)
	}

	capsJSON, err := json.Marshal(perms.Capabilities)
	if err != nil {
		return fmt.Errorf("encoding capabilities: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workspace_permissions (workspace_id, user_id, role, capabilities_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET
			role = excluded.role,
			capabilities_json = excluded.capabilities_json,
			updated_at = excluded.updated_at
	`, workspaceID, userID, string(perms.Role), string(capsJSON), now)
	if err != nil {
		return fmt.Errorf("inserting member permissions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing member: %w", err)
	}

	s.logger.Info("added workspace member", "workspace", workspaceID, "user", userID, "role", perms.Role)
	return nil
}

// RemoveMember deletes a membership row and its permission row. Removing a
// non-member is a no-op; re-adding the user later starts from fresh defaults.
func (s *SQLiteStore) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID)
	if err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM workspace_permissions WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID)
	if err != nil {
		return fmt.Errorf("deleting member permissions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing member removal: %w", err)
	}

	s.logger.Info("removed workspace member", "workspace", workspaceID, "user", userID)
	return nil
}

// SetMemberPermissions upserts one member's permission row. The single-row
// write is the atomic merge required for concurrent edits to the same
// workspace's permission map.
func (s *SQLiteStore) SetMemberPermissions(ctx context.Context, workspaceID, userID string, perms PermissionSet) error {
	capsJSON, err := json.Marshal(perms.Capabilities)
	if err != nil {
		return fmt.Errorf("encoding capabilities: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspace_permissions (workspace_id, user_id, role, capabilities_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET
			role = excluded.role,
			capabilities_json = excluded.capabilities_json,
			updated_at = excluded.updated_at
	`, workspaceID, userID, string(perms.Role), string(capsJSON), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upserting member permissions: %w", err)
	}

	s.logger.Debug("set member permissions", "workspace", workspaceID, "user", userID, "role", perms.Role)
	return nil
}

// loadWorkspaceRelations populates Members and Permissions for a workspace.
func (s *SQLiteStore) loadWorkspaceRelations(ctx context.Context, ws *Workspace) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM workspace_members WHERE workspace_id = ? ORDER BY created_at`,
		ws.ID)
	if err != nil {
		return fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	ws.Members = nil
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("scanning member: %w", err)
		}
		ws.Members = append(ws.Members, userID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	permRows, err := s.db.QueryContext(ctx,
		`SELECT user_id, role, capabilities_json FROM workspace_permissions WHERE workspace_id = ?`,
		ws.ID)
	if err != nil {
		return fmt.Errorf("listing permissions: %w", err)
	}
	defer permRows.Close()

	ws.Permissions = make(map[string]PermissionSet)
	for permRows.Next() {
		var userID, role, capsJSON string
		if err := permRows.Scan(&userID, &role, &capsJSON); err != nil {
			return fmt.Errorf("scanning permissions: %w", err)
		}

		var caps []string
		if err := json.Unmarshal([]byte(capsJSON), &caps); err != nil {
			return fmt.Errorf("decoding capabilities for %s: %w", userID, err)
		}
		ws.Permissions[userID] = PermissionSet{Role: Role(role), Capabilities: caps}
	}
	return permRows.Err()
}

func scanWorkspace(row scanner) (*Workspace, error) {
	var ws Workspace
	var single int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&ws.ID,
		&ws.Name,
		&ws.Avatar,
		&single,
		&ws.OwnerID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	ws.Single = single != 0
	if ws.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}
	if ws.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, err
	}

	return &ws, nil
}
