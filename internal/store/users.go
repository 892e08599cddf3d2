// ABOUTME: User store methods for the SQLite backend
// ABOUTME: Users are keyed by id and looked up by their immutable wallet address

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateUser inserts a new user record. The address must be unique.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, address, name, avatar, notify, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Address,
		user.Name,
		user.Avatar,
		boolToInt(user.Notify),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAddressExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("created user", "id", user.ID, "address", user.Address)
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByAddress retrieves a user by wallet address.
func (s *SQLiteStore) GetUserByAddress(ctx context.Context, address string) (*User, error) {
	return s.getUserWhere(ctx, "address = ?", address)
}

func (s *SQLiteStore) getUserWhere(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT id, address, name, avatar, notify, created_at, updated_at
		FROM users
		WHERE ` + where

	row := s.db.QueryRowContext(ctx, query, arg)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return user, nil
}

// UpdateUserProfile updates the mutable profile fields of a user.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id, name, avatar string, notify bool) error {
	query := `UPDATE users SET name = ?, avatar = ?, notify = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, name, avatar, boolToInt(notify), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListUsers returns all users ordered by creation time.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, address, name, avatar, notify, created_at, updated_at
		FROM users
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	var user User
	var notify int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Address,
		&user.Name,
		&user.Avatar,
		&notify,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	user.Notify = notify != 0
	if user.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, err
	}

	return &user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
