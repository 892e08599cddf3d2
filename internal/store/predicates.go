// ABOUTME: Predicate (vault) store methods for the SQLite backend
// ABOUTME: Predicates are immutable once created and scoped to a workspace

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreatePredicate inserts a predicate record.
func (s *SQLiteStore) CreatePredicate(ctx context.Context, p *Predicate) error {
	query := `
		INSERT INTO predicates (id, workspace_id, name, description, address, bytecode, configurable, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.WorkspaceID,
		p.Name,
		p.Description,
		p.Address,
		p.Bytecode,
		p.Configurable,
		p.CreatedBy,
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting predicate: %w", err)
	}

	s.logger.Info("created predicate", "id", p.ID, "workspace", p.WorkspaceID, "address", p.Address)
	return nil
}

// GetPredicate retrieves a predicate by ID.
func (s *SQLiteStore) GetPredicate(ctx context.Context, id string) (*Predicate, error) {
	query := `
		SELECT id, workspace_id, name, description, address, bytecode, configurable, created_by, created_at
		FROM predicates
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	p, err := scanPredicate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPredicateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying predicate: %w", err)
	}
	return p, nil
}

// ListPredicatesByWorkspace returns a workspace's predicates ordered by creation time.
func (s *SQLiteStore) ListPredicatesByWorkspace(ctx context.Context, workspaceID string) ([]*Predicate, error) {
	query := `
		SELECT id, workspace_id, name, description, address, bytecode, configurable, created_by, created_at
		FROM predicates
		WHERE workspace_id = ?
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing predicates: %w", err)
	}
	defer rows.Close()

	var predicates []*Predicate
	for rows.Next() {
		p, err := scanPredicate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning predicate: %w", err)
		}
		predicates = append(predicates, p)
	}
	return predicates, rows.Err()
}

func scanPredicate(row scanner) (*Predicate, error) {
	var p Predicate
	var createdAtStr string

	err := row.Scan(
		&p.ID,
		&p.WorkspaceID,
		&p.Name,
		&p.Description,
		&p.Address,
		&p.Bytecode,
		&p.Configurable,
		&p.CreatedBy,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, err
	}
	return &p, nil
}
