package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/voxlab/promptforge/internal/domain"
)

// GetActivePrompt returns the currently active prompt version, or nil when no
// version has been seeded yet. If multiple rows are flagged active (possible
// only through out-of-band writes) the newest one wins.
func (s *Store) GetActivePrompt(ctx context.Context) (*domain.PromptVersion, error) {
	query := `
		SELECT version, content, notes, created_at, is_active
		FROM prompts
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT 1`

	p := &domain.PromptVersion{}
	err := s.conn(ctx).QueryRow(ctx, query).Scan(
		&p.Version, &p.Content, &p.Notes, &p.CreatedAt, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active prompt: %w", err)
	}
	return p, nil
}

// GetPromptByVersion returns the named version, or nil when it does not exist.
func (s *Store) GetPromptByVersion(ctx context.Context, version string) (*domain.PromptVersion, error) {
	query := `
		SELECT version, content, notes, created_at, is_active
		FROM prompts
		WHERE version = $1`

	p := &domain.PromptVersion{}
	err := s.conn(ctx).QueryRow(ctx, query, version).Scan(
		&p.Version, &p.Content, &p.Notes, &p.CreatedAt, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get prompt %s: %w", version, err)
	}
	return p, nil
}

// ListPrompts returns prompt versions newest-first.
func (s *Store) ListPrompts(ctx context.Context, limit int) ([]*domain.PromptVersion, error) {
	query := `
		SELECT version, content, notes, created_at, is_active
		FROM prompts
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.conn(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	prompts := make([]*domain.PromptVersion, 0)
	for rows.Next() {
		p := &domain.PromptVersion{}
		if err := rows.Scan(&p.Version, &p.Content, &p.Notes, &p.CreatedAt, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// CreatePrompt inserts a new active version, deactivating every other version
// in the same transaction so exactly one row stays active.
func (s *Store) CreatePrompt(ctx context.Context, version, content string, notes *string) (*domain.PromptVersion, error) {
	p := &domain.PromptVersion{
		Version:  version,
		Content:  content,
		Notes:    notes,
		IsActive: true,
	}

	err := s.WithTx(ctx, func(ctx context.Context) error {
		deactivate := `UPDATE prompts SET is_active = FALSE WHERE is_active`
		if _, err := s.conn(ctx).Exec(ctx, deactivate); err != nil {
			return fmt.Errorf("deactivate prompts: %w", err)
		}

		insert := `
			INSERT INTO prompts (version, content, notes, is_active)
			VALUES ($1, $2, $3, TRUE)
			RETURNING created_at`
		if err := s.conn(ctx).QueryRow(ctx, insert, version, content, notes).Scan(&p.CreatedAt); err != nil {
			return fmt.Errorf("insert prompt %s: %w", version, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
