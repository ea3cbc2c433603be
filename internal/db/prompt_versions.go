package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/story-builder/internal/types"
)

const promptVersionColumns = `id, name, template, description, status, created_at`

// ActivePromptVersion returns the active prompt version, or nil, nil.
func (db *DB) ActivePromptVersion(ctx context.Context) (*types.PromptVersion, error) {
	return db.queryPromptVersion(ctx,
		`SELECT `+promptVersionColumns+` FROM sb_prompt_versions
		 WHERE status = 'active' LIMIT 1`)
}

// LatestPromptVersion returns the most recently created prompt version,
// or nil, nil.
func (db *DB) LatestPromptVersion(ctx context.Context) (*types.PromptVersion, error) {
	return db.queryPromptVersion(ctx,
		`SELECT `+promptVersionColumns+` FROM sb_prompt_versions
		 ORDER BY created_at DESC LIMIT 1`)
}

// GetPromptVersion returns a prompt version by ID, or nil, nil.
func (db *DB) GetPromptVersion(ctx context.Context, id uuid.UUID) (*types.PromptVersion, error) {
	return db.queryPromptVersion(ctx,
		`SELECT `+promptVersionColumns+` FROM sb_prompt_versions WHERE id = $1`, id)
}

func (db *DB) queryPromptVersion(ctx context.Context, query string, args ...any) (*types.PromptVersion, error) {
	pv, err := scanPromptVersion(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt version: %w", err)
	}
	return pv, nil
}

// ListPromptVersions returns all prompt versions, newest first.
func (db *DB) ListPromptVersions(ctx context.Context) ([]types.PromptVersion, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+promptVersionColumns+` FROM sb_prompt_versions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt versions: %w", err)
	}
	defer rows.Close()

	versions := []types.PromptVersion{}
	for rows.Next() {
		pv, err := scanPromptVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt version: %w", err)
		}
		versions = append(versions, *pv)
	}
	return versions, rows.Err()
}

// CreatePromptVersion inserts a prompt version. Creating an active version
// archives the previously active one.
func (db *DB) CreatePromptVersion(ctx context.Context, req *types.CreatePromptVersionRequest) (*types.PromptVersion, error) {
	status := req.Status
	if status == "" {
		status = types.PromptStatusDraft
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if status == types.PromptStatusActive {
		if err := archiveActive(ctx, tx); err != nil {
			return nil, err
		}
	}

	pv, err := scanPromptVersion(tx.QueryRow(ctx,
		`INSERT INTO sb_prompt_versions (name, template, description, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+promptVersionColumns,
		req.Name, req.Template, req.Description, status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit prompt version: %w", err)
	}
	return pv, nil
}

// ActivatePromptVersion makes id the active prompt version and archives
// the previous one. It returns nil, nil when id does not exist.
func (db *DB) ActivatePromptVersion(ctx context.Context, id uuid.UUID) (*types.PromptVersion, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sb_prompt_versions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check prompt version: %w", err)
	}
	if !exists {
		return nil, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sb_prompt_versions SET status = 'archived'
		 WHERE status = 'active' AND id <> $1`, id,
	); err != nil {
		return nil, fmt.Errorf("failed to archive active prompt version: %w", err)
	}

	pv, err := scanPromptVersion(tx.QueryRow(ctx,
		`UPDATE sb_prompt_versions SET status = 'active' WHERE id = $1
		 RETURNING `+promptVersionColumns, id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to activate prompt version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %w", err)
	}
	return pv, nil
}

func archiveActive(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx,
		`UPDATE sb_prompt_versions SET status = 'archived' WHERE status = 'active'`,
	); err != nil {
		return fmt.Errorf("failed to archive active prompt version: %w", err)
	}
	return nil
}

func scanPromptVersion(row pgx.Row) (*types.PromptVersion, error) {
	var pv types.PromptVersion
	var id uuid.UUID
	if err := row.Scan(&id, &pv.Name, &pv.Template, &pv.Description, &pv.Status, &pv.CreatedAt); err != nil {
		return nil, err
	}
	pv.ID = id.String()
	return &pv, nil
}
