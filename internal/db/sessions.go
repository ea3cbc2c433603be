package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/story-builder/internal/types"
)

// CreateSession inserts an active session titled after rawInput and
// returns its ID.
func (db *DB) CreateSession(ctx context.Context, rawInput string, settings types.ProjectSettings) (uuid.UUID, error) {
	defaults, err := json.Marshal(settings)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal context defaults: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO sb_sessions (title, status, context_defaults)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		SessionTitle(rawInput), SessionStatusActive, defaults,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// GetSession retrieves a session by ID. It returns nil, nil when no
// session exists.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	var defaults []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, status, context_defaults, created_at
		 FROM sb_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Title, &s.Status, &defaults, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(defaults) > 0 {
		if err := json.Unmarshal(defaults, &s.ContextDefaults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context defaults: %w", err)
		}
	}
	return &s, nil
}
