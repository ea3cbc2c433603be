package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertStories stores one row per document in a single transaction and
// returns the new IDs in input order. Each row records its index so that
// ListSessionStories returns a batch in the same order.
func (db *DB) InsertStories(ctx context.Context, sessionID uuid.UUID, docs []StoryDocument) ([]uuid.UUID, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]uuid.UUID, 0, len(docs))
	for i, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal story %d: %w", i, err)
		}
		var id uuid.UUID
		err = tx.QueryRow(ctx,
			`INSERT INTO sb_stories (session_id, source, story, position)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			sessionID, SourceLLM, body, i,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert story %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stories: %w", err)
	}
	return ids, nil
}

// GetStory retrieves a stored story by ID. It returns nil, nil when no
// story exists.
func (db *DB) GetStory(ctx context.Context, id uuid.UUID) (*StoredStory, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, session_id, source, story, created_at
		 FROM sb_stories WHERE id = $1`,
		id,
	)
	s, err := scanStory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return s, nil
}

// ListSessionStories returns a session's stories, oldest first. Stories
// from the same batch keep their insertion order.
func (db *DB) ListSessionStories(ctx context.Context, sessionID uuid.UUID) ([]StoredStory, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, source, story, created_at
		 FROM sb_stories WHERE session_id = $1
		 ORDER BY created_at ASC, position ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	stories := []StoredStory{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func scanStory(row pgx.Row) (*StoredStory, error) {
	var s StoredStory
	var body []byte
	if err := row.Scan(&s.ID, &s.SessionID, &s.Source, &body, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &s.Story); err != nil {
		return nil, fmt.Errorf("failed to unmarshal story: %w", err)
	}
	return &s, nil
}
