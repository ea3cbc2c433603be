// Package repair asks a model for a fresh set of acceptance criteria when a
// generated story came back with a usable title and description only.
package repair

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/prompts"
	"github.com/jonathan/story-builder/internal/validation"
)

// Repairer regenerates acceptance criteria.
type Repairer struct {
	client llm.Client
	logger *slog.Logger
}

// Option configures a Repairer.
type Option func(*Repairer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repairer) {
		r.logger = l
	}
}

// New creates a Repairer.
func New(client llm.Client, opts ...Option) *Repairer {
	r := &Repairer{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Messages builds the repair prompt for a story.
func Messages(title, description string) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: prompts.Story(prompts.KeyRepairSystem)},
		{Role: "user", Content: prompts.Fill(prompts.Story(prompts.KeyRepairUser), map[string]string{
			"title":       title,
			"description": description,
		})},
	}
}

// RepairCriteria requests replacement acceptance criteria for the story.
// It returns between validation.MinCriteria and validation.MaxCriteria
// criteria, or a *Error.
func (r *Repairer) RepairCriteria(ctx context.Context, model, title, description string) ([]string, error) {
	ex, err := r.client.Complete(ctx, llm.Request{
		Model:      model,
		Messages:   Messages(title, description),
		JSONObject: true,
	})
	if err != nil {
		return nil, callError(err)
	}

	criteria, ok := ParseCriteria(ex.Content)
	if !ok {
		r.logger.Warn("repair reply had no usable criteria", "model", model)
		return nil, &Error{Message: MsgParseFailed}
	}
	r.logger.Debug("repair succeeded", "model", model, "criteria", len(criteria))
	return criteria, nil
}

// ParseCriteria reads criteria from a reply that is either a JSON array or
// an object with an acceptance_criteria array. When the reply is not JSON
// the widest embedded "[...]" is tried instead.
func ParseCriteria(content string) ([]string, bool) {
	if content == "" {
		return nil, false
	}

	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		embedded, found := llm.EmbeddedArray(content)
		if !found {
			return nil, false
		}
		if err := json.Unmarshal([]byte(embedded), &parsed); err != nil {
			return nil, false
		}
		if _, isArray := parsed.([]any); !isArray {
			return nil, false
		}
	}

	var list any
	switch v := parsed.(type) {
	case []any:
		list = v
	case map[string]any:
		list = v["acceptance_criteria"]
	}
	criteria := validation.NormalizeCriteria(list)
	if len(criteria) < validation.MinCriteria {
		return nil, false
	}
	return criteria, true
}

func callError(err error) *Error {
	if status := llm.StatusOf(err); status != 0 {
		return &Error{
			Message:    fmt.Sprintf("Repair API error: %d", status),
			StatusCode: status,
			Cause:      err,
		}
	}
	return &Error{Message: err.Error(), Cause: err}
}
