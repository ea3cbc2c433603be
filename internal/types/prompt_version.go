package types

import (
	"time"
)

// Prompt version statuses.
const (
	PromptStatusDraft    = "draft"
	PromptStatusActive   = "active"
	PromptStatusArchived = "archived"
)

// PromptVersion is a stored prompt template.
type PromptVersion struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Template    string    `json:"template"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreatePromptVersionRequest is the body for creating a prompt version.
type CreatePromptVersionRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Template    string  `json:"template" validate:"required,min=1"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
}

// Validate validates the CreatePromptVersionRequest using the validator.
func (r *CreatePromptVersionRequest) Validate() error {
	return requestValidator.Struct(r)
}
