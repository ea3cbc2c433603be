// Package schemas provides JSON Schema validation for generated stories.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed story.schema.json
var storySchemaJSON []byte

var (
	storySchemaOnce sync.Once
	storySchema     *gojsonschema.Schema
	storySchemaErr  error
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Messages returns each field error as "field: message".
func (ve *ValidationError) Messages() []string {
	out := make([]string, 0, len(ve.Errors))
	for _, err := range ve.Errors {
		out = append(out, err.Field+": "+err.Message)
	}
	return out
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// StorySchema returns the raw story JSON Schema document.
func StorySchema() []byte {
	return storySchemaJSON
}

// StorySchemaMap returns the story schema decoded into a map, suitable for
// embedding as function-call parameters. Each call returns a fresh copy.
func StorySchemaMap() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(storySchemaJSON, &m); err != nil {
		panic(fmt.Sprintf("embedded story schema is invalid: %v", err))
	}
	delete(m, "$schema")
	delete(m, "title")
	return m
}

// ValidateStory checks an already-decoded value against the story schema.
// It returns nil when the value conforms, *ValidationError when it does not.
func ValidateStory(v any) error {
	schema, err := loadStorySchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return fmt.Errorf("failed to validate story document: %w", err)
	}
	return toValidationError(result)
}

func loadStorySchema() (*gojsonschema.Schema, error) {
	storySchemaOnce.Do(func() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(storySchemaJSON))
		if err != nil {
			storySchemaErr = &SchemaLoadError{
				Path:    "story.schema.json",
				Message: "invalid embedded schema",
				Cause:   err,
			}
			return
		}
		storySchema = schema
	})
	return storySchema, storySchemaErr
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
