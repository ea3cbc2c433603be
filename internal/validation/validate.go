// Package validation classifies decoded model output as a valid, partial
// or invalid user story.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/story-builder/internal/schemas"
	"github.com/jonathan/story-builder/internal/types"
)

// Kind is the outcome of validating a story.
type Kind string

// Outcomes.
const (
	Valid   Kind = "valid"
	Partial Kind = "partial"
	Invalid Kind = "invalid"
)

// Story limits.
const (
	MinTitleLength       = 3
	MinDescriptionLength = 10
	MinCriteria          = 3
	MaxCriteria          = 7
)

// Issue messages.
const (
	IssueNotObject          = "Response is not an object"
	IssueInvalidTitle       = "Missing or invalid title"
	IssueInvalidDescription = "Missing or invalid description"
)

// Result is the tagged outcome of ValidateStory. Story is set for Valid and
// Partial only.
type Result struct {
	Kind   Kind
	Story  *types.Story
	Issues []string
	// SchemaIssues lists JSON Schema violations of the raw value. They are
	// diagnostics and never change Kind.
	SchemaIssues []string
}

// ValidateStory checks an arbitrary decoded value against the story
// invariants. Criteria are normalized: strings only, trimmed, empties
// dropped, capped at MaxCriteria. A types.Story is accepted as input, so
// validating a Valid result's story again yields the same story.
func ValidateStory(raw any) Result {
	obj, ok := asObject(raw)
	if !ok {
		return Result{Kind: Invalid, Issues: []string{IssueNotObject}}
	}

	res := Result{SchemaIssues: schemaIssues(obj)}

	title, titleOK := usableText(obj["title"], MinTitleLength)
	desc, descOK := usableText(obj["description"], MinDescriptionLength)
	if !titleOK {
		res.Issues = append(res.Issues, IssueInvalidTitle)
	}
	if !descOK {
		res.Issues = append(res.Issues, IssueInvalidDescription)
	}

	criteria := NormalizeCriteria(obj["acceptance_criteria"])
	if len(criteria) < MinCriteria {
		res.Issues = append(res.Issues, fmt.Sprintf("Only %d acceptance criteria (need %d-%d)", len(criteria), MinCriteria, MaxCriteria))
	}

	switch {
	case titleOK && descOK && len(criteria) >= MinCriteria:
		res.Kind = Valid
		res.Issues = nil
	case titleOK && descOK:
		res.Kind = Partial
	default:
		res.Kind = Invalid
		return res
	}
	res.Story = &types.Story{Title: title, Description: desc, AcceptanceCriteria: criteria}
	return res
}

// NormalizeCriteria keeps trimmed non-empty strings from v, at most MaxCriteria.
// Anything that is not an array yields an empty slice.
func NormalizeCriteria(v any) []string {
	out := []string{}
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		for _, s := range list {
			items = append(items, s)
		}
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == MaxCriteria {
			break
		}
	}
	return out
}

func usableText(v any, minLen int) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) >= minLen
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, v != nil
	case types.Story:
		return storyObject(v), true
	case *types.Story:
		if v == nil {
			return nil, false
		}
		return storyObject(*v), true
	default:
		return nil, false
	}
}

func storyObject(s types.Story) map[string]any {
	criteria := make([]any, len(s.AcceptanceCriteria))
	for i, c := range s.AcceptanceCriteria {
		criteria[i] = c
	}
	return map[string]any{
		"title":               s.Title,
		"description":         s.Description,
		"acceptance_criteria": criteria,
	}
}

func schemaIssues(obj map[string]any) []string {
	err := schemas.ValidateStory(obj)
	if err == nil {
		return nil
	}
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		return ve.Messages()
	}
	return []string{err.Error()}
}
