package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/story-builder/internal/types"
)

func validRaw() map[string]any {
	return map[string]any{
		"title":       "  Password reset  ",
		"description": "As a user, I want to reset my password, so that I can log in again.",
		"acceptance_criteria": []any{
			" User can request a reset link ",
			"System sends an email within 1 minute",
			"",
			42,
			"Link expires after 24 hours",
		},
	}
}

func TestValidateStory_Valid(t *testing.T) {
	res := ValidateStory(validRaw())

	assert.Equal(t, Valid, res.Kind)
	assert.Empty(t, res.Issues)
	require.NotNil(t, res.Story)
	assert.Equal(t, "Password reset", res.Story.Title)
	assert.Equal(t, []string{
		"User can request a reset link",
		"System sends an email within 1 minute",
		"Link expires after 24 hours",
	}, res.Story.AcceptanceCriteria)
	assert.NotEmpty(t, res.SchemaIssues, "non-string criteria violate the schema")
}

func TestValidateStory_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		raw        any
		kind       Kind
		issues     []string
		wantsStory bool
	}{
		{
			name:   "not an object",
			raw:    "just text",
			kind:   Invalid,
			issues: []string{IssueNotObject},
		},
		{
			name:   "nil",
			raw:    nil,
			kind:   Invalid,
			issues: []string{IssueNotObject},
		},
		{
			name:   "array",
			raw:    []any{"a"},
			kind:   Invalid,
			issues: []string{IssueNotObject},
		},
		{
			name: "partial with one criterion",
			raw: map[string]any{
				"title":               "Login",
				"description":         "As a user, I want to log in",
				"acceptance_criteria": []any{"User can log in"},
			},
			kind:       Partial,
			issues:     []string{"Only 1 acceptance criteria (need 3-7)"},
			wantsStory: true,
		},
		{
			name: "partial with criteria not an array",
			raw: map[string]any{
				"title":               "Login",
				"description":         "As a user, I want to log in",
				"acceptance_criteria": "User can log in",
			},
			kind:       Partial,
			issues:     []string{"Only 0 acceptance criteria (need 3-7)"},
			wantsStory: true,
		},
		{
			name: "short title",
			raw: map[string]any{
				"title":               " ab ",
				"description":         "As a user, I want to log in",
				"acceptance_criteria": []any{"a", "b", "c"},
			},
			kind:   Invalid,
			issues: []string{IssueInvalidTitle},
		},
		{
			name:   "empty object",
			raw:    map[string]any{},
			kind:   Invalid,
			issues: []string{IssueInvalidTitle, IssueInvalidDescription, "Only 0 acceptance criteria (need 3-7)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateStory(tt.raw)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.issues, res.Issues)
			if tt.wantsStory {
				require.NotNil(t, res.Story)
				assert.NotNil(t, res.Story.AcceptanceCriteria)
			} else {
				assert.Nil(t, res.Story)
			}
		})
	}
}

func TestValidateStory_CapsCriteria(t *testing.T) {
	raw := validRaw()
	raw["acceptance_criteria"] = []any{"1", "2", "3", "4", "5", "6", "7", "8", "9"}

	res := ValidateStory(raw)
	require.Equal(t, Valid, res.Kind)
	assert.Len(t, res.Story.AcceptanceCriteria, MaxCriteria)
	assert.Equal(t, "7", res.Story.AcceptanceCriteria[6])
}

func TestValidateStory_Idempotent(t *testing.T) {
	first := ValidateStory(validRaw())
	require.Equal(t, Valid, first.Kind)

	second := ValidateStory(*first.Story)
	require.Equal(t, Valid, second.Kind)
	assert.Equal(t, first.Story, second.Story)
	assert.Empty(t, second.SchemaIssues)

	third := ValidateStory(second.Story)
	assert.Equal(t, first.Story, third.Story)
}

func TestValidateStory_NilStoryPointer(t *testing.T) {
	var s *types.Story
	res := ValidateStory(s)
	assert.Equal(t, Invalid, res.Kind)
}

func TestNormalizeCriteria(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeCriteria(nil))
	assert.Equal(t, []string{"a", "b"}, NormalizeCriteria([]string{" a ", "", "b"}))
	assert.Equal(t, []string{"x"}, NormalizeCriteria([]any{map[string]any{}, "x", nil}))
}
