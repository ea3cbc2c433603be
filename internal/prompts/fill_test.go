package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFill(t *testing.T) {
	tests := []struct {
		name     string
		template string
		inputs   map[string]string
		expected string
	}{
		{
			name:     "spaced placeholder",
			template: "Hello {{ name }}!",
			inputs:   map[string]string{"name": "World"},
			expected: "Hello World!",
		},
		{
			name:     "tight placeholder",
			template: "Hello {{name}}!",
			inputs:   map[string]string{"name": "World"},
			expected: "Hello World!",
		},
		{
			name:     "missing value",
			template: "{{missing}}",
			inputs:   map[string]string{},
			expected: "[none]",
		},
		{
			name:     "empty value",
			template: "Tone: {{ tone }}",
			inputs:   map[string]string{"tone": ""},
			expected: "Tone: [none]",
		},
		{
			name:     "repeated placeholder",
			template: "{{a}}-{{ a }}",
			inputs:   map[string]string{"a": "x"},
			expected: "x-x",
		},
		{
			name:     "not a placeholder",
			template: "{{ two words }} and {{}}",
			inputs:   map[string]string{"two": "2"},
			expected: "{{ two words }} and {{}}",
		},
		{
			name:     "value with dollar signs is literal",
			template: "Price: {{price}}",
			inputs:   map[string]string{"price": "$1 $2"},
			expected: "Price: $1 $2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fill(tt.template, tt.inputs))
		})
	}
}

func TestFill_Deterministic(t *testing.T) {
	template := "{{ persona }} / {{tone}} / {{raw_input}}"
	inputs := map[string]string{"persona": "PM", "raw_input": "login"}

	first := Fill(template, inputs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Fill(template, inputs))
	}
	assert.Equal(t, "PM / [none] / login", first)
}

func TestFillNames_LeavesUnrecognized(t *testing.T) {
	template := "Project: {{ project_name }}; Extra: {{ sprint_goal }}"
	inputs := map[string]string{"project_name": "Atlas", "sprint_goal": "ignored"}

	result := FillNames(template, inputs, PlaceholderNames)
	assert.Equal(t, "Project: Atlas; Extra: {{ sprint_goal }}", result)
}

func TestFillNames_RegexMetacharactersInName(t *testing.T) {
	template := "{{ a.b }} {{ axb }}"
	result := FillNames(template, map[string]string{"a.b": "dot"}, []string{"a.b"})
	assert.Equal(t, "dot {{ axb }}", result)
}

func TestFillNames_MissingRecognizedValue(t *testing.T) {
	result := FillNames("Persona: {{persona}}", map[string]string{}, PlaceholderNames)
	assert.Equal(t, "Persona: [none]", result)
}

func TestFillNames_ValuesAreNotExpanded(t *testing.T) {
	inputs := map[string]string{
		"raw_input": "use {{ tone }} and {{persona}} here",
		"tone":      "FORMAL",
	}

	result := FillNames("Input: {{ raw_input }} / Tone: {{ tone }}", inputs, PlaceholderNames)
	assert.Equal(t, "Input: use {{ tone }} and {{persona}} here / Tone: FORMAL", result)
}
