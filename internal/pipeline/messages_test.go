package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/story-builder/internal/prompts"
	"github.com/jonathan/story-builder/internal/types"
)

func TestTemplateInputs(t *testing.T) {
	in := TemplateInputs("  hello  ", types.ProjectSettings{
		ProjectName:      "Shop",
		TechnicalContext: "Go services",
		ProjectContext:   "ignored",
		FileContent:      strings.Repeat("f", 12000),
	})

	assert.Equal(t, "Shop", in[prompts.PlaceholderProjectName])
	assert.Equal(t, "hello", in[prompts.PlaceholderRawInput])
	assert.Equal(t, "Go services", in[prompts.PlaceholderProjectContext])
	assert.Len(t, in[prompts.PlaceholderFileContent], 10000)
	assert.Empty(t, in[prompts.PlaceholderPersona])
	assert.Len(t, in, len(prompts.PlaceholderNames))
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages("Write for {{ persona }}: {{raw_input}}", "   ", types.ProjectSettings{})
	require.Len(t, msgs, 2)

	assert.Equal(t, "system", msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "Write for [none]: [none]\n\n"))
	assert.True(t, strings.HasSuffix(msgs[0].Content, prompts.Story(prompts.KeyJSONOutputSuffix)))
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, EmptyInputMarker, msgs[1].Content)
}

func TestRedactMessages(t *testing.T) {
	long := strings.Repeat("a", 10050)
	out := redactMessages([]types.Message{{Role: "user", Content: long}})
	require.Len(t, out, 1)
	assert.True(t, strings.HasSuffix(out[0].Content, "...[truncated]"))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "ab", clip("abc", 2))
	assert.Equal(t, "héé", clip("héé", 3))
	assert.Equal(t, "hé", clip("héé", 2))
}

func TestBuildMessages_RawInputKeepsPlaceholders(t *testing.T) {
	msgs := BuildMessages("Input: {{ raw_input }}", "use {{ tone }} here", types.ProjectSettings{Tone: "FORMAL"})
	require.Len(t, msgs, 2)

	assert.True(t, strings.HasPrefix(msgs[0].Content, "Input: use {{ tone }} here\n\n"))
	assert.Equal(t, "use {{ tone }} here", msgs[1].Content)
}
