package pipeline

import (
	"strings"

	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/prompts"
	"github.com/jonathan/story-builder/internal/redact"
	"github.com/jonathan/story-builder/internal/types"
)

// EmptyInputMarker is sent as the user message when the raw input is blank.
const EmptyInputMarker = "[empty input]"

// TemplateInputs maps placeholder names to values for a request. Missing
// values are left empty and become prompts.EmptyMarker when filled.
func TemplateInputs(rawInput string, s types.ProjectSettings) map[string]string {
	return map[string]string{
		prompts.PlaceholderProjectName:        s.ProjectName,
		prompts.PlaceholderProjectDescription: s.ProjectDescription,
		prompts.PlaceholderPersona:            s.Persona,
		prompts.PlaceholderTone:               s.Tone,
		prompts.PlaceholderFormat:             s.Format,
		prompts.PlaceholderRawInput:           clip(strings.TrimSpace(rawInput), redact.MaxTextLength),
		prompts.PlaceholderCustomPrompt:       s.CustomPrompt,
		prompts.PlaceholderFileContent:        clip(s.FileContent, redact.MaxTextLength),
		prompts.PlaceholderProjectContext:     s.Context(),
	}
}

// BuildMessages fills template and returns the system and user messages
// for a story request. Placeholders other than the recognized names are
// left in place.
func BuildMessages(template, rawInput string, s types.ProjectSettings) []llm.Message {
	filled := prompts.FillNames(template, TemplateInputs(rawInput, s), prompts.PlaceholderNames)
	system := filled + "\n\n" + prompts.Story(prompts.KeyJSONOutputSuffix)

	user := strings.TrimSpace(rawInput)
	if user == "" {
		user = EmptyInputMarker
	}
	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// redactMessages returns a copy of msgs safe to expose in debug output.
func redactMessages(msgs []llm.Message) []types.Message {
	out := make([]types.Message, len(msgs))
	for i, m := range msgs {
		content, _ := redact.Value(m.Content).(string)
		out[i] = types.Message{Role: m.Role, Content: content}
	}
	return out
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
