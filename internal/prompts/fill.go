package prompts

import "regexp"

// EmptyMarker replaces placeholders whose value is missing or empty.
const EmptyMarker = "[none]"

// Placeholder names understood by story templates.
const (
	PlaceholderProjectName        = "project_name"
	PlaceholderProjectDescription = "project_description"
	PlaceholderPersona            = "persona"
	PlaceholderTone               = "tone"
	PlaceholderFormat             = "format"
	PlaceholderRawInput           = "raw_input"
	PlaceholderCustomPrompt       = "custom_prompt"
	PlaceholderFileContent        = "file_content"
	PlaceholderProjectContext     = "project_context"
)

// PlaceholderNames lists every recognized story template placeholder.
var PlaceholderNames = []string{
	PlaceholderProjectName,
	PlaceholderProjectDescription,
	PlaceholderPersona,
	PlaceholderTone,
	PlaceholderFormat,
	PlaceholderRawInput,
	PlaceholderCustomPrompt,
	PlaceholderFileContent,
	PlaceholderProjectContext,
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)

// Fill replaces every {{ name }} placeholder in template with inputs[name],
// or EmptyMarker when the value is missing or empty. Text that does not
// match the placeholder syntax is left untouched.
func Fill(template string, inputs map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return valueOrMarker(inputs[name])
	})
}

// FillNames replaces only the placeholders for the given names in a
// single pass, so placeholders inside substituted values are never
// expanded. Any other placeholder stays in the output verbatim.
func FillNames(template string, inputs map[string]string, names []string) string {
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if !allowed[name] {
			return match
		}
		return valueOrMarker(inputs[name])
	})
}

func valueOrMarker(value string) string {
	if value == "" {
		return EmptyMarker
	}
	return value
}
