// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	jsonArray   = regexp.MustCompile(`\[[\s\S]*\]`)
)

// FencedJSON returns the trimmed body of the first ``` or ```json block
// anywhere in text.
func FencedJSON(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// EmbeddedArray returns the widest "[...]" span in text.
func EmbeddedArray(text string) (string, bool) {
	m := jsonArray.FindString(text)
	return m, m != ""
}
