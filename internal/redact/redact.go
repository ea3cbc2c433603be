// Package redact produces safe copies of request payloads for debug output.
// It is never applied to data that feeds generation or scoring.
package redact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLength is the longest string kept intact.
	MaxTextLength = 10000
	// TruncatedSuffix is appended to strings cut at MaxTextLength.
	TruncatedSuffix = "...[truncated]"
	// Mask replaces the value behind a sensitive key.
	Mask = "[REDACTED]"
)

var sensitiveKey = regexp.MustCompile(`(?i)api[_-]?key|token|authorization|secret|password|cookie|session|refresh|jwt|bearer|private|signature`)

// IsSensitiveKey reports whether values under key must be masked.
func IsSensitiveKey(key string) bool {
	return sensitiveKey.MatchString(key)
}

// Value returns a redacted copy of v. Supported shapes are the ones
// encoding/json produces when decoding into any: map[string]any, []any,
// string, json.Number, float64, bool and nil. Other values are returned
// unchanged.
func Value(v any) any {
	switch val := v.(type) {
	case string:
		return truncate(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Value(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = truncate(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, item := range val {
			if strings.EqualFold(key, "headers") {
				continue
			}
			if IsSensitiveKey(key) {
				out[key] = Mask
				continue
			}
			out[key] = Value(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for key, item := range val {
			if strings.EqualFold(key, "headers") {
				continue
			}
			if IsSensitiveKey(key) {
				out[key] = Mask
				continue
			}
			out[key] = truncate(item)
		}
		return out
	default:
		return v
	}
}

// JSON decodes raw and returns its redacted form. Numbers are kept as
// json.Number so the output re-encodes to the same digits.
func JSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode payload for redaction: %w", err)
	}
	return Value(decoded), nil
}

// truncate cuts on rune boundaries so the result stays valid UTF-8.
func truncate(s string) string {
	if len(s) <= MaxTextLength || utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	cut := 0
	for i := range s {
		if cut == MaxTextLength {
			return s[:i] + TruncatedSuffix
		}
		cut++
	}
	return s
}
