// Package ingestion reads free-form requirements text for one-off runs and
// normalizes it before it reaches the prompt.
package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	innerSpace  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	bulletGlyph = regexp.MustCompile(`^[•·▪‣◦]\s*`)
)

// Source describes where requirements text came from.
type Source struct {
	Path   string    `json:"path,omitempty"`
	Bytes  int       `json:"bytes"`
	Hash   string    `json:"hash"` // SHA256 hex digest of the cleaned text
	ReadAt time.Time `json:"read_at"`
}

// CleanText normalizes line endings, collapses runs of spaces inside
// lines and keeps at most one blank line between paragraphs. Markdown
// headings, bullet lists and leading indentation are preserved; pasted
// bullet glyphs become "- " items.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.Trim(result, "\n")
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := line[:len(line)-len(trimmed)]
	indent = strings.ReplaceAll(indent, "\t", "  ")
	if bulletGlyph.MatchString(trimmed) {
		trimmed = "- " + bulletGlyph.ReplaceAllString(trimmed, "")
	}
	return indent + innerSpace.ReplaceAllString(trimmed, " ")
}

// Read cleans requirements text from r.
func Read(r io.Reader) (string, *Source, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read input: %w", err)
	}
	return newSource("", content)
}

// ReadFile cleans requirements text from the file at path.
func ReadFile(path string) (string, *Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("input file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read input: %w", err)
	}
	return newSource(path, content)
}

func newSource(path string, content []byte) (string, *Source, error) {
	cleaned := CleanText(string(content))
	sum := sha256.Sum256([]byte(cleaned))
	return cleaned, &Source{
		Path:   path,
		Bytes:  len(content),
		Hash:   hex.EncodeToString(sum[:]),
		ReadAt: time.Now().UTC(),
	}, nil
}
