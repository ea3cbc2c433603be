package observability

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jonathan/story-builder/internal/types"
)

// RenderMarkdown renders runs as a Markdown document, one section per run.
func RenderMarkdown(runs []types.Run) string {
	var sb strings.Builder
	for i, run := range runs {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		writeRunMarkdown(&sb, run)
	}
	return sb.String()
}

func writeRunMarkdown(sb *strings.Builder, run types.Run) {
	story := run.FinalStory
	title := story.Title
	if title == "" {
		title = "Untitled story"
	}
	fmt.Fprintf(sb, "# %s\n\n", escapeInline(title))
	fmt.Fprintf(sb, "_Model: `%s`_\n\n", run.ModelID)

	if story.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", escapeInline(story.Description))
	}

	sb.WriteString("## Acceptance Criteria\n\n")
	if len(story.AcceptanceCriteria) == 0 {
		sb.WriteString("_None._\n\n")
	}
	for _, ac := range story.AcceptanceCriteria {
		fmt.Fprintf(sb, "- [ ] %s\n", escapeInline(ac))
	}
	if len(story.AcceptanceCriteria) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("## Evaluation\n\n")
	d := run.Eval.Dimensions
	sb.WriteString("| Dimension | Score |\n|---|---|\n")
	fmt.Fprintf(sb, "| Clarity | %d |\n", d.Clarity)
	fmt.Fprintf(sb, "| Testability | %d |\n", d.Testability)
	fmt.Fprintf(sb, "| Completeness | %d |\n", d.Completeness)
	fmt.Fprintf(sb, "| Scope | %d |\n", d.Scope)
	fmt.Fprintf(sb, "| Consistency | %d |\n", d.Consistency)
	fmt.Fprintf(sb, "| **Overall** | **%.1f** |\n\n", run.Eval.Overall)

	ready := "Ready"
	if !run.DoR.Passed {
		ready = "Not ready"
	}
	fmt.Fprintf(sb, "**Definition of Ready:** %s\n", ready)
	for _, reason := range run.DoR.FailReasons {
		fmt.Fprintf(sb, "- %s\n", escapeInline(reason))
	}
	if run.Eval.NeedsReview {
		sb.WriteString("\n**Needs review.**")
		if len(run.Eval.Flags) > 0 {
			fmt.Fprintf(sb, " Flags: %s", strings.Join(run.Eval.Flags, ", "))
		}
		sb.WriteString("\n")
	}
}

// escapeInline keeps model text from opening Markdown blocks or raw HTML.
var inlineEscaper = strings.NewReplacer(
	"\n", " ",
	"<", "&lt;",
	">", "&gt;",
	"|", "\\|",
	"#", "\\#",
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(strings.TrimSpace(s))
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.TaskList),
)

// RenderHTML renders runs as an HTML fragment.
func RenderHTML(runs []types.Run) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(runs)), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.String(), nil
}
