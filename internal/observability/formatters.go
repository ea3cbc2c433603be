// Package observability provides human-readable output for story runs:
// boxed summaries for verbose CLI mode and Markdown/HTML renderings.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/story-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 7
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(title, inner), inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// PrintRun outputs the story, readiness verdict and evaluation of one run.
func (p *Printer) PrintRun(run types.Run) {
	var sb strings.Builder

	story := run.FinalStory
	title := story.Title
	if title == "" {
		title = "[empty]"
	}
	sb.WriteString(fmt.Sprintf("Title: %s\n", title))
	if story.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n", story.Description))
	}
	sb.WriteString("\n")

	if len(story.AcceptanceCriteria) > 0 {
		sb.WriteString("Acceptance Criteria:\n")
		count := min(len(story.AcceptanceCriteria), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, story.AcceptanceCriteria[i]))
		}
		if len(story.AcceptanceCriteria) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(story.AcceptanceCriteria)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("DoR: %s passed", check(run.DoR.Passed)))
	if len(run.DoR.FailReasons) > 0 {
		sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(run.DoR.FailReasons, "; ")))
	}
	sb.WriteString("\n")

	d := run.Eval.Dimensions
	sb.WriteString(fmt.Sprintf("Overall: %.1f  Review: %s\n", run.Eval.Overall, check(!run.Eval.NeedsReview)))
	sb.WriteString(fmt.Sprintf("Clarity %d  Testability %d  Completeness %d  Scope %d  Consistency %d\n",
		d.Clarity, d.Testability, d.Completeness, d.Scope, d.Consistency))
	if len(run.Eval.Flags) > 0 {
		sb.WriteString(fmt.Sprintf("Flags: %s\n", strings.Join(run.Eval.Flags, ", ")))
	}
	if run.Debug.LLMError != "" {
		sb.WriteString(fmt.Sprintf("Error: %s\n", run.Debug.LLMError))
	}

	p.printBox(fmt.Sprintf("STORY %s", run.ModelID), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRuns outputs every run followed by a comparison table when there
// is more than one.
func (p *Printer) PrintRuns(runs []types.Run) {
	for _, run := range runs {
		p.PrintRun(run)
	}
	if len(runs) < 2 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-36s %7s %4s %6s\n", "Model", "Overall", "DoR", "Review"))
	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("%-36s %7.1f %4s %6s\n",
			truncate(run.ModelID, 36), run.Eval.Overall, check(run.DoR.Passed), check(!run.Eval.NeedsReview)))
	}
	p.printBox("COMPARISON", strings.TrimSuffix(sb.String(), "\n"))
}
