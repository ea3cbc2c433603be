// Package dor checks a story against the Definition of Ready.
package dor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/story-builder/internal/types"
)

// Fail reasons.
const (
	ReasonTitle       = "Title is missing or too short"
	ReasonDescription = "Description does not follow 'As a [role], I want [goal], so that [benefit]' format"
	ReasonTestability = "Less than half of acceptance criteria appear testable"
)

// ActionVerbPrefix marks a criterion as testable for the DoR check. It is
// deliberately narrower than the scorer's testability rules.
var ActionVerbPrefix = regexp.MustCompile(`(?i)^(user can|system|given|when|then|verify|ensure|check|validate|confirm|display|show|allow|prevent|enable|disable)`)

// Evaluate returns the DoR verdict for story. A non-empty upstreamErr is
// reported first. Every failing check is reported in a fixed order.
// Iterations is 1; callers that ran a repair round overwrite it.
func Evaluate(story types.Story, upstreamErr string) types.DoRResult {
	reasons := []string{}

	if upstreamErr != "" {
		reasons = append(reasons, "LLM error: "+upstreamErr)
	}

	if utf8.RuneCountInString(story.Title) < 3 {
		reasons = append(reasons, ReasonTitle)
	}

	if !HasStoryFormat(story.Description) {
		reasons = append(reasons, ReasonDescription)
	}

	n := len(story.AcceptanceCriteria)
	switch {
	case n < 3:
		reasons = append(reasons, fmt.Sprintf("Insufficient acceptance criteria (%d, need 3-7)", n))
	case n > 7:
		reasons = append(reasons, fmt.Sprintf("Too many acceptance criteria (%d, max 7)", n))
	}

	if CountTestable(story.AcceptanceCriteria) < (n+1)/2 {
		reasons = append(reasons, ReasonTestability)
	}

	return types.DoRResult{
		Passed:      len(reasons) == 0,
		Iterations:  1,
		FailReasons: reasons,
	}
}

// HasStoryFormat reports whether description contains "as a", "want" and
// "so that", ignoring case.
func HasStoryFormat(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "as a") && strings.Contains(lower, "want") && strings.Contains(lower, "so that")
}

// CountTestable counts criteria matching ActionVerbPrefix.
func CountTestable(criteria []string) int {
	count := 0
	for _, ac := range criteria {
		if ActionVerbPrefix.MatchString(strings.TrimSpace(ac)) {
			count++
		}
	}
	return count
}
