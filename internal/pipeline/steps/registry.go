// Package steps defines the states of a single model run and the
// transitions allowed between them.
package steps

import (
	"fmt"
)

// Step is a state of a model run.
type Step string

// Run states.
const (
	Pending    Step = "pending"
	Generating Step = "generating"
	Validating Step = "validating"
	Repairing  Step = "repairing"
	Scoring    Step = "scoring"
	Done       Step = "done"
)

// Step categories
const (
	CategoryGeneration = "generation"
	CategoryValidation = "validation"
	CategoryEvaluation = "evaluation"
)

// StepDefinition defines metadata for a run state
type StepDefinition struct {
	Name     Step
	Category string
	// Next lists the states reachable from this one.
	Next []Step
}

// StepRegistry holds all step definitions
var StepRegistry = map[Step]StepDefinition{
	Pending: {
		Name:     Pending,
		Category: CategoryGeneration,
		Next:     []Step{Generating},
	},
	Generating: {
		Name:     Generating,
		Category: CategoryGeneration,
		Next:     []Step{Validating, Scoring},
	},
	Validating: {
		Name:     Validating,
		Category: CategoryValidation,
		Next:     []Step{Repairing, Scoring},
	},
	Repairing: {
		Name:     Repairing,
		Category: CategoryValidation,
		Next:     []Step{Scoring},
	},
	Scoring: {
		Name:     Scoring,
		Category: CategoryEvaluation,
		Next:     []Step{Done},
	},
	Done: {
		Name:     Done,
		Category: CategoryEvaluation,
	},
}

// TransitionError represents a transition the state machine does not allow
type TransitionError struct {
	From Step
	To   Step
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// ValidateTransition checks that to is reachable from from in one step
func ValidateTransition(from, to Step) error {
	def, ok := StepRegistry[from]
	if !ok {
		return fmt.Errorf("unknown step: %s", from)
	}
	for _, next := range def.Next {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// Category returns the category of a step, or "" if unknown.
func Category(s Step) string {
	return StepRegistry[s].Category
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Step) bool {
	def, ok := StepRegistry[s]
	return ok && len(def.Next) == 0
}
