// Package types provides the value types shared by the story pipeline,
// the HTTP API and persistence.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Story is a generated user story.
type Story struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// EmptyStory returns a story with every field blank and a non-nil criteria slice.
func EmptyStory() Story {
	return Story{AcceptanceCriteria: []string{}}
}

// DoRResult is the Definition of Ready verdict for a story.
type DoRResult struct {
	Passed      bool     `json:"passed"`
	Iterations  int      `json:"iterations"`
	FailReasons []string `json:"fail_reasons"`
}

// Dimensions holds the five 1-5 quality scores.
type Dimensions struct {
	Clarity      int `json:"clarity"`
	Testability  int `json:"testability"`
	Completeness int `json:"completeness"`
	Scope        int `json:"scope"`
	Consistency  int `json:"consistency"`
}

// Sum returns the total of the five dimensions.
func (d Dimensions) Sum() int {
	return d.Clarity + d.Testability + d.Completeness + d.Scope + d.Consistency
}

// Eval flags.
const (
	FlagLLMError                  = "llm_error"
	FlagUnclearAcceptanceCriteria = "unclear_acceptance_criteria"
	FlagMissingEdgeCases          = "missing_edge_cases"
	FlagDoRFailed                 = "dor_failed"
	FlagBroadRequirements         = "broad_requirements"
	FlagModelFallbackUsed         = "model_fallback_used"
)

// EvalResult is the quality evaluation of a story.
type EvalResult struct {
	Overall          float64             `json:"overall"`
	NeedsReview      bool                `json:"needs_review"`
	Dimensions       Dimensions          `json:"dimensions"`
	Flags            []string            `json:"flags"`
	Explanations     map[string][]string `json:"explanations,omitempty"`
	UnclearACIndices []int               `json:"unclear_ac_indices,omitempty"`
}

// ACAnalysis records which testability rules matched one criterion.
type ACAnalysis struct {
	Index           int      `json:"ac_index"`
	Text            string   `json:"ac_text"`
	MatchedPatterns []string `json:"matched_patterns"`
	Testable        bool     `json:"is_testable"`
}

// TestabilityReport explains the testability score of a story.
type TestabilityReport struct {
	HeuristicVersion string       `json:"heuristic_version"`
	TotalAC          int          `json:"total_ac"`
	TestableCount    int          `json:"testable_count"`
	TestableRatio    float64      `json:"testable_ratio"`
	Threshold        float64      `json:"threshold"`
	Passed           bool         `json:"passed"`
	Details          []ACAnalysis `json:"ac_details"`
}
