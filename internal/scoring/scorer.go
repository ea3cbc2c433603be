package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/story-builder/internal/types"
)

// TestabilityThreshold is the testable ratio at which the testability check passes.
const TestabilityThreshold = 0.5

const (
	acTextLimit         = 120
	unclearExplanation  = "Some acceptance criteria lack clear testable patterns. Good ACs include: action verbs, conditional outcomes, security/performance constraints, or verifiable state changes."
	broadDescriptionLen = 500
)

// Scorer evaluates story quality. It holds no mutable state.
type Scorer struct {
	rules RuleSet
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithRuleSet replaces the default testability rules.
func WithRuleSet(rs RuleSet) Option {
	return func(s *Scorer) {
		s.rules = rs
	}
}

// NewScorer creates a Scorer.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{rules: DefaultRuleSet()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RuleSetVersion returns the version of the active testability rules.
func (s *Scorer) RuleSetVersion() string {
	return s.rules.Version
}

// Score evaluates story. When upstreamErr is set every dimension is 1 and
// no testability report is produced.
func (s *Scorer) Score(story types.Story, dor types.DoRResult, upstreamErr string) (types.EvalResult, *types.TestabilityReport) {
	if upstreamErr != "" {
		return types.EvalResult{
			Overall:     1.0,
			NeedsReview: true,
			Dimensions:  types.Dimensions{Clarity: 1, Testability: 1, Completeness: 1, Scope: 1, Consistency: 1},
			Flags:       []string{types.FlagLLMError},
			Explanations: map[string][]string{
				types.FlagLLMError: {upstreamErr},
			},
		}, nil
	}

	flags := []string{}
	explanations := map[string][]string{}

	report, unclear := s.analyze(story.AcceptanceCriteria)

	dims := types.Dimensions{
		Clarity:      clarity(story.Description),
		Testability:  testability(report),
		Completeness: completeness(len(story.AcceptanceCriteria)),
		Consistency:  3,
	}
	if dor.Passed {
		dims.Consistency = 4
	}

	titleLen := utf8.RuneCountInString(story.Title)
	descLen := utf8.RuneCountInString(story.Description)
	dims.Scope = 4
	if titleLen < 10 || titleLen > 100 || descLen < 30 {
		dims.Scope = 3
	}
	if descLen > broadDescriptionLen {
		dims.Scope = 3
		flags = append(flags, types.FlagBroadRequirements)
	}

	overall := math.Round(float64(dims.Sum())/5*10) / 10
	eval := types.EvalResult{
		Overall:     overall,
		NeedsReview: overall < 4 || dims.Testability < 3 || dims.Completeness < 3 || !dor.Passed,
		Dimensions:  dims,
	}

	if dims.Testability < 3 {
		flags = append(flags, types.FlagUnclearAcceptanceCriteria)
		explanations[types.FlagUnclearAcceptanceCriteria] = []string{unclearExplanation}
		if len(unclear) > 0 {
			eval.UnclearACIndices = unclear
		}
	}
	if dims.Completeness < 3 {
		flags = append(flags, types.FlagMissingEdgeCases)
	}
	if !dor.Passed {
		flags = append(flags, types.FlagDoRFailed)
		explanations[types.FlagDoRFailed] = append([]string{}, dor.FailReasons...)
	}

	eval.Flags = flags
	if len(explanations) > 0 {
		eval.Explanations = explanations
	}
	return eval, report
}

func (s *Scorer) analyze(criteria []string) (*types.TestabilityReport, []int) {
	report := &types.TestabilityReport{
		HeuristicVersion: s.rules.Version,
		TotalAC:          len(criteria),
		Threshold:        TestabilityThreshold,
		Details:          []types.ACAnalysis{},
	}
	var unclear []int
	for i, ac := range criteria {
		matched := s.rules.Analyze(ac)
		testable := len(matched) > 0
		report.Details = append(report.Details, types.ACAnalysis{
			Index:           i,
			Text:            previewText(ac),
			MatchedPatterns: matched,
			Testable:        testable,
		})
		if testable {
			report.TestableCount++
		} else {
			unclear = append(unclear, i)
		}
	}

	var ratio float64
	if report.TotalAC > 0 {
		ratio = float64(report.TestableCount) / float64(report.TotalAC)
	}
	report.TestableRatio = math.Round(ratio*100) / 100
	report.Passed = ratio >= TestabilityThreshold
	return report, unclear
}

func clarity(description string) int {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "as a") && strings.Contains(lower, "want") && strings.Contains(lower, "so that"):
		return 5
	case strings.Contains(lower, "want") || strings.Contains(lower, "need"):
		return 4
	default:
		return 3
	}
}

// testability maps the unrounded testable ratio onto 2..5.
func testability(report *types.TestabilityReport) int {
	if report.TotalAC == 0 {
		return 2
	}
	ratio := float64(report.TestableCount) / float64(report.TotalAC)
	return min(5, 2+int(math.Round(ratio*3)))
}

func completeness(n int) int {
	switch {
	case n >= 5:
		return 5
	case n >= 3:
		return 4
	case n >= 1:
		return 2
	default:
		return 1
	}
}

func previewText(ac string) string {
	if utf8.RuneCountInString(ac) <= acTextLimit {
		return ac
	}
	return string([]rune(ac)[:acTextLimit]) + "..."
}
