package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRegistry(t *testing.T) {
	expectedSteps := []Step{Pending, Generating, Validating, Repairing, Scoring, Done}

	for _, step := range expectedSteps {
		def, ok := StepRegistry[step]
		require.True(t, ok, "Step %s should be in registry", step)
		assert.Equal(t, step, def.Name)
		assert.NotEmpty(t, def.Category)
	}
}

func TestStepRegistryCategories(t *testing.T) {
	categories := map[string][]Step{
		CategoryGeneration: {Pending, Generating},
		CategoryValidation: {Validating, Repairing},
		CategoryEvaluation: {Scoring, Done},
	}

	for category, stepNames := range categories {
		for _, step := range stepNames {
			assert.Equal(t, category, Category(step), "Step %s should be in category %s", step, category)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	allowed := [][2]Step{
		{Pending, Generating},
		{Generating, Validating},
		{Generating, Scoring},
		{Validating, Repairing},
		{Validating, Scoring},
		{Repairing, Scoring},
		{Scoring, Done},
	}
	for _, tr := range allowed {
		assert.NoError(t, ValidateTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	err := ValidateTransition(Generating, Repairing)
	var trErr *TransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, Generating, trErr.From)
	assert.Equal(t, Repairing, trErr.To)
	assert.Contains(t, err.Error(), "invalid transition")

	assert.Error(t, ValidateTransition(Done, Pending))
	assert.Error(t, ValidateTransition(Step("bogus"), Done))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(Done))
	assert.False(t, IsTerminal(Scoring))
	assert.False(t, IsTerminal(Step("bogus")))
}
