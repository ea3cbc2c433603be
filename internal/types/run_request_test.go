package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RunRequest
		wantErr bool
	}{
		{name: "empty request uses defaults", req: RunRequest{}},
		{name: "single mode", req: RunRequest{RunMode: RunModeSingle, Models: []string{"openai:gpt-5-nano"}}},
		{name: "compare mode", req: RunRequest{RunMode: RunModeCompare}},
		{name: "unknown mode", req: RunRequest{RunMode: "batch"}, wantErr: true},
		{name: "model without provider", req: RunRequest{Models: []string{"gpt-5-nano"}}, wantErr: true},
		{name: "blank model", req: RunRequest{Models: []string{""}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunRequest_Mode(t *testing.T) {
	assert.Equal(t, RunModeSingle, (&RunRequest{}).Mode())
	assert.Equal(t, RunModeCompare, (&RunRequest{RunMode: RunModeCompare}).Mode())
}

func TestProjectSettings_AcceptsBothSpellings(t *testing.T) {
	var camel ProjectSettings
	require.NoError(t, json.Unmarshal([]byte(`{"projectName":"Atlas","customPrompt":"be brief","technicalContext":"Go"}`), &camel))
	assert.Equal(t, "Atlas", camel.ProjectName)
	assert.Equal(t, "be brief", camel.CustomPrompt)
	assert.Equal(t, "Go", camel.Context())

	var snake ProjectSettings
	require.NoError(t, json.Unmarshal([]byte(`{"project_name":"Atlas","file_content":"notes","project_context":"ctx"}`), &snake))
	assert.Equal(t, "Atlas", snake.ProjectName)
	assert.Equal(t, "notes", snake.FileContent)
	assert.Equal(t, "ctx", snake.Context())
}

func TestProjectSettings_CamelCaseWins(t *testing.T) {
	var s ProjectSettings
	require.NoError(t, json.Unmarshal([]byte(`{"projectName":"camel","project_name":"snake"}`), &s))
	assert.Equal(t, "camel", s.ProjectName)
}

func TestModelHelpers(t *testing.T) {
	assert.True(t, IsModelID("google:gemini-2.5-flash-lite"))
	assert.False(t, IsModelID("google:"))
	assert.False(t, IsModelID("google: gemini"))
	assert.Equal(t, "openai", ModelProvider("openai:gpt-5-nano"))
	assert.Equal(t, "unknown", ModelProvider("gpt-5-nano"))
}

func TestDimensionsSum(t *testing.T) {
	d := Dimensions{Clarity: 5, Testability: 4, Completeness: 4, Scope: 3, Consistency: 4}
	assert.Equal(t, 20, d.Sum())
}

func TestEvalResult_OmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(EvalResult{Flags: []string{}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "explanations")
	assert.NotContains(t, string(data), "unclear_ac_indices")
}
