package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/story-builder/internal/llm"
)

type fakeClient struct {
	ex   *llm.Exchange
	err  error
	last llm.Request
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (*llm.Exchange, error) {
	f.last = req
	return f.ex, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestStoryTool(t *testing.T) {
	tool := StoryTool()
	assert.Equal(t, "generate_user_story", tool.Name)
	assert.NotEmpty(t, tool.Description)
	assert.Equal(t, "object", tool.Parameters["type"])
	assert.NotContains(t, tool.Parameters, "$schema")
}

func TestGenerateStory_DecodeChain(t *testing.T) {
	tests := []struct {
		name      string
		ex        *llm.Exchange
		wantTitle string
		wantKind  llm.ErrorKind
	}{
		{
			name:      "tool call arguments",
			ex:        &llm.Exchange{ToolArguments: `{"title":"From tool"}`, Content: `{"title":"From content"}`},
			wantTitle: "From tool",
		},
		{
			name:      "bad tool arguments fall back to content",
			ex:        &llm.Exchange{ToolArguments: `{not json`, Content: `{"title":"From content"}`},
			wantTitle: "From content",
		},
		{
			name:      "fenced block in content",
			ex:        &llm.Exchange{Content: "Here it is:\n```json\n{\"title\":\"Fenced\"}\n```"},
			wantTitle: "Fenced",
		},
		{
			name:     "unparseable content",
			ex:       &llm.Exchange{Content: "sorry, I cannot help"},
			wantKind: llm.KindParse,
		},
		{
			name:     "broken fenced block",
			ex:       &llm.Exchange{Content: "```json\n{oops\n```"},
			wantKind: llm.KindParse,
		},
		{
			name:     "empty reply",
			ex:       &llm.Exchange{},
			wantKind: llm.KindEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ex.Payload = []byte(`{"model":"openai/gpt-5-nano"}`)
			g := New(&fakeClient{ex: tt.ex})

			out, err := g.GenerateStory(context.Background(), "openai:gpt-5-nano", nil)
			require.NotNil(t, out)
			assert.JSONEq(t, `{"model":"openai/gpt-5-nano"}`, string(out.Payload))

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, llm.KindOf(err))
				assert.Nil(t, out.Data)
				return
			}
			require.NoError(t, err)
			obj, ok := out.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantTitle, obj["title"])
		})
	}
}

func TestGenerateStory_ErrorMessages(t *testing.T) {
	g := New(&fakeClient{ex: &llm.Exchange{Content: "nope"}})
	_, err := g.GenerateStory(context.Background(), "m:x", nil)
	assert.EqualError(t, err, "Failed to parse LLM response as JSON")

	g = New(&fakeClient{ex: &llm.Exchange{}})
	_, err = g.GenerateStory(context.Background(), "m:x", nil)
	assert.EqualError(t, err, "No valid response from LLM")
}

func TestGenerateStory_TransportErrorKeepsPayload(t *testing.T) {
	fc := &fakeClient{
		ex:  &llm.Exchange{Provider: llm.ProviderGateway, Payload: []byte(`{"model":"x"}`)},
		err: llm.NewStatusError(429, errors.New("too many")),
	}
	g := New(fc)

	msgs := []llm.Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}}
	out, err := g.GenerateStory(context.Background(), "openai:gpt-5-nano", msgs)
	require.Error(t, err)
	assert.Equal(t, llm.KindRateLimited, llm.KindOf(err))
	assert.Equal(t, llm.ProviderGateway, out.Provider)
	assert.NotEmpty(t, out.Payload)

	require.NotNil(t, fc.last.Tool)
	assert.Equal(t, ToolName, fc.last.Tool.Name)
	assert.Equal(t, msgs, fc.last.Messages)
	assert.False(t, fc.last.JSONObject)
}
