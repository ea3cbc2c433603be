package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFencedJSON(t *testing.T) {
	body, ok := FencedJSON("Here you go:\n```json\n{\"title\": \"x\"}\n```\nThanks")
	assert.True(t, ok)
	assert.Equal(t, `{"title": "x"}`, body)

	body, ok = FencedJSON("prefix ```{\"a\":1}``` suffix")
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, body)

	_, ok = FencedJSON(`{"a":1}`)
	assert.False(t, ok)
}

func TestEmbeddedArray(t *testing.T) {
	arr, ok := EmbeddedArray(`Sure! ["a", "b", "c"] hope this helps`)
	assert.True(t, ok)
	assert.Equal(t, `["a", "b", "c"]`, arr)

	_, ok = EmbeddedArray("no brackets here")
	assert.False(t, ok)
}

func TestModelIDMapping(t *testing.T) {
	assert.Equal(t, "openai/gpt-5-nano", GatewayModelID("openai:gpt-5-nano"))
	assert.Equal(t, "gemini-2.5-flash-lite", GeminiModelName("google:gemini-2.5-flash-lite"))
	assert.Equal(t, "plain", GeminiModelName("plain"))
}

func TestNewStatusError(t *testing.T) {
	assert.Equal(t, KindRateLimited, NewStatusError(429, nil).Kind)
	assert.Equal(t, KindPaymentRequired, NewStatusError(402, nil).Kind)

	apiErr := NewStatusError(500, nil)
	assert.Equal(t, KindAPI, apiErr.Kind)
	assert.Equal(t, "LLM API error: 500", apiErr.Error())
	assert.Equal(t, 500, StatusOf(apiErr))
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError(GatewayKeyEnv)
	assert.Equal(t, "LLM_GATEWAY_API_KEY not configured", err.Error())
	assert.Equal(t, KindConfig, KindOf(err))
}
