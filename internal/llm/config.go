// Package llm provides the model transport used by story generation: an
// OpenAI-compatible gateway client, a direct Gemini client and a router
// that picks between them by model id.
package llm

import "strings"

// Provider names a transport.
type Provider string

// Provider constants define supported transports
const (
	// ProviderGateway is the OpenAI-compatible chat completions gateway
	ProviderGateway Provider = "gateway"
	// ProviderGemini is the Google Gemini API reached directly
	ProviderGemini Provider = "gemini"
)

// DefaultGatewayURL is the chat completions gateway used when none is configured.
const DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1"

// GatewayKeyEnv is the environment variable holding the gateway API key.
const GatewayKeyEnv = "LLM_GATEWAY_API_KEY"

// Config holds transport configuration.
type Config struct {
	GatewayURL    string
	GatewayAPIKey string
	// GeminiAPIKey enables direct Gemini calls for "google:" models when set.
	GeminiAPIKey string
}

// DefaultConfig returns a configuration pointing at the default gateway
// with no credentials.
func DefaultConfig() *Config {
	return &Config{GatewayURL: DefaultGatewayURL}
}

// GatewayModelID maps "provider:model" to the gateway's "provider/model" form.
func GatewayModelID(modelID string) string {
	return strings.Replace(modelID, ":", "/", 1)
}

// GeminiModelName strips the provider prefix from a "google:model" id.
func GeminiModelName(modelID string) string {
	if _, name, ok := strings.Cut(modelID, ":"); ok {
		return name
	}
	return modelID
}
