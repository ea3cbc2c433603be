package llm

import (
	"context"
	"encoding/json"

	"github.com/jonathan/story-builder/internal/types"
)

// Client is an abstraction over model transports.
type Client interface {
	// Complete sends one request. The returned Exchange carries the payload
	// that was built for the request even when err is non-nil.
	Complete(ctx context.Context, req Request) (*Exchange, error)
	// Close releases any resources held by the client
	Close() error
}

// Message is a chat message.
type Message = types.Message

// ToolSpec describes a function the model is forced to call.
type ToolSpec struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object.
	Parameters map[string]any
}

// Request is a single chat completion request.
type Request struct {
	// Model is a "provider:model" id.
	Model    string
	Messages []Message
	// Tool, when set, forces a structured function-call reply.
	Tool *ToolSpec
	// JSONObject asks for a bare JSON object reply.
	JSONObject bool
}

// Exchange is the raw outcome of a request.
type Exchange struct {
	Provider Provider
	// Payload is the JSON request body handed to the transport. Gemini
	// exchanges carry an audit reconstruction instead of wire bytes.
	Payload json.RawMessage
	// ToolArguments holds the arguments of the first tool call, if any.
	ToolArguments string
	// Content holds the plain text reply, if any.
	Content string
}
