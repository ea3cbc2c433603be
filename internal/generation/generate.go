// Package generation issues the structured story generation request and
// turns the model reply into a decoded JSON value.
package generation

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/prompts"
	"github.com/jonathan/story-builder/internal/schemas"
)

// ToolName is the function the model is forced to call.
const ToolName = "generate_user_story"

// Error messages for replies that could not be decoded.
const (
	MsgParseFailed = "Failed to parse LLM response as JSON"
	MsgNoResponse  = "No valid response from LLM"
)

// StoryTool returns the function definition sent with every story request.
func StoryTool() *llm.ToolSpec {
	return &llm.ToolSpec{
		Name:        ToolName,
		Description: prompts.Story(prompts.KeyStoryToolDescription),
		Parameters:  schemas.StorySchemaMap(),
	}
}

// Outcome is the result of one generation call. Payload is set whenever
// a request body was built, including on failure.
type Outcome struct {
	Data     any
	Payload  json.RawMessage
	Provider llm.Provider
}

// Generator requests stories from a model.
type Generator struct {
	client llm.Client
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New creates a Generator.
func New(client llm.Client, opts ...Option) *Generator {
	g := &Generator{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateStory sends messages to model with the story tool forced and
// decodes the reply. The returned Outcome is never nil. Errors are *llm.Error.
func (g *Generator) GenerateStory(ctx context.Context, model string, messages []llm.Message) (*Outcome, error) {
	ex, err := g.client.Complete(ctx, llm.Request{
		Model:    model,
		Messages: messages,
		Tool:     StoryTool(),
	})
	out := &Outcome{}
	if ex != nil {
		out.Payload = ex.Payload
		out.Provider = ex.Provider
	}
	if err != nil {
		return out, err
	}

	data, err := decodeReply(ex)
	if err != nil {
		g.logger.Warn("could not decode story reply", "model", model, "error", err)
		return out, err
	}
	out.Data = data
	return out, nil
}

// decodeReply tries the tool call arguments, then the content as JSON,
// then JSON inside a fenced block.
func decodeReply(ex *llm.Exchange) (any, error) {
	if ex.ToolArguments != "" {
		var v any
		if err := json.Unmarshal([]byte(ex.ToolArguments), &v); err == nil {
			return v, nil
		}
	}

	if ex.Content == "" {
		return nil, &llm.Error{Kind: llm.KindEmpty, Message: MsgNoResponse}
	}

	var v any
	err := json.Unmarshal([]byte(ex.Content), &v)
	if err == nil {
		return v, nil
	}
	if body, ok := llm.FencedJSON(ex.Content); ok {
		if jerr := json.Unmarshal([]byte(body), &v); jerr == nil {
			return v, nil
		}
	}
	return nil, &llm.Error{Kind: llm.KindParse, Message: MsgParseFailed, Cause: err}
}
