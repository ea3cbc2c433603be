package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	logger *slog.Logger
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, apiKey string, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiClient{
		client: client,
		logger: logger,
	}, nil
}

// geminiPayload is the audit view of a Gemini request, rebuilt from the
// SDK model settings. It is not the wire payload: the SDK encodes its own
// protobuf request, and this struct only records the same fields as JSON.
type geminiPayload struct {
	Model             string            `json:"model"`
	SystemInstruction *genai.Content    `json:"system_instruction,omitempty"`
	Contents          []*genai.Content  `json:"contents"`
	Tools             []*genai.Tool     `json:"tools,omitempty"`
	ToolConfig        *genai.ToolConfig `json:"tool_config,omitempty"`
	ResponseMIMEType  string            `json:"response_mime_type,omitempty"`
}

// auditPayload encodes the request settings of model for debug output.
func auditPayload(name string, model *genai.GenerativeModel, contents []*genai.Content) (json.RawMessage, error) {
	return json.Marshal(geminiPayload{
		Model:             name,
		SystemInstruction: model.SystemInstruction,
		Contents:          contents,
		Tools:             model.Tools,
		ToolConfig:        model.ToolConfig,
		ResponseMIMEType:  model.ResponseMIMEType,
	})
}

// Complete sends req to Gemini.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Exchange, error) {
	name := GeminiModelName(req.Model)
	model := c.client.GenerativeModel(name)

	system, contents := splitContents(req.Messages)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	if req.Tool != nil {
		model.Tools = []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  geminiSchema(req.Tool.Parameters),
			}},
		}}
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingAny,
				AllowedFunctionNames: []string{req.Tool.Name},
			},
		}
	}
	if req.JSONObject {
		model.ResponseMIMEType = "application/json"
	}

	payload, err := auditPayload(name, model, contents)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "failed to encode request", Cause: err}
	}
	ex := &Exchange{Provider: ProviderGemini, Payload: payload}

	if len(contents) == 0 {
		contents = []*genai.Content{genai.NewUserContent(genai.Text(""))}
	}
	session := model.StartChat()
	session.History = contents[:len(contents)-1]

	c.logger.Debug("gemini request", "model", name, "tool", req.Tool != nil, "json_object", req.JSONObject)

	resp, err := session.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			c.logger.Warn("gemini returned error status", "status", gErr.Code, "model", name)
			return ex, NewStatusError(gErr.Code, err)
		}
		return ex, NewTransportError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ex, nil
	}
	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			if ex.ToolArguments == "" {
				args, err := json.Marshal(p.Args)
				if err == nil {
					ex.ToolArguments = string(args)
				}
			}
		case genai.Text:
			text = append(text, string(p))
		}
	}
	ex.Content = strings.Join(text, "")
	return ex, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// splitContents joins system messages into one instruction and maps the
// rest to Gemini roles.
func splitContents(msgs []Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			contents = append(contents, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			contents = append(contents, genai.NewUserContent(genai.Text(m.Content)))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

// geminiSchema converts a JSON Schema map into the subset Gemini accepts.
func geminiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "string":
		s.Type = genai.TypeString
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for k, v := range props {
			if sub, ok := v.(map[string]any); ok {
				s.Properties[k] = geminiSchema(sub)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	switch req := m["required"].(type) {
	case []string:
		s.Required = append(s.Required, req...)
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}
