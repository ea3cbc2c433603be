package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// GatewayClient talks to an OpenAI-compatible chat completions gateway.
// Requests are never retried.
type GatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// GatewayOption configures a GatewayClient.
type GatewayOption func(*GatewayClient)

// WithHTTPClient sets the HTTP client used for gateway calls.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *GatewayClient) {
		g.httpClient = c
	}
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *GatewayClient) {
		g.logger = l
	}
}

// NewGatewayClient creates a gateway client. An empty apiKey is accepted;
// calls then fail with a KindConfig error after the payload is built.
func NewGatewayClient(baseURL, apiKey string, opts ...GatewayOption) *GatewayClient {
	if baseURL == "" {
		baseURL = DefaultGatewayURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	g := &GatewayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete sends req to the gateway.
func (g *GatewayClient) Complete(ctx context.Context, req Request) (*Exchange, error) {
	params := gatewayParams(req)
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "failed to encode request", Cause: err}
	}
	ex := &Exchange{Provider: ProviderGateway, Payload: payload}

	if g.apiKey == "" {
		return ex, NewConfigError(GatewayKeyEnv)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(g.apiKey),
		option.WithBaseURL(g.baseURL),
		option.WithMaxRetries(0),
	}
	if g.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(g.httpClient))
	}
	client := openai.NewClient(opts...)

	g.logger.Debug("gateway request", "model", params.Model, "tool", req.Tool != nil, "json_object", req.JSONObject)

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			g.logger.Warn("gateway returned error status", "status", apiErr.StatusCode, "model", params.Model)
			return ex, NewStatusError(apiErr.StatusCode, err)
		}
		return ex, NewTransportError(err)
	}

	if len(resp.Choices) == 0 {
		return ex, nil
	}
	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		ex.ToolArguments = msg.ToolCalls[0].Function.Arguments
	}
	ex.Content = msg.Content
	return ex, nil
}

// Close is a no-op; the gateway client holds no connections of its own.
func (g *GatewayClient) Close() error {
	return nil
}

func gatewayParams(req Request) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(GatewayModelID(req.Model)),
		Messages: msgs,
	}

	if req.Tool != nil {
		params.Tools = []openai.ChatCompletionToolParam{{
			Function: shared.FunctionDefinitionParam{
				Name:        req.Tool.Name,
				Description: openai.String(req.Tool.Description),
				Parameters:  shared.FunctionParameters(req.Tool.Parameters),
			},
		}}
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.Tool.Name},
			},
		}
	}
	if req.JSONObject {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// String implements fmt.Stringer for logging.
func (g *GatewayClient) String() string {
	return fmt.Sprintf("gateway(%s)", g.baseURL)
}
