package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Router sends "google:" models to Gemini when a Gemini client is configured
// and everything else to the gateway.
type Router struct {
	gateway Client
	gemini  Client
}

// NewRouter creates a router. gemini may be nil.
func NewRouter(gateway, gemini Client) *Router {
	return &Router{gateway: gateway, gemini: gemini}
}

// NewClient builds the transport described by cfg.
func NewClient(ctx context.Context, cfg *Config, logger *slog.Logger) (*Router, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	gateway := NewGatewayClient(cfg.GatewayURL, cfg.GatewayAPIKey, WithGatewayLogger(logger))

	var gemini Client
	if cfg.GeminiAPIKey != "" {
		gc, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			return nil, err
		}
		gemini = gc
	}
	return NewRouter(gateway, gemini), nil
}

// Complete dispatches req by its model id.
func (r *Router) Complete(ctx context.Context, req Request) (*Exchange, error) {
	return r.route(req.Model).Complete(ctx, req)
}

func (r *Router) route(model string) Client {
	if r.gemini != nil && strings.HasPrefix(model, "google:") {
		return r.gemini
	}
	return r.gateway
}

// Close closes both transports.
func (r *Router) Close() error {
	var errs []error
	if r.gateway != nil {
		errs = append(errs, r.gateway.Close())
	}
	if r.gemini != nil {
		errs = append(errs, r.gemini.Close())
	}
	return errors.Join(errs...)
}
