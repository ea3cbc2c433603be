package pipeline

import (
	"context"
	"log/slog"

	"github.com/jonathan/story-builder/internal/prompts"
	"github.com/jonathan/story-builder/internal/types"
)

// TemplateSource looks up stored prompt versions. Both methods return
// nil, nil when nothing is stored.
type TemplateSource interface {
	ActivePromptVersion(ctx context.Context) (*types.PromptVersion, error)
	LatestPromptVersion(ctx context.Context) (*types.PromptVersion, error)
}

// ResolveTemplate picks the prompt template for a request: the active
// version, else the most recently created one, else the built-in default.
// Store errors are logged and treated as no version found.
func ResolveTemplate(ctx context.Context, src TemplateSource, logger *slog.Logger) (template, version string) {
	if logger == nil {
		logger = slog.Default()
	}
	if src != nil {
		lookups := []struct {
			name string
			get  func(context.Context) (*types.PromptVersion, error)
		}{
			{"active", src.ActivePromptVersion},
			{"latest", src.LatestPromptVersion},
		}
		for _, l := range lookups {
			pv, err := l.get(ctx)
			if err != nil {
				logger.Warn("prompt version lookup failed", "lookup", l.name, "error", err)
				continue
			}
			if pv != nil && pv.Template != "" {
				return pv.Template, pv.Name
			}
		}
	}
	return prompts.Story(prompts.KeyDefaultInstruction), DefaultPromptVersion
}
