package pipeline

import "github.com/jonathan/story-builder/internal/types"

// Default models.
const (
	DefaultSingleModel     = "openai:gpt-5-nano"
	DefaultMaxParallelRuns = 4
)

// DefaultCompareModels returns the models used by compare runs when none
// are requested.
func DefaultCompareModels() []string {
	return []string{"openai:gpt-5-nano", "google:gemini-2.5-flash-lite"}
}

// Config holds the orchestrator's model selection and concurrency settings.
type Config struct {
	DefaultSingleModel   string
	DefaultCompareModels []string
	// UnavailableModels are replaced by FallbackModel when requested.
	UnavailableModels []string
	FallbackModel     string
	MaxParallelRuns   int
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		DefaultSingleModel:   DefaultSingleModel,
		DefaultCompareModels: DefaultCompareModels(),
		MaxParallelRuns:      DefaultMaxParallelRuns,
	}
}

// normalize fills zero values with defaults.
func (c Config) normalize() Config {
	if c.DefaultSingleModel == "" {
		c.DefaultSingleModel = DefaultSingleModel
	}
	if len(c.DefaultCompareModels) == 0 {
		c.DefaultCompareModels = DefaultCompareModels()
	}
	if c.MaxParallelRuns <= 0 {
		c.MaxParallelRuns = DefaultMaxParallelRuns
	}
	return c
}

// ResolveModels returns the models a request runs against: the explicit
// list when given, otherwise the defaults for the mode.
func (c Config) ResolveModels(mode types.RunMode, requested []string) []string {
	switch {
	case len(requested) > 0:
		return append([]string(nil), requested...)
	case mode == types.RunModeCompare:
		return append([]string(nil), c.DefaultCompareModels...)
	default:
		return []string{c.DefaultSingleModel}
	}
}

// EffectiveModel returns the model actually called for a requested one and
// whether the fallback replaced it.
func (c Config) EffectiveModel(requested string) (string, bool) {
	if c.FallbackModel == "" || c.FallbackModel == requested {
		return requested, false
	}
	for _, m := range c.UnavailableModels {
		if m == requested {
			return c.FallbackModel, true
		}
	}
	return requested, false
}
