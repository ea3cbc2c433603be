// Package config provides configuration loading and validation for the
// story builder CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/pipeline"
	"github.com/jonathan/story-builder/internal/scoring"
	"github.com/jonathan/story-builder/internal/types"
)

// Environment variable names.
const (
	EnvGatewayAPIKey        = llm.GatewayKeyEnv
	EnvGatewayURL           = "LLM_GATEWAY_URL"
	EnvGeminiAPIKey         = "GEMINI_API_KEY"
	EnvDatabaseURL          = "DATABASE_URL"
	EnvDefaultSingleModel   = "DEFAULT_SINGLE_MODEL"
	EnvDefaultCompareModels = "DEFAULT_COMPARE_MODELS"
	EnvUnavailableModels    = "UNAVAILABLE_MODELS"
	EnvFallbackModel        = "FALLBACK_MODEL"
	EnvMaxParallelRuns      = "MAX_PARALLEL_RUNS"
	EnvTestabilityRulesFile = "TESTABILITY_RULES_FILE"
	EnvLogFile              = "LOG_FILE"
	EnvLogLevel             = "LOG_LEVEL"
	EnvPort                 = "PORT"
)

// DefaultPort is the HTTP port used when none is configured.
const DefaultPort = 8080

// maxParallelLimit bounds MaxParallelRuns.
const maxParallelLimit = 32

// Config is the process configuration. It can be loaded from a JSON file;
// environment variables override file values.
type Config struct {
	// LLM transport
	GatewayAPIKey string `json:"llm_gateway_api_key,omitempty"`
	GatewayURL    string `json:"llm_gateway_url,omitempty"`
	GeminiAPIKey  string `json:"gemini_api_key,omitempty"`

	// Persistence
	DatabaseURL string `json:"database_url,omitempty"`

	// Model selection
	DefaultSingleModel   string   `json:"default_single_model,omitempty"`
	DefaultCompareModels []string `json:"default_compare_models,omitempty"`
	UnavailableModels    []string `json:"unavailable_models,omitempty"`
	FallbackModel        string   `json:"fallback_model,omitempty"`
	MaxParallelRuns      int      `json:"max_parallel_runs,omitempty"`

	// Scoring
	TestabilityRulesFile string `json:"testability_rules_file,omitempty"`

	// Logging and serving
	LogFile  string `json:"log_file,omitempty"`
	LogLevel string `json:"log_level,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GatewayURL:           llm.DefaultGatewayURL,
		DefaultSingleModel:   pipeline.DefaultSingleModel,
		DefaultCompareModels: pipeline.DefaultCompareModels(),
		MaxParallelRuns:      pipeline.DefaultMaxParallelRuns,
		LogLevel:             "info",
		Port:                 DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the configuration from defaults, the optional JSON file at
// path and the process environment, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = file.MergeWithDefaults(*cfg)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeWithDefaults returns a new Config with zero fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) *Config {
	result := *c

	setString(&result.GatewayAPIKey, defaults.GatewayAPIKey)
	setString(&result.GatewayURL, defaults.GatewayURL)
	setString(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	setString(&result.DatabaseURL, defaults.DatabaseURL)
	setString(&result.DefaultSingleModel, defaults.DefaultSingleModel)
	setString(&result.FallbackModel, defaults.FallbackModel)
	setString(&result.TestabilityRulesFile, defaults.TestabilityRulesFile)
	setString(&result.LogFile, defaults.LogFile)
	setString(&result.LogLevel, defaults.LogLevel)

	if len(result.DefaultCompareModels) == 0 {
		result.DefaultCompareModels = defaults.DefaultCompareModels
	}
	if len(result.UnavailableModels) == 0 {
		result.UnavailableModels = defaults.UnavailableModels
	}
	if result.MaxParallelRuns == 0 {
		result.MaxParallelRuns = defaults.MaxParallelRuns
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return &result
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// ApplyEnv overrides fields with the non-empty environment variables
// returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	overrideString(&c.GatewayAPIKey, getenv(EnvGatewayAPIKey))
	overrideString(&c.GatewayURL, getenv(EnvGatewayURL))
	overrideString(&c.GeminiAPIKey, getenv(EnvGeminiAPIKey))
	overrideString(&c.DatabaseURL, getenv(EnvDatabaseURL))
	overrideString(&c.DefaultSingleModel, getenv(EnvDefaultSingleModel))
	overrideString(&c.FallbackModel, getenv(EnvFallbackModel))
	overrideString(&c.TestabilityRulesFile, getenv(EnvTestabilityRulesFile))
	overrideString(&c.LogFile, getenv(EnvLogFile))
	overrideString(&c.LogLevel, getenv(EnvLogLevel))

	if v := getenv(EnvDefaultCompareModels); v != "" {
		c.DefaultCompareModels = splitList(v)
	}
	if v := getenv(EnvUnavailableModels); v != "" {
		c.UnavailableModels = splitList(v)
	}
	if v := getenv(EnvMaxParallelRuns); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config error: %s must be an integer: %w", EnvMaxParallelRuns, err)
		}
		c.MaxParallelRuns = n
	}
	if v := getenv(EnvPort); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config error: %s must be an integer: %w", EnvPort, err)
		}
		c.Port = n
	}
	return nil
}

func overrideString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the configuration has valid values. Missing API
// keys are not errors: runs without a key fail individually.
func (c *Config) Validate() error {
	if !types.IsModelID(c.DefaultSingleModel) {
		return fmt.Errorf("config error: 'default_single_model' is not a provider:model id: %q", c.DefaultSingleModel)
	}
	if len(c.DefaultCompareModels) == 0 {
		return fmt.Errorf("config error: 'default_compare_models' must not be empty")
	}
	for _, m := range c.DefaultCompareModels {
		if !types.IsModelID(m) {
			return fmt.Errorf("config error: 'default_compare_models' entry is not a provider:model id: %q", m)
		}
	}
	for _, m := range c.UnavailableModels {
		if !types.IsModelID(m) {
			return fmt.Errorf("config error: 'unavailable_models' entry is not a provider:model id: %q", m)
		}
	}
	if c.FallbackModel != "" && !types.IsModelID(c.FallbackModel) {
		return fmt.Errorf("config error: 'fallback_model' is not a provider:model id: %q", c.FallbackModel)
	}
	if len(c.UnavailableModels) > 0 && c.FallbackModel == "" {
		return fmt.Errorf("config error: 'unavailable_models' requires 'fallback_model'")
	}
	if c.MaxParallelRuns < 1 || c.MaxParallelRuns > maxParallelLimit {
		return fmt.Errorf("config error: 'max_parallel_runs' must be between 1 and %d", maxParallelLimit)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.TestabilityRulesFile != "" {
		if _, err := os.Stat(c.TestabilityRulesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: testability rules file not found: %s", c.TestabilityRulesFile)
		}
	}
	return nil
}

// ParseLogLevel maps debug, info, warn or error to a slog level. Empty
// means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config error: unknown log level %q", s)
	}
}

// LLM returns the transport configuration.
func (c *Config) LLM() *llm.Config {
	return &llm.Config{
		GatewayURL:    c.GatewayURL,
		GatewayAPIKey: c.GatewayAPIKey,
		GeminiAPIKey:  c.GeminiAPIKey,
	}
}

// Pipeline returns the orchestrator configuration.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		DefaultSingleModel:   c.DefaultSingleModel,
		DefaultCompareModels: append([]string(nil), c.DefaultCompareModels...),
		UnavailableModels:    append([]string(nil), c.UnavailableModels...),
		FallbackModel:        c.FallbackModel,
		MaxParallelRuns:      c.MaxParallelRuns,
	}
}

// Scorer builds the scorer, loading the testability rules file when set.
func (c *Config) Scorer() (*scoring.Scorer, error) {
	if c.TestabilityRulesFile == "" {
		return scoring.NewScorer(), nil
	}
	rs, err := scoring.LoadRuleSet(c.TestabilityRulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load testability rules: %w", err)
	}
	return scoring.NewScorer(scoring.WithRuleSet(rs)), nil
}
