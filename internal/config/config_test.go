package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/story-builder/internal/llm"
	"github.com/jonathan/story-builder/internal/pipeline"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, llm.DefaultGatewayURL, cfg.GatewayURL)
	assert.Equal(t, "openai:gpt-5-nano", cfg.DefaultSingleModel)
	assert.Equal(t, []string{"openai:gpt-5-nano", "google:gemini-2.5-flash-lite"}, cfg.DefaultCompareModels)
	assert.Equal(t, 4, cfg.MaxParallelRuns)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"database_url": "postgres://localhost/story",
		"default_single_model": "google:gemini-2.5-flash",
		"max_parallel_runs": 2
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/story", cfg.DatabaseURL)
	assert.Equal(t, "google:gemini-2.5-flash", cfg.DefaultSingleModel)
	assert.Equal(t, 2, cfg.MaxParallelRuns)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "config path is empty")

	_, err = LoadConfig("/nonexistent/path/config.json")
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeFile(t, "bad.json", `{ invalid json }`))
	assert.ErrorContains(t, err, "failed to parse config JSON")
}

func TestMergeWithDefaults(t *testing.T) {
	file := &Config{DefaultSingleModel: "google:gemini-2.5-flash"}
	merged := file.MergeWithDefaults(*Default())

	assert.Equal(t, "google:gemini-2.5-flash", merged.DefaultSingleModel)
	assert.Equal(t, llm.DefaultGatewayURL, merged.GatewayURL)
	assert.Equal(t, pipeline.DefaultCompareModels(), merged.DefaultCompareModels)
	assert.Equal(t, 4, merged.MaxParallelRuns)
	assert.Empty(t, file.GatewayURL, "receiver is not modified")
}

func TestApplyEnv_WinsOverFile(t *testing.T) {
	cfg := (&Config{DatabaseURL: "postgres://file", MaxParallelRuns: 2}).MergeWithDefaults(*Default())

	err := cfg.ApplyEnv(envFrom(map[string]string{
		EnvDatabaseURL:          "postgres://env",
		EnvGatewayAPIKey:        " sk-test ",
		EnvDefaultCompareModels: "openai:gpt-5, ,anthropic:claude",
		EnvUnavailableModels:    "openai:gpt-5",
		EnvFallbackModel:        "openai:gpt-5-nano",
		EnvMaxParallelRuns:      "8",
		EnvLogLevel:             "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "sk-test", cfg.GatewayAPIKey)
	assert.Equal(t, []string{"openai:gpt-5", "anthropic:claude"}, cfg.DefaultCompareModels)
	assert.Equal(t, []string{"openai:gpt-5"}, cfg.UnavailableModels)
	assert.Equal(t, 8, cfg.MaxParallelRuns)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadInteger(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envFrom(map[string]string{EnvMaxParallelRuns: "many"}))
	assert.ErrorContains(t, err, EnvMaxParallelRuns)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.json", `{"fallback_model": "openai:gpt-5-nano", "port": 9090}`)
	t.Setenv(EnvPort, "")
	t.Setenv(EnvFallbackModel, "google:gemini-2.5-flash-lite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "google:gemini-2.5-flash-lite", cfg.FallbackModel)
	assert.Equal(t, 9090, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default ok", func(*Config) {}, ""},
		{"bad single model", func(c *Config) { c.DefaultSingleModel = "gpt-5" }, "default_single_model"},
		{"empty compare", func(c *Config) { c.DefaultCompareModels = nil }, "must not be empty"},
		{"bad compare entry", func(c *Config) { c.DefaultCompareModels = []string{"x"} }, "default_compare_models"},
		{"unavailable without fallback", func(c *Config) { c.UnavailableModels = []string{"openai:gpt-5"} }, "requires 'fallback_model'"},
		{"bad fallback", func(c *Config) { c.FallbackModel = "nano" }, "fallback_model"},
		{"parallel zero", func(c *Config) { c.MaxParallelRuns = 0 }, "max_parallel_runs"},
		{"parallel too big", func(c *Config) { c.MaxParallelRuns = 100 }, "max_parallel_runs"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"missing rules file", func(c *Config) { c.TestabilityRulesFile = "/nonexistent/rules.yaml" }, "rules file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.GatewayAPIKey = "sk"
	cfg.GeminiAPIKey = "g"
	cfg.UnavailableModels = []string{"openai:gpt-5"}
	cfg.FallbackModel = "openai:gpt-5-nano"

	lc := cfg.LLM()
	assert.Equal(t, "sk", lc.GatewayAPIKey)
	assert.Equal(t, "g", lc.GeminiAPIKey)

	pc := cfg.Pipeline()
	model, fallback := pc.EffectiveModel("openai:gpt-5")
	assert.True(t, fallback)
	assert.Equal(t, "openai:gpt-5-nano", model)

	pc.DefaultCompareModels[0] = "changed:model"
	assert.NotEqual(t, "changed:model", cfg.DefaultCompareModels[0])
}

func TestScorer(t *testing.T) {
	cfg := Default()
	s, err := cfg.Scorer()
	require.NoError(t, err)
	assert.Equal(t, "2026-01-07a", s.RuleSetVersion())

	cfg.TestabilityRulesFile = writeFile(t, "rules.yaml", `
version: team-1
extends: default
rules:
  - name: givenWhenThen
    pattern: "(?i)^given .* when .* then "
`)
	s, err = cfg.Scorer()
	require.NoError(t, err)
	assert.Equal(t, "team-1", s.RuleSetVersion())

	cfg.TestabilityRulesFile = writeFile(t, "broken.yaml", "rules: [")
	_, err = cfg.Scorer()
	assert.ErrorContains(t, err, "failed to load testability rules")
}
