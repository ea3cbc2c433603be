package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Tiers.
const (
	TierGeneration = "generation"
	TierWrite      = "write"
	TierDefault    = "default"
	TierUnlimited  = "unlimited"
)

// EndpointConfig is the limit for one method and path. A Path ending in
// "/" matches every path under it.
type EndpointConfig struct {
	Tier   string
	Path   string
	Method string
	Limit  int
	Window time.Duration
	// Burst is the bucket capacity; 0 means Limit.
	Burst int
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the built-in limits.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig reads RATE_LIMIT_* overrides from the environment.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom reads RATE_LIMIT_* overrides through getenv.
func LoadConfigFrom(getenv func(string) string) *Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool(getenv, "RATE_LIMIT_ENABLED", cfg.Enabled)
	cfg.DefaultLimit = envInt(getenv, "RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration(getenv, "RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = envDuration(getenv, "RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(getenv("RATE_LIMIT_BLACKLIST"))

	generation := envInt(getenv, "RATE_LIMIT_GENERATION_PER_HOUR", 0)
	if generation > 0 {
		for i := range cfg.EndpointConfigs {
			if cfg.EndpointConfigs[i].Tier == TierGeneration {
				cfg.EndpointConfigs[i].Limit = generation
			}
		}
	}
	return cfg
}

// DefaultEndpointConfigs returns the per-endpoint tiers. Story generation
// calls paid models and is the strictest tier.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Tier: TierGeneration, Path: "/sb-run", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Tier: TierGeneration, Path: "/sb-run/stream", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		{Tier: TierWrite, Path: "/prompt-versions", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Tier: TierWrite, Path: "/prompt-versions/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func envInt(getenv func(string) string, key string, def int) int {
	if v, err := strconv.Atoi(getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(getenv func(string) string, key string, def bool) bool {
	if v, err := strconv.ParseBool(getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getenv(key)); err == nil {
		return v
	}
	return def
}

func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
