package ratelimit

import (
	"strings"
)

// MatchEndpoint returns the configuration for method and path. Exact paths
// win over prefix entries (paths ending in "/"). GET /health is never
// limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) (EndpointConfig, bool) {
	if path == "/health" && method == "GET" {
		return EndpointConfig{Tier: TierUnlimited}, true
	}

	for _, c := range configs {
		if c.Method == method && c.Path == path {
			return c, true
		}
	}

	var best EndpointConfig
	found := false
	for _, c := range configs {
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if !found || len(c.Path) > len(best.Path) {
			best, found = c, true
		}
	}
	return best, found
}

// key groups requests sharing a bucket: prefix entries share one bucket
// across the paths they cover.
func (c EndpointConfig) key(path string) string {
	if c.Path == "" {
		return path
	}
	return c.Path
}

func (c EndpointConfig) capacity() int {
	if c.Burst > 0 {
		return c.Burst
	}
	return c.Limit
}
