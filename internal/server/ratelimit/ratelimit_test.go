package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	clock := &fakeClock{t: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)}
	l.now = clock.Now
	return l, clock
}

func TestBucket_TakeAndRefill(t *testing.T) {
	now := time.Now()
	b := newBucket(3, 1.0, now)

	for i := 0; i < 3; i++ {
		assert.True(t, b.take(now), "request %d", i+1)
	}
	assert.False(t, b.take(now))
	assert.Equal(t, time.Second, b.nextToken())

	assert.True(t, b.take(now.Add(time.Second)))
	assert.False(t, b.take(now.Add(time.Second)))
}

func TestBucket_ResetAt(t *testing.T) {
	now := time.Now()
	b := newBucket(10, 2.0, now)
	assert.Equal(t, now, b.resetAt(now))

	for i := 0; i < 4; i++ {
		b.take(now)
	}
	assert.Equal(t, now.Add(2*time.Second), b.resetAt(now))
}

func TestLimiter_GenerationTier(t *testing.T) {
	l, clock := newTestLimiter(DefaultConfig())
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("10.0.0.1", "/sb-run", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, TierGeneration, info.Tier)
		assert.Equal(t, 30, info.Limit)
	}

	allowed, info := l.Allow("10.0.0.1", "/sb-run", "POST")
	assert.False(t, allowed)
	assert.InDelta(t, float64(2*time.Minute), float64(info.RetryAfter), float64(time.Millisecond))

	// other clients and endpoints are unaffected
	allowed, _ = l.Allow("10.0.0.2", "/sb-run", "POST")
	assert.True(t, allowed)
	allowed, info = l.Allow("10.0.0.1", "/prompt-versions", "GET")
	assert.True(t, allowed)
	assert.Equal(t, TierDefault, info.Tier)

	clock.Advance(3 * time.Minute)
	allowed, _ = l.Allow("10.0.0.1", "/sb-run", "POST")
	assert.True(t, allowed)
}

func TestLimiter_PrefixSharesBucket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndpointConfigs = []EndpointConfig{
		{Tier: TierWrite, Path: "/prompt-versions/", Method: "POST", Limit: 2, Window: time.Minute},
	}
	l, _ := newTestLimiter(cfg)
	defer l.Stop()

	allowed, _ := l.Allow("c", "/prompt-versions/a/activate", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/prompt-versions/b/activate", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/prompt-versions/c/activate", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Lists(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLimit = 1
	cfg.Whitelist = map[string]bool{"127.0.0.1": true}
	cfg.Blacklist = map[string]bool{"192.168.1.1": true}
	l, _ := newTestLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("127.0.0.1", "/x", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("192.168.1.1", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	cfg.DefaultLimit = 1
	l, _ := newTestLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("c", "/sb-run", "POST")
		assert.True(t, allowed)
	}
	assert.Zero(t, l.Size())
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLimit = 1
	l, _ := newTestLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("c", "/health", "GET")
		assert.True(t, allowed)
		assert.Equal(t, TierUnlimited, info.Tier)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(DefaultConfig())
	defer l.Stop()

	l.Allow("a", "/x", "GET")
	clock.Advance(30 * time.Minute)
	l.Allow("b", "/x", "GET")
	require.Equal(t, 2, l.Size())

	clock.Advance(45 * time.Minute)
	l.cleanup()
	assert.Equal(t, 1, l.Size())
}

func TestLimiter_Concurrent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLimit = 50
	cfg.DefaultWindow = time.Hour
	l, _ := newTestLimiter(cfg)
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/x", "GET"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowedCount)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()
	l.Stop()

	allowed, info := l.Allow("c", "/x", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()
	tests := []struct {
		name   string
		path   string
		method string
		want   string
		ok     bool
	}{
		{"exact run", "/sb-run", "POST", TierGeneration, true},
		{"exact stream", "/sb-run/stream", "POST", TierGeneration, true},
		{"prefix activate", "/prompt-versions/123/activate", "POST", TierWrite, true},
		{"get not matched", "/prompt-versions", "GET", "", false},
		{"health", "/health", "GET", TierUnlimited, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchEndpoint(tt.path, tt.method, configs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Tier)
		})
	}
}

func TestLoadConfigFrom(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_ENABLED":             "false",
		"RATE_LIMIT_DEFAULT_LIMIT":       "42",
		"RATE_LIMIT_WHITELIST":           " 1.1.1.1, ,2.2.2.2",
		"RATE_LIMIT_GENERATION_PER_HOUR": "7",
		"RATE_LIMIT_DEFAULT_WINDOW":      "bogus",
	}
	cfg := LoadConfigFrom(func(k string) string { return env[k] })

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"1.1.1.1": true, "2.2.2.2": true}, cfg.Whitelist)
	for _, c := range cfg.EndpointConfigs {
		if c.Tier == TierGeneration {
			assert.Equal(t, 7, c.Limit)
		}
	}
}
