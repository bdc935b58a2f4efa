package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradejournal/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := APIRateLimit("127.0.0.1", 20, time.Second)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), HolidaySourceRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))

	n, err := cache.DeletePattern(ctx, "report:*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_GetOrSet_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	var got map[string]int
	err := cache.GetOrSet(context.Background(), "k", &got, TTLMedium, func() (interface{}, error) {
		calls++
		return map[string]int{"trades": 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, got["trades"])
}

func TestPubSub_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.NoError(t, client.Publish(context.Background(), EventsChannel, map[string]string{"type": "x"}))

	_, ok := <-client.Subscribe(context.Background(), EventsChannel)
	assert.False(t, ok, "subscription channel should be closed")
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "ReportKey",
			fn:       func() string { return ReportKey("u1", "2026-03-02", "abcdef0123456789") },
			expected: "report:u1:2026-03-02:abcdef012345",
		},
		{
			name:     "ReportKey short hash",
			fn:       func() string { return ReportKey("u1", "2026-03-02", "abc") },
			expected: "report:u1:2026-03-02:abc",
		},
		{
			name:     "UserReportPattern",
			fn:       func() string { return UserReportPattern("u1") },
			expected: "report:u1:*",
		},
		{
			name:     "HolidaysKey",
			fn:       func() string { return HolidaysKey("US", 2026) },
			expected: "holidays:US:2026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fn())
		})
	}
}

func TestIsStaleReportKey(t *testing.T) {
	current := "0123456789abcdef"
	fresh := "tj:cache:" + ReportKey("u1", "latest@0/1", current)
	stale := "tj:cache:" + ReportKey("u1", "latest@0/1", "ffffffffffffffff")

	assert.False(t, IsStaleReportKey(fresh, current))
	assert.True(t, IsStaleReportKey(stale, current))
}

func TestCache_DeleteStaleReports_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "tj")

	n, err := cache.DeleteStaleReports(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
