package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/tradejournal/pkg/config"
	"github.com/wonny/tradejournal/pkg/redis"
)

// Limiter decides whether a client may proceed
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
}

// NewLimiter picks the shared Redis limiter when Redis is enabled, else a per-process one
func NewLimiter(cfg config.RateLimitConfig, rc *redis.Client) Limiter {
	if rc != nil && rc.Enabled() {
		return &redisLimiter{
			limiter: redis.NewRateLimiter(rc, "tradejournal"),
			limit:   cfg.Burst,
			window:  cfg.Window,
		}
	}
	return newLocalLimiter(rate.Limit(cfg.RPS), cfg.Burst)
}

// redisLimiter applies one sliding window across every API instance
type redisLimiter struct {
	limiter *redis.RateLimiter
	limit   int
	window  time.Duration
}

func (l *redisLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.APIRateLimit(clientKey, l.limit, l.window))
	return allowed, err
}

// localLimiter keeps a token bucket per client
type localLimiter struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*localClient
	lastSweep time.Time
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const localClientIdle = 10 * time.Minute

func newLocalLimiter(rps rate.Limit, burst int) *localLimiter {
	return &localLimiter{
		rps:       rps,
		burst:     burst,
		clients:   make(map[string]*localClient),
		lastSweep: time.Now(),
	}
}

func (l *localLimiter) Allow(_ context.Context, clientKey string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > localClientIdle {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > localClientIdle {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[clientKey]
	if !ok {
		c = &localClient{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[clientKey] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1), nil
}

// clientKey is the first X-Forwarded-For hop, else the remote IP
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
