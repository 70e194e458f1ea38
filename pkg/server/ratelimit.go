package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/koztechie/svitlogics/pkg/metrics"
)

// Limiter gates admission per client identifier over a fixed window.
type Limiter interface {
	// Allow reports whether the client may proceed, and how long until the
	// current window resets when it may not.
	Allow(ctx context.Context, clientID string) (bool, time.Duration, error)
}

// RedisLimiter counts requests per client in redis, shared across API
// replicas. Counting is INCR on a window-stamped key with an expiry one
// window past its end.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedisLimiter creates a redis-backed limiter.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (bool, time.Duration, error) {
	now := time.Now()
	windowStart := now.Truncate(l.window)
	key := fmt.Sprintf("svitlogics:rate_limit:%s:%d", clientID, windowStart.Unix())

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit counter: %w", err)
	}
	if count == 1 {
		// Without the expiry the window-stamped key would live forever.
		if err := l.client.PExpire(ctx, key, l.window+time.Second).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expiry: %w", err)
		}
	}
	if count > int64(l.max) {
		return false, windowStart.Add(l.window).Sub(now), nil
	}
	return true, 0, nil
}

// MemoryLimiter is a process-local fixed-window limiter for runs without
// redis.
type MemoryLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	start  time.Time
	max    int
	window time.Duration
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counts: make(map[string]int),
		start:  time.Now(),
		max:    max,
		window: window,
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, clientID string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.start) >= l.window {
		l.counts = make(map[string]int)
		l.start = now
	}
	l.counts[clientID]++
	if l.counts[clientID] > l.max {
		return false, l.start.Add(l.window).Sub(now), nil
	}
	return true, 0, nil
}

// rateLimited wraps a handler with the configured limiter. A limiter
// backend failure admits the request: throttling is protection, not an
// availability dependency.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r, s.trustProxyHeader)
		if ip == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed, retryAfter, err := s.limiter.Allow(r.Context(), ip)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.RateLimitRejections.Inc()
			secs := int(retryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP identifies the caller for rate limiting. X-Forwarded-For is
// honored only when the deployment declares a trusted reverse proxy in
// front; otherwise any client could rotate the header to dodge the limit.
func clientIP(r *http.Request, trustProxyHeader bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" && trustProxyHeader {
		// First hop is the client.
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
