package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/logging"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter keeps counters in Redis so limits hold across replicas.
type RedisCounter struct {
	client *redis.Client
}

var _ Counter = (*RedisCounter)(nil)

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Limiter applies a fixed-window request budget per client address.
type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewLimiter allows limit requests per window. A non-positive limit disables
// limiting.
func NewLimiter(counter Counter, limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
		now:     time.Now,
		logger:  logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow reports whether the client may proceed and how many requests remain.
// Counter failures let the request through.
func (l *Limiter) Allow(ctx context.Context, client string) (bool, int) {
	if l.limit <= 0 {
		return true, 0
	}

	windowStart := l.now().Truncate(l.window).Unix()
	key := "ratelimit:" + client + ":" + strconv.FormatInt(windowStart, 10)

	n, err := l.counter.Incr(ctx, key, l.window)
	if err != nil {
		logger, ok := logging.Lookup(ctx)
		if !ok {
			logger = l.logger
		}
		logger.Warn().Err(err).Str("client", client).Msg("rate limit counter unavailable")
		return true, l.limit
	}

	remaining := l.limit - int(n)
	if remaining < 0 {
		return false, 0
	}
	return true, remaining
}

// Middleware rejects clients over budget with a 429 envelope.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.limit <= 0 || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining := l.Allow(r.Context(), clientAddr(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			httperrors.RespondError(w, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
