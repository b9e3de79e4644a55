package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	redis "github.com/redis/go-redis/v9"

	"tycoon_ledger/internal/logger"
)

const redisTimeout = 500 * time.Millisecond

// RateLimiter implements fixed-window limits with Redis INCR/EXPIRE, or with
// an in-process counter when no Redis client is configured. Redis failures
// let the request through.
type RateLimiter struct {
	client *redis.Client
	local  *windowCounter
}

// NewRateLimiter returns a limiter backed by client, or by process memory
// when client is nil.
func NewRateLimiter(client *redis.Client, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		client: client,
		local:  newWindowCounter(clock),
	}
}

func (l *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if l.client == nil {
		return l.local.incr(key, window), nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		// first increment, set expiry
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			logger.Warn("rate limit expire failed", "key", key, "error", err)
		}
	}
	return val, nil
}

// PerIP limits every client IP to maxRequests per window.
// key format: rl:<window_seconds>:<ip>
func (l *RateLimiter) PerIP(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		l.enforce(c, key, c.FullPath(), maxRequests, window, "X-RateLimit")
	}
}

func (l *RateLimiter) enforce(c *gin.Context, key, endpoint string, maxRequests int, window time.Duration, headerPrefix string) {
	val, err := l.hit(c.Request.Context(), key, window)
	if err != nil {
		RLErrors.WithLabelValues(endpoint).Inc()
		c.Header(headerPrefix+"-Error", "redis-error")
		c.Next()
		return
	}

	c.Header(headerPrefix+"-Limit", strconv.Itoa(maxRequests))
	c.Header(headerPrefix+"-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": int(window.Seconds()),
		})
		return
	}

	RLRequests.WithLabelValues(endpoint).Inc()
	c.Next()
}
