package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// PerIdentity limits state-changing calls per authenticated address rather
// than per IP. JWT must run first.
func (l *RateLimiter) PerIdentity(maxWrites int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, ok := Identity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		key := "write_rl:" + addr.String() + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		l.enforce(c, key, "write:"+c.FullPath(), maxWrites, window, "X-WriteRateLimit")
	}
}
