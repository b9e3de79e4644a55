package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tycoon_ledger/internal/auth"
	"tycoon_ledger/internal/domain"
)

// IdentityKey is the gin context key holding the authenticated address.
const IdentityKey = "address"

// JWT requires a valid bearer token. The token's address becomes the call's
// signer, so ledger operations see it as having authorized the request.
func JWT(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		addr, err := issuer.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(IdentityKey, addr)
		c.Request = c.Request.WithContext(auth.WithSigners(c.Request.Context(), addr))
		c.Next()
	}
}

// Identity returns the address set by JWT.
func Identity(c *gin.Context) (domain.Address, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return "", false
	}
	addr, ok := v.(domain.Address)
	return addr, ok && !addr.IsZero()
}
