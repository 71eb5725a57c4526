package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fableforge/fable-engine/internal/store"
	"github.com/fableforge/fable-engine/pkg/api"
)

// ContextTierKey is the gin context key carrying the caller's resolved tier.
const ContextTierKey = "tier"

// Auth checks for a valid Bearer token in the Authorization header and
// resolves it to a subscription tier. keys maps credential to tier name.
// An empty map disables auth entirely and every caller gets the zero tier.
func Auth(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Set(ContextTierKey, "")
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.UnauthorizedError("Missing Authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.UnauthorizedError("Invalid Authorization header format"))
			return
		}

		tier, ok := keys[parts[1]]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.UnauthorizedError("Invalid API Key"))
			return
		}

		c.Set(ContextTierKey, tier)

		ctx := context.WithValue(c.Request.Context(), store.ContextKeyTier, tier)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Tier reads the tier the auth middleware resolved for this request.
func Tier(c *gin.Context) string {
	return c.GetString(ContextTierKey)
}

// RequireTier guards an endpoint behind a specific tier. When auth is
// disabled the resolved tier is empty and the guard stands down.
func RequireTier(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tier := Tier(c)
		if tier != "" && tier != required {
			c.AbortWithStatusJSON(http.StatusForbidden,
				api.ForbiddenError("this operation requires the '"+required+"' tier"))
			return
		}
		c.Next()
	}
}
