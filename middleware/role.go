package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole lets through callers whose role is one of roles. It runs after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[c.GetString(CtxRole)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Your role cannot access this resource", "code": 0})
			return
		}
		c.Next()
	}
}
