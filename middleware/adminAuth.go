package middleware

import (
	"crypto/subtle"
	"net/http"

	"tecnicosrd/models"

	"github.com/gin-gonic/gin"
)

// AdminTokenSubject is the user ID recorded for requests made with the static admin token.
const AdminTokenSubject = "admin-token"

// AdminAuthMiddleware accepts the static admin token or a session of an admin account.
func AdminAuthMiddleware(auth Authenticator, staticToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		if staticToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(staticToken)) == 1 {
			c.Set(CtxUserID, AdminTokenSubject)
			c.Set(CtxRole, models.RoleAdmin)
			c.Set("isAdmin", true)
			c.Next()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}
		if claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxDeviceID, claims.DeviceID)
		c.Set("isAdmin", true)
		c.Next()
	}
}
