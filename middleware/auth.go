package middleware

import (
	"context"
	"net/http"
	"strings"

	"tecnicosrd/models"
	"tecnicosrd/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID   = "userID"
	CtxRole     = "role"
	CtxDeviceID = "deviceID"
)

// Authenticator validates an access token against the live sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.TokenClaims, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// JWTAuthMiddleware rejects requests without a valid session token.
func JWTAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization", "code": 0})
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.GetLogger().Debug("JWTAuthMiddleware: rejected token", zap.String("ip", getClientIP(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid", "code": 0})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxDeviceID, claims.DeviceID)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller.
func ActorFrom(c *gin.Context) models.Actor {
	return models.Actor{UserID: c.GetString(CtxUserID), Role: c.GetString(CtxRole)}
}
