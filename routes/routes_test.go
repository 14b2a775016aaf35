package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tecnicosrd/handlers"
	"tecnicosrd/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type rejectAll struct{}

func (rejectAll) Authenticate(context.Context, string) (*utils.TokenClaims, error) {
	return nil, errors.New("invalid token")
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.SetLogger(zap.NewNop())
	r := gin.New()
	RegisterRoutes(r, &handlers.HandlerBundle{
		Auth:          &handlers.AuthHandler{},
		Users:         &handlers.UserHandler{},
		Technicians:   &handlers.TechnicianHandler{},
		Bookings:      &handlers.BookingHandler{},
		Gamification:  &handlers.GamificationHandler{},
		Admin:         &handlers.AdminHandler{},
		Authenticator: rejectAll{},
		AdminToken:    "static-admin",
	}, 600)
	return r
}

func TestRoutesRegistered(t *testing.T) {
	registered := map[string]bool{}
	for _, ri := range newEngine().Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}

	for _, want := range []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
		"POST /api/auth/logout",
		"GET /api/users/me",
		"PUT /api/users/me/password",
		"GET /api/technicians",
		"POST /api/technicians",
		"PUT /api/technicians/:id/availability",
		"GET /api/technicians/:id/slots",
		"POST /api/technicians/:id/image",
		"GET /api/specializations",
		"POST /api/booking/session",
		"PUT /api/booking/session/:id/technician",
		"PUT /api/booking/session/:id/slot",
		"POST /api/booking/session/:id/confirm",
		"DELETE /api/booking/session/:id",
		"GET /api/bookings",
		"POST /api/bookings/:id/start",
		"POST /api/bookings/:id/review",
		"GET /api/gamification/leaderboard",
		"POST /api/gamification/rewards/:id/redeem",
		"GET /api/admin/stats",
		"PUT /api/admin/technicians/:id/verify",
		"PUT /api/admin/rewards/:id",
		"GET /health",
		"GET /metrics",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newEngine()

	for _, path := range []string{"/api/users/me", "/api/bookings", "/api/gamification/me", "/api/admin/stats"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestHealthReportsUnprobedDependencies(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
