package handlers

import (
	"net/http"

	"tecnicosrd/middleware"
	"tecnicosrd/models"
	"tecnicosrd/services/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves registration and sessions.
type AuthHandler struct {
	Users user.UserService
}

func NewAuthHandler(users user.UserService) *AuthHandler {
	return &AuthHandler{Users: users}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.UserRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("user registered", zap.String("userID", u.ID), zap.String("role", u.Role))
	c.JSON(http.StatusCreated, u.Safe())
}

// Login handles POST /api/auth/login. The device defaults to the X-Device-ID header.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = c.GetHeader("X-Device-ID")
	}

	resp, err := h.Users.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout for the current device.
func (h *AuthHandler) Logout(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if err := h.Users.Logout(c.Request.Context(), actor.UserID, c.GetString(middleware.CtxDeviceID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
