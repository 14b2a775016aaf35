package handlers

import (
	"net/http"

	"tecnicosrd/middleware"
	"tecnicosrd/models"
	"tecnicosrd/services/user"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Users user.UserService
}

func NewUserHandler(users user.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

// GetMe handles GET /api/users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	u, err := h.Users.GetByID(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Safe())
}

// UpdateMe handles PUT /api/users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Users.Update(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Safe())
}

// ChangePassword handles PUT /api/users/me/password and signs out the other devices.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.Users.ChangePassword(c.Request.Context(),
		c.GetString(middleware.CtxUserID), req.CurrentPassword, req.NewPassword, c.GetString(middleware.CtxDeviceID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// DeleteMe handles DELETE /api/users/me.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), c.GetString(middleware.CtxUserID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
