package handlers

import (
	"net/http"
	"time"

	"tecnicosrd/models"
	"tecnicosrd/services/admin"
	"tecnicosrd/services/gamification"
	"tecnicosrd/services/technician"
	"tecnicosrd/services/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	Stats        admin.AdminService
	Users        user.UserService
	Technicians  technician.TechnicianService
	Gamification gamification.GamificationService
	Location     *time.Location
}

func NewAdminHandler(stats admin.AdminService, users user.UserService, techs technician.TechnicianService, game gamification.GamificationService, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{Stats: stats, Users: users, Technicians: techs, Gamification: game, Location: loc}
}

// Dashboard handles GET /api/admin/stats?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	from, err := h.parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD", "code": http.StatusBadRequest})
		return
	}
	to, err := h.parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD", "code": http.StatusBadRequest})
		return
	}

	stats, err := h.Stats.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", raw, h.Location)
}

// ListUsers handles GET /api/admin/users?role=&page=&limit=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := pageFrom(c)
	users, total, err := h.Users.List(c.Request.Context(), models.UserListFilter{
		Role:  c.Query("role"),
		Page:  page.Page,
		Limit: page.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	safe := make([]models.User, 0, len(users))
	for _, u := range users {
		safe = append(safe, u.Safe())
	}
	listResponse(c, safe, total, page)
}

// VerifyTechnician handles PUT /api/admin/technicians/:id/verify with {"approve": bool}.
func (h *AdminHandler) VerifyTechnician(c *gin.Context) {
	var req struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.Technicians.Verify(c.Request.Context(), c.Param("id"), *req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("technician verification updated",
		zap.String("technicianID", t.ID), zap.String("status", t.VerificationStatus))
	c.JSON(http.StatusOK, t)
}

// CreateReward handles POST /api/admin/rewards.
func (h *AdminHandler) CreateReward(c *gin.Context) {
	var req models.RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.Gamification.CreateReward(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// UpdateReward handles PUT /api/admin/rewards/:id.
func (h *AdminHandler) UpdateReward(c *gin.Context) {
	var req models.RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.Gamification.UpdateReward(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
