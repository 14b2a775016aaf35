package handlers

import (
	"net/http"
	"strconv"

	"tecnicosrd/middleware"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"

	"github.com/gin-gonic/gin"
)

type GamificationHandler struct {
	Gamification gamification.GamificationService
}

func NewGamificationHandler(svc gamification.GamificationService) *GamificationHandler {
	return &GamificationHandler{Gamification: svc}
}

// Me handles GET /api/gamification/me.
func (h *GamificationHandler) Me(c *gin.Context) {
	view, err := h.Gamification.Profile(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// History handles GET /api/gamification/me/history.
func (h *GamificationHandler) History(c *gin.Context) {
	page := pageFrom(c)
	txs, total, err := h.Gamification.History(c.Request.Context(), c.GetString(middleware.CtxUserID), page)
	if err != nil {
		respondError(c, err)
		return
	}
	if txs == nil {
		txs = []models.PointTransaction{}
	}
	listResponse(c, txs, total, page)
}

// Leaderboard handles GET /api/gamification/leaderboard?role=&limit=.
func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	role := c.Query("role")
	if role != "" && role != models.RoleCustomer && role != models.RoleTechnician {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be customer or technician", "code": http.StatusBadRequest})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.Gamification.Leaderboard(c.Request.Context(), role, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Rewards handles GET /api/gamification/rewards.
func (h *GamificationHandler) Rewards(c *gin.Context) {
	rewards, err := h.Gamification.Rewards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rewards == nil {
		rewards = []models.Reward{}
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// Redeem handles POST /api/gamification/rewards/:id/redeem.
func (h *GamificationHandler) Redeem(c *gin.Context) {
	redemption, err := h.Gamification.Redeem(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, redemption)
}

// Redemptions handles GET /api/gamification/me/redemptions.
func (h *GamificationHandler) Redemptions(c *gin.Context) {
	items, err := h.Gamification.Redemptions(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.Redemption{}
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": items})
}
