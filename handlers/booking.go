package handlers

import (
	"net/http"
	"strings"

	"tecnicosrd/middleware"
	"tecnicosrd/models"
	"tecnicosrd/services/booking"
	"tecnicosrd/services/review"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	Bookings booking.BookingService
	Reviews  review.ReviewService
}

func NewBookingHandler(bookings booking.BookingService, reviews review.ReviewService) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Reviews: reviews}
}

// StartSession handles POST /api/booking/session.
func (h *BookingHandler) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Bookings.StartSession(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SelectTechnician handles PUT /api/booking/session/:id/technician.
func (h *BookingHandler) SelectTechnician(c *gin.Context) {
	var req models.SelectTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Bookings.SelectTechnician(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), req.TechnicianID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelectSlot handles PUT /api/booking/session/:id/slot.
func (h *BookingHandler) SelectSlot(c *gin.Context) {
	var req models.SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Bookings.SelectSlot(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmSession handles POST /api/booking/session/:id/confirm.
func (h *BookingHandler) ConfirmSession(c *gin.Context) {
	resp, err := h.Bookings.Confirm(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CancelSession handles DELETE /api/booking/session/:id.
func (h *BookingHandler) CancelSession(c *gin.Context) {
	if err := h.Bookings.CancelSession(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking session cancelled"})
}

// List handles GET /api/bookings. Technicians see their jobs unless ?as=customer.
func (h *BookingHandler) List(c *gin.Context) {
	status := models.BookingStatus(strings.ToUpper(c.Query("status")))
	if status != "" && !validStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown booking status", "code": http.StatusBadRequest})
		return
	}
	page := pageFrom(c)
	actor := middleware.ActorFrom(c)

	var (
		items []models.Booking
		total int64
		err   error
	)
	if actor.Role == models.RoleTechnician && c.Query("as") != models.RoleCustomer {
		items, total, err = h.Bookings.ListForTechnician(c.Request.Context(), actor.UserID, status, page)
	} else {
		items, total, err = h.Bookings.ListForCustomer(c.Request.Context(), actor.UserID, status, page)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.Booking{}
	}
	listResponse(c, items, total, page)
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.Bookings.Get(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Confirm handles POST /api/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, models.StatusConfirmed)
}

// Start handles POST /api/bookings/:id/start.
func (h *BookingHandler) Start(c *gin.Context) {
	h.transition(c, models.StatusInProgress)
}

// Complete handles POST /api/bookings/:id/complete.
func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, models.StatusCompleted)
}

// Cancel handles POST /api/bookings/:id/cancel with an optional {"reason": "..."} body.
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, models.StatusCancelled)
}

func (h *BookingHandler) transition(c *gin.Context, to models.BookingStatus) {
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
	}
	b, err := h.Bookings.Transition(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), to, strings.TrimSpace(body.Reason))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Review handles POST /api/bookings/:id/review.
func (h *BookingHandler) Review(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.Reviews.Create(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func validStatus(s models.BookingStatus) bool {
	switch s {
	case models.StatusPending, models.StatusConfirmed, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled:
		return true
	}
	return false
}
