package handlers

import (
	"net/http"
	"strings"

	"tecnicosrd/middleware"
	"tecnicosrd/models"
	"tecnicosrd/services/booking"
	"tecnicosrd/services/review"
	"tecnicosrd/services/technician"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImageBytes = 5 << 20

type TechnicianHandler struct {
	Technicians technician.TechnicianService
	Bookings    booking.BookingSessionService
	Reviews     review.ReviewService
}

func NewTechnicianHandler(techs technician.TechnicianService, slots booking.BookingSessionService, reviews review.ReviewService) *TechnicianHandler {
	return &TechnicianHandler{Technicians: techs, Bookings: slots, Reviews: reviews}
}

// Search handles GET /api/technicians.
func (h *TechnicianHandler) Search(c *gin.Context) {
	var criteria models.TechnicianSearchCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		badRequest(c, err)
		return
	}
	criteria.Page = criteria.Page.Normalize()

	techs, total, err := h.Technicians.Search(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	if techs == nil {
		techs = []models.Technician{}
	}
	listResponse(c, techs, total, criteria.Page)
}

// Get handles GET /api/technicians/:id.
func (h *TechnicianHandler) Get(c *gin.Context) {
	t, err := h.Technicians.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Create handles POST /api/technicians for the signed-in technician account.
func (h *TechnicianHandler) Create(c *gin.Context) {
	var req models.TechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.Technicians.CreateProfile(c.Request.Context(), c.GetString(middleware.CtxUserID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Update handles PUT /api/technicians/:id.
func (h *TechnicianHandler) Update(c *gin.Context) {
	var req models.TechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.Technicians.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /api/technicians/:id.
func (h *TechnicianHandler) Delete(c *gin.Context) {
	if err := h.Technicians.Delete(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Technician profile deleted"})
}

// GetAvailability handles GET /api/technicians/:id/availability.
func (h *TechnicianHandler) GetAvailability(c *gin.Context) {
	windows, err := h.Technicians.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

// SetAvailability handles PUT /api/technicians/:id/availability.
func (h *TechnicianHandler) SetAvailability(c *gin.Context) {
	var req models.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.Technicians.SetAvailability(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Windows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": t.Availability})
}

// ListSlots handles GET /api/technicians/:id/slots.
func (h *TechnicianHandler) ListSlots(c *gin.Context) {
	slots, err := h.Bookings.Slots(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// UploadImage handles POST /api/technicians/:id/image (multipart field "image").
func (h *TechnicianHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+1024)
	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, err)
		return
	}
	if header.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image must be at most 5MB", "code": http.StatusRequestEntityTooLarge})
		return
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image", "code": http.StatusBadRequest})
		return
	}
	file, err := header.Open()
	if err != nil {
		getLogger(c).Error("UploadImage: failed to open upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload", "code": http.StatusBadRequest})
		return
	}
	defer file.Close()

	t, err := h.Technicians.UploadProfileImage(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profileImage": t.ProfileImage})
}

// ListReviews handles GET /api/technicians/:id/reviews.
func (h *TechnicianHandler) ListReviews(c *gin.Context) {
	page := pageFrom(c)
	reviews, total, err := h.Reviews.ListForTechnician(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	listResponse(c, reviews, total, page)
}

// Specializations handles GET /api/specializations.
func (h *TechnicianHandler) Specializations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"specializations": h.Technicians.Specializations()})
}
