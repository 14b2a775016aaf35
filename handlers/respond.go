package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/services/booking"
	"tecnicosrd/services/gamification"
	"tecnicosrd/services/payment"
	"tecnicosrd/services/review"
	"tecnicosrd/services/storage"
	"tecnicosrd/services/technician"
	"tecnicosrd/services/user"
	"tecnicosrd/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByError = []struct {
	err    error
	status int
}{
	{database.ErrNotFound, http.StatusNotFound},
	{user.ErrUserNotFound, http.StatusNotFound},
	{technician.ErrTechnicianNotFound, http.StatusNotFound},
	{booking.ErrBookingNotFound, http.StatusNotFound},
	{booking.ErrSessionNotFound, http.StatusNotFound},
	{booking.ErrNoTechnicians, http.StatusNotFound},
	{review.ErrBookingNotFound, http.StatusNotFound},
	{gamification.ErrProfileNotFound, http.StatusNotFound},
	{gamification.ErrRewardNotFound, http.StatusNotFound},

	{user.ErrInvalidCredentials, http.StatusUnauthorized},
	{user.ErrSessionExpired, http.StatusUnauthorized},

	{technician.ErrForbidden, http.StatusForbidden},
	{technician.ErrNotTechnician, http.StatusForbidden},
	{booking.ErrForbidden, http.StatusForbidden},
	{booking.ErrSelfBooking, http.StatusForbidden},
	{review.ErrForbidden, http.StatusForbidden},

	{database.ErrDuplicate, http.StatusConflict},
	{database.ErrConflict, http.StatusConflict},
	{user.ErrEmailTaken, http.StatusConflict},
	{technician.ErrProfileExists, http.StatusConflict},
	{booking.ErrSlotUnavailable, http.StatusConflict},
	{booking.ErrConcurrentUpdate, http.StatusConflict},
	{booking.ErrInvalidTransition, http.StatusConflict},
	{booking.ErrInvalidStep, http.StatusConflict},
	{review.ErrAlreadyReviewed, http.StatusConflict},
	{review.ErrNotCompleted, http.StatusConflict},
	{gamification.ErrInsufficientPoints, http.StatusConflict},
	{gamification.ErrOutOfStock, http.StatusConflict},

	{user.ErrInvalidRole, http.StatusBadRequest},
	{booking.ErrTechnicianNotOffered, http.StatusBadRequest},
	{gamification.ErrUnknownEvent, http.StatusBadRequest},
	{gamification.ErrInvalidReward, http.StatusBadRequest},
	{payment.ErrUnsupportedMethod, http.StatusBadRequest},

	{payment.ErrCardUnavailable, http.StatusServiceUnavailable},
	{storage.ErrNotConfigured, http.StatusServiceUnavailable},
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var vErr *utils.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		getLogger(c).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error", "code": 0})
		return
	}

	body := gin.H{"error": err.Error(), "code": status}
	var vErr *utils.ValidationError
	if errors.As(err, &vErr) {
		body["error"] = vErr.Message
		body["field"] = vErr.Field
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	getLogger(c).Debug("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "code": http.StatusBadRequest})
}

// pageFrom reads ?page=&limit= from the query string.
func pageFrom(c *gin.Context) models.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return models.Page{Page: page, Limit: limit}.Normalize()
}

func listResponse(c *gin.Context, items interface{}, total int64, page models.Page) {
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  page.Page,
		"limit": page.Limit,
	})
}
