package bookingRepo

import (
	"context"
	"time"

	"tecnicosrd/models"
)

// TransitionUpdate describes one status change applied with Transition.
type TransitionUpdate struct {
	Change        models.StatusChange
	CancelReason  string
	CancelledBy   string
	PaymentStatus string
	CompletedAt   *time.Time
}

// BookingRepository defines persistence operations for bookings.
type BookingRepository interface {
	// Create inserts a booking. A concurrent booking of the same slot yields database.ErrDuplicate.
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error)
	// ActiveForTechnician returns bookings that hold a slot between fromDate and toDate inclusive.
	ActiveForTechnician(ctx context.Context, technicianID, fromDate, toDate string) ([]models.Booking, error)
	HasOverlap(ctx context.Context, technicianID, date string, start, end int) (bool, error)
	// Transition applies the change only while the booking is still in Change.From.
	// It returns database.ErrConflict when the status moved underneath the caller.
	Transition(ctx context.Context, id string, upd TransitionUpdate) (*models.Booking, error)
	UpdatePayment(ctx context.Context, id, status, ref string) error
	// MarkReviewed flips the reviewed flag once; a second call returns database.ErrConflict.
	MarkReviewed(ctx context.Context, id string) error
	// UnmarkReviewed releases a claim whose review could not be stored.
	UnmarkReviewed(ctx context.Context, id string) error
	// ExpirablePending lists PENDING bookings whose start is before the cutoff.
	ExpirablePending(ctx context.Context, before time.Time) ([]models.Booking, error)
}
