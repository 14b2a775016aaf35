package booking

import (
	"context"
	"time"

	bookingRepo "tecnicosrd/database/repository/booking"
	technicianRepo "tecnicosrd/database/repository/technician"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/services/notification"
	"tecnicosrd/services/payment"
	"tecnicosrd/services/tasks"
	"tecnicosrd/utils"
)

const (
	// SlotMinutes is the length of a bookable slot.
	SlotMinutes = 60

	// RoleSystem identifies transitions triggered by background jobs.
	RoleSystem = "system"

	defaultHorizonDays = 14
	defaultSessionTTL  = 30 * time.Minute
)

// Session steps.
const (
	StepSelectTechnician = "select_technician"
	StepSelectSlot       = "select_slot"
	StepConfirm          = "confirm"
)

// BookingSessionService drives the multi-step booking flow.
type BookingSessionService interface {
	StartSession(ctx context.Context, customerID string, req models.StartSessionRequest) (*models.BookingSessionResponse, error)
	SelectTechnician(ctx context.Context, customerID, sessionID, technicianID string) (*models.BookingSessionResponse, error)
	SelectSlot(ctx context.Context, customerID, sessionID string, req models.SelectSlotRequest) (*models.BookingSessionResponse, error)
	Confirm(ctx context.Context, customerID, sessionID string) (*models.ConfirmedBooking, error)
	CancelSession(ctx context.Context, customerID, sessionID string) error
	// Slots lists a technician's slots over the booking horizon.
	Slots(ctx context.Context, technicianID string) ([]models.Slot, error)
}

// BookingService exposes booking lifecycle operations.
type BookingService interface {
	BookingSessionService

	Get(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	ListForCustomer(ctx context.Context, customerID string, status models.BookingStatus, page models.Page) ([]models.Booking, int64, error)
	ListForTechnician(ctx context.Context, userID string, status models.BookingStatus, page models.Page) ([]models.Booking, int64, error)

	Transition(ctx context.Context, actor models.Actor, id string, to models.BookingStatus, note string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	Start(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	Complete(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error)

	// ExpireStale cancels PENDING bookings whose start has passed.
	ExpireStale(ctx context.Context) (int, error)
}

// Rewarder is the slice of the gamification service used on completion.
type Rewarder interface {
	Award(ctx context.Context, userID, event, refID string) (*gamification.AwardResult, error)
}

// Options are the marketplace rules applied by the service.
type Options struct {
	HorizonDays int
	SessionTTL  time.Duration
	FeeRate     float64
	Currency    string
	Location    *time.Location
}

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	Repo        bookingRepo.BookingRepository
	Technicians technicianRepo.TechnicianRepository
	Sessions    SessionStore
	Payments    payment.PaymentService
	Reminders   tasks.ReminderScheduler
	Notifier    notification.NotificationService
	Rewards     Rewarder
	Opts        Options
	Now         func() time.Time
}

func NewBookingService(
	repo bookingRepo.BookingRepository,
	techs technicianRepo.TechnicianRepository,
	sessions SessionStore,
	payments payment.PaymentService,
	reminders tasks.ReminderScheduler,
	notifier notification.NotificationService,
	rewards Rewarder,
	opts Options,
) *DefaultBookingService {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = defaultHorizonDays
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Currency == "" {
		opts.Currency = "DOP"
	}
	return &DefaultBookingService{
		Repo:        repo,
		Technicians: techs,
		Sessions:    sessions,
		Payments:    payments,
		Reminders:   reminders,
		Notifier:    notifier,
		Rewards:     rewards,
		Opts:        opts,
		Now:         time.Now,
	}
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.Opts.Location)
	}
	return time.Now().In(s.Opts.Location)
}

// NewSessionStoreFromCache keeps sessions in the given cache.
func NewSessionStoreFromCache(cache utils.JSONCache, ttl time.Duration) SessionStore {
	return &CacheSessionStore{Cache: cache, TTL: ttl}
}
