package booking

import (
	"context"
	"errors"
	"fmt"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/services/technician"
	"tecnicosrd/utils"

	"go.uber.org/zap"
)

// Get returns the booking to its customer, its technician or an admin.
func (s *DefaultBookingService) Get(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || actor.UserID == b.CustomerID {
		return b, nil
	}
	t, err := s.technician(ctx, b.TechnicianID)
	if err != nil {
		if errors.Is(err, technician.ErrTechnicianNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if t.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *DefaultBookingService) ListForCustomer(ctx context.Context, customerID string, status models.BookingStatus, page models.Page) ([]models.Booking, int64, error) {
	return s.Repo.List(ctx, models.BookingFilter{CustomerID: customerID, Status: status, Page: page})
}

// ListForTechnician lists the bookings of the technician profile owned by userID.
func (s *DefaultBookingService) ListForTechnician(ctx context.Context, userID string, status models.BookingStatus, page models.Page) ([]models.Booking, int64, error) {
	t, err := s.Technicians.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, 0, technician.ErrTechnicianNotFound
		}
		return nil, 0, err
	}
	return s.Repo.List(ctx, models.BookingFilter{TechnicianID: t.ID, Status: status, Page: page})
}

// ExpireStale cancels PENDING bookings the technician never confirmed before the start.
func (s *DefaultBookingService) ExpireStale(ctx context.Context) (int, error) {
	stale, err := s.Repo.ExpirablePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list stale bookings: %w", err)
	}

	expired := 0
	for i := range stale {
		b := &stale[i]
		t, err := s.technician(ctx, b.TechnicianID)
		if err != nil {
			utils.GetLogger().Warn("ExpireStale: technician missing", zap.String("bookingID", b.ID), zap.Error(err))
			t = &models.Technician{ID: b.TechnicianID}
		}
		if _, err := s.apply(ctx, b, t, RoleSystem, RoleSystem, models.StatusCancelled, "not confirmed before start"); err != nil {
			// confirmed or cancelled meanwhile
			if errors.Is(err, ErrConcurrentUpdate) {
				continue
			}
			utils.GetLogger().Error("ExpireStale: failed to cancel booking", zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		expired++
	}
	if expired > 0 {
		utils.GetLogger().Info("stale bookings expired", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *DefaultBookingService) getBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}
