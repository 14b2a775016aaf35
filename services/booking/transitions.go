package booking

import (
	"context"
	"errors"
	"fmt"

	"tecnicosrd/database"
	bookingRepo "tecnicosrd/database/repository/booking"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/utils"

	"go.uber.org/zap"
)

// transitions lists, per source status, the targets and the roles that may request them.
var transitions = map[models.BookingStatus]map[models.BookingStatus][]string{
	models.StatusPending: {
		models.StatusConfirmed: {models.RoleTechnician},
		models.StatusCancelled: {models.RoleCustomer, models.RoleTechnician, models.RoleAdmin, RoleSystem},
	},
	models.StatusConfirmed: {
		models.StatusInProgress: {models.RoleTechnician},
		models.StatusCancelled:  {models.RoleCustomer, models.RoleTechnician, models.RoleAdmin},
	},
	models.StatusInProgress: {
		models.StatusCompleted: {models.RoleTechnician},
		models.StatusCancelled: {models.RoleAdmin},
	},
}

// CanTransition reports whether role may move a booking from one status to another.
func CanTransition(from, to models.BookingStatus, role string) bool {
	for _, r := range transitions[from][to] {
		if r == role {
			return true
		}
	}
	return false
}

// IsValidTransition reports whether any role may move a booking from one status to another.
func IsValidTransition(from, to models.BookingStatus) bool {
	return len(transitions[from][to]) > 0
}

func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return s.Transition(ctx, actor, id, models.StatusConfirmed, "")
}

func (s *DefaultBookingService) Start(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return s.Transition(ctx, actor, id, models.StatusInProgress, "")
}

func (s *DefaultBookingService) Complete(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return s.Transition(ctx, actor, id, models.StatusCompleted, "")
}

func (s *DefaultBookingService) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Booking, error) {
	return s.Transition(ctx, actor, id, models.StatusCancelled, reason)
}

// Transition moves a booking to status to on behalf of actor and runs the side effects.
func (s *DefaultBookingService) Transition(ctx context.Context, actor models.Actor, id string, to models.BookingStatus, note string) (*models.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.technician(ctx, b.TechnicianID)
	if err != nil {
		return nil, err
	}
	role, err := participantRole(actor, b, t)
	if err != nil {
		return nil, err
	}
	if !IsValidTransition(b.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	if !CanTransition(b.Status, to, role) {
		return nil, ErrForbidden
	}
	return s.apply(ctx, b, t, actor.UserID, role, to, note)
}

func (s *DefaultBookingService) apply(ctx context.Context, b *models.Booking, t *models.Technician, by, role string, to models.BookingStatus, note string) (*models.Booking, error) {
	now := s.now()
	upd := bookingRepo.TransitionUpdate{
		Change: models.StatusChange{From: b.Status, To: to, By: by, Role: role, Note: note, At: now},
	}
	switch to {
	case models.StatusCompleted:
		upd.CompletedAt = &now
		status, err := s.Payments.Settle(ctx, b)
		if err != nil {
			utils.GetLogger().Warn("booking completion: payment not settled", zap.String("bookingID", b.ID), zap.Error(err))
		} else {
			upd.PaymentStatus = status
		}
	case models.StatusCancelled:
		upd.CancelReason = note
		upd.CancelledBy = role
	}

	updated, err := s.Repo.Transition(ctx, b.ID, upd)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	utils.RecordBookingTransition(string(to))
	utils.GetLogger().Info("booking transitioned",
		zap.String("bookingID", b.ID),
		zap.String("from", string(b.Status)),
		zap.String("to", string(to)),
		zap.String("role", role))

	s.afterTransition(ctx, updated, t, role)
	return updated, nil
}

// afterTransition runs best-effort side effects; failures are logged, not returned.
func (s *DefaultBookingService) afterTransition(ctx context.Context, b *models.Booking, t *models.Technician, role string) {
	log := utils.GetLogger().With(zap.String("bookingID", b.ID), zap.String("status", string(b.Status)))
	when := fmt.Sprintf("%s a las %s", b.Date, clock(b.Start))

	switch b.Status {
	case models.StatusConfirmed:
		payload := models.ReminderPayload{
			BookingID:    b.ID,
			CustomerID:   b.CustomerID,
			TechnicianID: t.UserID,
			Title:        "Recordatorio de servicio",
			Body:         fmt.Sprintf("Tu servicio de %s es el %s.", b.Specialization, when),
		}
		if err := s.Reminders.ScheduleReminder(ctx, payload, b.StartsAt); err != nil {
			log.Error("failed to schedule reminder", zap.Error(err))
		}
		s.notify(ctx, b.CustomerID, b, "Reserva confirmada", fmt.Sprintf("%s confirmó tu servicio del %s.", t.DisplayName, when))

	case models.StatusInProgress:
		s.notify(ctx, b.CustomerID, b, "Servicio en curso", fmt.Sprintf("%s comenzó el trabajo.", t.DisplayName))

	case models.StatusCompleted:
		if err := s.Technicians.IncrementCompletedJobs(ctx, t.ID, 1); err != nil {
			log.Error("failed to increment completed jobs", zap.Error(err))
		}
		s.award(ctx, b.CustomerID, gamification.EventBookingCompleted, b.ID)
		s.award(ctx, t.UserID, gamification.EventJobCompleted, b.ID)
		s.notify(ctx, b.CustomerID, b, "Servicio completado", "Cuéntanos cómo te fue y gana puntos con tu reseña.")

	case models.StatusCancelled:
		status, err := s.Payments.Refund(ctx, b)
		if err != nil {
			log.Error("failed to reverse payment", zap.Error(err))
		} else if status != b.PaymentStatus {
			if err := s.Repo.UpdatePayment(ctx, b.ID, status, b.PaymentRef); err != nil {
				log.Error("failed to store payment status", zap.Error(err))
			} else {
				b.PaymentStatus = status
			}
		}
		msg := fmt.Sprintf("El servicio del %s fue cancelado.", when)
		if role != models.RoleCustomer {
			s.notify(ctx, b.CustomerID, b, "Reserva cancelada", msg)
		}
		if role != models.RoleTechnician {
			s.notify(ctx, t.UserID, b, "Reserva cancelada", msg)
		}
	}
}

func (s *DefaultBookingService) award(ctx context.Context, userID, event, refID string) {
	if s.Rewards == nil || userID == "" {
		return
	}
	if _, err := s.Rewards.Award(ctx, userID, event, refID); err != nil {
		utils.GetLogger().Error("failed to award points",
			zap.String("userID", userID), zap.String("event", event), zap.String("refID", refID), zap.Error(err))
	}
}

func (s *DefaultBookingService) notify(ctx context.Context, userID string, b *models.Booking, title, body string) {
	if s.Notifier == nil || userID == "" {
		return
	}
	n := models.Notification{
		UserID: userID,
		Type:   "booking_" + string(b.Status),
		Title:  title,
		Body:   body,
		Data: map[string]string{
			"bookingId": b.ID,
			"status":    string(b.Status),
		},
		CreatedAt: s.now(),
	}
	if err := s.Notifier.NotifyUser(ctx, n); err != nil {
		utils.GetLogger().Warn("failed to push booking notification", zap.String("userID", userID), zap.Error(err))
	}
}

func (s *DefaultBookingService) cancelUpdate(b *models.Booking, by, role, reason, paymentStatus string) bookingRepo.TransitionUpdate {
	return bookingRepo.TransitionUpdate{
		Change: models.StatusChange{
			From: b.Status,
			To:   models.StatusCancelled,
			By:   by,
			Role: role,
			Note: reason,
			At:   s.now(),
		},
		CancelReason:  reason,
		CancelledBy:   role,
		PaymentStatus: paymentStatus,
	}
}

// participantRole resolves the role actor plays on the booking.
func participantRole(actor models.Actor, b *models.Booking, t *models.Technician) (string, error) {
	switch {
	case actor.IsAdmin():
		return models.RoleAdmin, nil
	case actor.UserID != "" && actor.UserID == t.UserID:
		return models.RoleTechnician, nil
	case actor.UserID != "" && actor.UserID == b.CustomerID:
		return models.RoleCustomer, nil
	}
	return "", ErrForbidden
}
