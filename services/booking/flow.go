package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/services/technician"
	"tecnicosrd/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCandidates = 50

// StartSession matches bookable technicians and opens a session.
func (s *DefaultBookingService) StartSession(ctx context.Context, customerID string, req models.StartSessionRequest) (*models.BookingSessionResponse, error) {
	code := strings.ToLower(strings.TrimSpace(req.Specialization))
	if !technician.IsSpecialization(code) {
		return nil, utils.Invalid("specialization", fmt.Sprintf("unknown specialization %q", req.Specialization))
	}

	techs, _, err := s.Technicians.Search(ctx, models.TechnicianSearchCriteria{
		Specialization: code,
		Province:       strings.TrimSpace(req.Province),
		City:           strings.TrimSpace(req.City),
		OnlyBookable:   true,
		Page:           models.Page{Page: 1, Limit: maxCandidates},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match technicians: %w", err)
	}
	// a technician account never gets its own profile offered
	offered := techs[:0]
	for _, t := range techs {
		if t.UserID != customerID {
			offered = append(offered, t)
		}
	}
	techs = offered
	if len(techs) == 0 {
		return nil, ErrNoTechnicians
	}

	session := &models.BookingSession{
		SessionID:      uuid.New().String(),
		CustomerID:     customerID,
		Specialization: code,
		Province:       strings.TrimSpace(req.Province),
		City:           strings.TrimSpace(req.City),
		Step:           StepSelectTechnician,
		Candidates:     make([]string, 0, len(techs)),
		CreatedAt:      s.now(),
	}
	for _, t := range techs {
		session.Candidates = append(session.Candidates, t.ID)
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	utils.GetLogger().Info("booking session started",
		zap.String("sessionID", session.SessionID),
		zap.String("customerID", customerID),
		zap.Int("candidates", len(techs)))
	return &models.BookingSessionResponse{
		SessionID:   session.SessionID,
		Step:        session.Step,
		Technicians: techs,
	}, nil
}

// SelectTechnician pins a candidate and returns its slots for the horizon.
func (s *DefaultBookingService) SelectTechnician(ctx context.Context, customerID, sessionID, technicianID string) (*models.BookingSessionResponse, error) {
	session, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !contains(session.Candidates, technicianID) {
		return nil, ErrTechnicianNotOffered
	}
	t, err := s.technician(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if t.UserID == customerID {
		return nil, ErrSelfBooking
	}

	slots, err := s.slotsFor(ctx, t)
	if err != nil {
		return nil, err
	}

	session.TechnicianID = technicianID
	session.Slots = slots
	session.Draft = nil
	session.Step = StepSelectSlot
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &models.BookingSessionResponse{SessionID: session.SessionID, Step: session.Step, Slots: slots}, nil
}

// SelectSlot revalidates the slot against current bookings and stores a priced draft.
func (s *DefaultBookingService) SelectSlot(ctx context.Context, customerID, sessionID string, req models.SelectSlotRequest) (*models.BookingSessionResponse, error) {
	session, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TechnicianID == "" {
		return nil, ErrInvalidStep
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = models.PaymentCash
	}
	if method != models.PaymentCash && method != models.PaymentCard {
		return nil, utils.Invalid("paymentMethod", "payment method must be cash or card")
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, utils.Invalid("address", "address is required")
	}

	t, err := s.technician(ctx, session.TechnicianID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slotsFor(ctx, t)
	if err != nil {
		return nil, err
	}
	slot, ok := findSlot(slots, req.Date, req.Start)
	if !ok {
		return nil, utils.Invalid("start", "no slot starts at the requested time")
	}
	if !slot.Available {
		session.Slots = slots
		_ = s.Sessions.Save(ctx, session)
		return nil, ErrSlotUnavailable
	}

	price, fee := Quote(t.HourlyRate, slot.Start, slot.End, s.Opts.FeeRate)
	session.Slots = slots
	session.Draft = &models.BookingDraft{
		Date:          slot.Date,
		Start:         slot.Start,
		End:           slot.End,
		Description:   strings.TrimSpace(req.Description),
		Address:       address,
		PaymentMethod: method,
		Price:         price,
		PlatformFee:   fee,
	}
	session.Step = StepConfirm
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &models.BookingSessionResponse{SessionID: session.SessionID, Step: session.Step, Draft: session.Draft}, nil
}

// Confirm turns the draft into a PENDING booking and initiates payment.
func (s *DefaultBookingService) Confirm(ctx context.Context, customerID, sessionID string) (*models.ConfirmedBooking, error) {
	session, err := s.loadSession(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepConfirm || session.Draft == nil {
		return nil, ErrInvalidStep
	}
	d := session.Draft

	t, err := s.technician(ctx, session.TechnicianID)
	if err != nil {
		return nil, err
	}
	if t.UserID == customerID {
		return nil, ErrSelfBooking
	}
	if !t.Active {
		return nil, ErrTechnicianNotOffered
	}
	startsAt, err := StartsAt(d.Date, d.Start, s.Opts.Location)
	if err != nil {
		return nil, utils.Invalid("date", "date must be YYYY-MM-DD")
	}
	now := s.now()
	if !startsAt.After(now) {
		return nil, ErrSlotUnavailable
	}

	overlap, err := s.Repo.HasOverlap(ctx, t.ID, d.Date, d.Start, d.End)
	if err != nil {
		return nil, fmt.Errorf("failed to check technician schedule: %w", err)
	}
	if overlap {
		return nil, ErrSlotUnavailable
	}

	b := &models.Booking{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		TechnicianID:   t.ID,
		Specialization: session.Specialization,
		Description:    d.Description,
		Address:        d.Address,
		Province:       t.Province,
		City:           t.City,
		Date:           d.Date,
		Start:          d.Start,
		End:            d.End,
		StartsAt:       startsAt,
		Status:         models.StatusPending,
		Price:          d.Price,
		PlatformFee:    d.PlatformFee,
		Currency:       s.Opts.Currency,
		PaymentMethod:  d.PaymentMethod,
		PaymentStatus:  models.PaymentStatusPending,
		History: []models.StatusChange{{
			To:   models.StatusPending,
			By:   customerID,
			Role: models.RoleCustomer,
			At:   now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrSlotUnavailable
		}
		utils.GetLogger().Error("Confirm: failed to insert booking", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	charge, err := s.Payments.Charge(ctx, b)
	if err != nil {
		utils.GetLogger().Warn("Confirm: payment failed, releasing slot", zap.String("bookingID", b.ID), zap.Error(err))
		if _, cerr := s.Repo.Transition(ctx, b.ID, s.cancelUpdate(b, RoleSystem, RoleSystem, "payment failed", models.PaymentStatusFailed)); cerr != nil {
			utils.GetLogger().Error("Confirm: failed to release slot", zap.String("bookingID", b.ID), zap.Error(cerr))
		}
		return nil, fmt.Errorf("payment could not be initiated: %w", err)
	}
	b.PaymentStatus = charge.Status
	b.PaymentRef = charge.Reference
	if err := s.Repo.UpdatePayment(ctx, b.ID, charge.Status, charge.Reference); err != nil {
		utils.GetLogger().Error("Confirm: failed to store payment reference", zap.String("bookingID", b.ID), zap.Error(err))
	}

	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		utils.GetLogger().Warn("Confirm: failed to delete session", zap.String("sessionID", sessionID), zap.Error(err))
	}

	utils.RecordBookingTransition(string(models.StatusPending))
	s.notify(ctx, t.UserID, b, "Nueva solicitud de servicio",
		fmt.Sprintf("Tienes una nueva solicitud para el %s a las %s.", b.Date, clock(b.Start)))

	utils.GetLogger().Info("booking created",
		zap.String("bookingID", b.ID),
		zap.String("technicianID", t.ID),
		zap.String("date", b.Date),
		zap.Int("start", b.Start))
	return &models.ConfirmedBooking{Booking: b, ClientSecret: charge.ClientSecret}, nil
}

// CancelSession discards an in-flight session.
func (s *DefaultBookingService) CancelSession(ctx context.Context, customerID, sessionID string) error {
	if _, err := s.loadSession(ctx, customerID, sessionID); err != nil {
		return err
	}
	return s.Sessions.Delete(ctx, sessionID)
}

// Slots lists the technician's slots from today over the horizon.
func (s *DefaultBookingService) Slots(ctx context.Context, technicianID string) ([]models.Slot, error) {
	t, err := s.technician(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	return s.slotsFor(ctx, t)
}

func (s *DefaultBookingService) slotsFor(ctx context.Context, t *models.Technician) ([]models.Slot, error) {
	now := s.now()
	last := now.AddDate(0, 0, s.Opts.HorizonDays-1)
	bookings, err := s.Repo.ActiveForTechnician(ctx, t.ID, now.Format(DateLayout), last.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to load technician bookings: %w", err)
	}
	return ComputeSlots(t.Availability, bookings, now, s.Opts.HorizonDays, now), nil
}

func (s *DefaultBookingService) loadSession(ctx context.Context, customerID, sessionID string) (*models.BookingSession, error) {
	session, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// sessions of other customers are reported as missing
	if session.CustomerID != customerID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *DefaultBookingService) technician(ctx context.Context, id string) (*models.Technician, error) {
	t, err := s.Technicians.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, technician.ErrTechnicianNotFound
		}
		return nil, err
	}
	return t, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// clock formats minutes from midnight as HH:MM.
func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
