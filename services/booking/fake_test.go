package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"tecnicosrd/database"
	bookingRepo "tecnicosrd/database/repository/booking"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/services/payment"
)

type memoryBookings struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func newMemoryBookings() *memoryBookings {
	return &memoryBookings{bookings: map[string]models.Booking{}}
}

func (m *memoryBookings) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.HoldsSlot = b.Status.IsActive()
	for _, existing := range m.bookings {
		if existing.HoldsSlot && existing.TechnicianID == b.TechnicianID && existing.Date == b.Date && existing.Start == b.Start {
			return database.ErrDuplicate
		}
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *memoryBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &b, nil
}

func (m *memoryBookings) List(_ context.Context, f models.BookingFilter) ([]models.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.TechnicianID != "" && b.TechnicianID != f.TechnicianID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memoryBookings) ActiveForTechnician(_ context.Context, technicianID, fromDate, toDate string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.TechnicianID == technicianID && b.HoldsSlot && b.Date >= fromDate && b.Date <= toDate {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryBookings) HasOverlap(_ context.Context, technicianID, date string, start, end int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.TechnicianID == technicianID && b.HoldsSlot && b.Overlaps(date, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryBookings) Transition(_ context.Context, id string, upd bookingRepo.TransitionUpdate) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if b.Status != upd.Change.From {
		return nil, database.ErrConflict
	}
	b.Status = upd.Change.To
	b.HoldsSlot = b.Status.IsActive()
	b.History = append(b.History, upd.Change)
	b.UpdatedAt = upd.Change.At
	if upd.CancelReason != "" {
		b.CancelReason = upd.CancelReason
	}
	if upd.CancelledBy != "" {
		b.CancelledBy = upd.CancelledBy
	}
	if upd.PaymentStatus != "" {
		b.PaymentStatus = upd.PaymentStatus
	}
	if upd.CompletedAt != nil {
		b.CompletedAt = upd.CompletedAt
	}
	m.bookings[id] = b
	return &b, nil
}

func (m *memoryBookings) UpdatePayment(_ context.Context, id, status, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return database.ErrNotFound
	}
	b.PaymentStatus = status
	b.PaymentRef = ref
	m.bookings[id] = b
	return nil
}

func (m *memoryBookings) MarkReviewed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return database.ErrNotFound
	}
	if b.Reviewed {
		return database.ErrConflict
	}
	b.Reviewed = true
	m.bookings[id] = b
	return nil
}

func (m *memoryBookings) UnmarkReviewed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		b.Reviewed = false
		m.bookings[id] = b
	}
	return nil
}

func (m *memoryBookings) ExpirablePending(_ context.Context, before time.Time) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.Status == models.StatusPending && b.StartsAt.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryBookings) get(id string) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

type memoryTechnicians struct {
	mu    sync.Mutex
	techs map[string]models.Technician
}

func (m *memoryTechnicians) Create(_ context.Context, t *models.Technician) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.techs[t.ID] = *t
	return nil
}

func (m *memoryTechnicians) GetByID(_ context.Context, id string) (*models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &t, nil
}

func (m *memoryTechnicians) GetByUserID(_ context.Context, userID string) (*models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.techs {
		if t.UserID == userID {
			cp := t
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryTechnicians) GetByIDs(_ context.Context, ids []string) ([]models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Technician
	for _, id := range ids {
		if t, ok := m.techs[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryTechnicians) UpdateProfile(_ context.Context, t *models.Technician) (*models.Technician, error) {
	return m.mutate(t.ID, func(stored *models.Technician) {
		stored.DisplayName = t.DisplayName
		stored.Bio = t.Bio
		stored.Specializations = t.Specializations
		stored.Province = t.Province
		stored.City = t.City
		stored.Location = t.Location
		stored.HourlyRate = t.HourlyRate
		stored.YearsExperience = t.YearsExperience
		stored.Active = t.Active
	})
}

func (m *memoryTechnicians) SetAvailability(_ context.Context, id string, windows []models.AvailabilityWindow) (*models.Technician, error) {
	return m.mutate(id, func(t *models.Technician) { t.Availability = windows })
}

func (m *memoryTechnicians) SetVerification(_ context.Context, id string, verified bool, status string) (*models.Technician, error) {
	return m.mutate(id, func(t *models.Technician) {
		t.Verified = verified
		t.VerificationStatus = status
	})
}

func (m *memoryTechnicians) SetProfileImage(_ context.Context, id, url string) (*models.Technician, error) {
	return m.mutate(id, func(t *models.Technician) { t.ProfileImage = url })
}

func (m *memoryTechnicians) SetActive(_ context.Context, id string, active bool) error {
	_, err := m.mutate(id, func(t *models.Technician) { t.Active = active })
	return err
}

func (m *memoryTechnicians) mutate(id string, fn func(*models.Technician)) (*models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	fn(&t)
	m.techs[id] = t
	return &t, nil
}

func (m *memoryTechnicians) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.techs, id)
	return nil
}

func (m *memoryTechnicians) Search(_ context.Context, c models.TechnicianSearchCriteria) ([]models.Technician, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Technician
	for _, t := range m.techs {
		if c.Specialization != "" && !contains(t.Specializations, c.Specialization) {
			continue
		}
		if c.Province != "" && t.Province != c.Province {
			continue
		}
		if c.OnlyBookable && (!t.Active || len(t.Availability) == 0) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memoryTechnicians) IncrementCompletedJobs(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return database.ErrNotFound
	}
	t.CompletedJobs += delta
	m.techs[id] = t
	return nil
}

func (m *memoryTechnicians) ApplyRating(_ context.Context, id string, rating int) (*models.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.techs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	t.AddRating(rating)
	m.techs[id] = t
	return &t, nil
}

type fakePayments struct {
	chargeErr error
	settled   []string
	refunded  []string
}

func (f *fakePayments) Charge(_ context.Context, b *models.Booking) (*payment.ChargeResult, error) {
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	if b.PaymentMethod == models.PaymentCard {
		return &payment.ChargeResult{Method: b.PaymentMethod, Status: models.PaymentStatusPending, Reference: "pi_" + b.ID, ClientSecret: "secret_" + b.ID}, nil
	}
	return &payment.ChargeResult{Method: b.PaymentMethod, Status: models.PaymentStatusPending, Reference: "cash:" + b.ID}, nil
}

func (f *fakePayments) Settle(_ context.Context, b *models.Booking) (string, error) {
	f.settled = append(f.settled, b.ID)
	return models.PaymentStatusPaid, nil
}

func (f *fakePayments) Refund(_ context.Context, b *models.Booking) (string, error) {
	f.refunded = append(f.refunded, b.ID)
	return models.PaymentStatusVoided, nil
}

type fakeReminders struct {
	mu        sync.Mutex
	scheduled []models.ReminderPayload
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, p models.ReminderPayload, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, p)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (f *fakeNotifier) NotifyUser(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.UserID)
	}
	return out
}

type awardCall struct {
	UserID, Event, RefID string
}

type fakeRewards struct {
	mu    sync.Mutex
	calls []awardCall
}

func (f *fakeRewards) Award(_ context.Context, userID, event, refID string) (*gamification.AwardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, awardCall{userID, event, refID})
	return &gamification.AwardResult{}, nil
}
