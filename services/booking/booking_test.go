package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	svc       *DefaultBookingService
	bookings  *memoryBookings
	techs     *memoryTechnicians
	payments  *fakePayments
	reminders *fakeReminders
	notifier  *fakeNotifier
	rewards   *fakeRewards
	now       time.Time
}

var (
	customer   = models.Actor{UserID: "customer-1", Role: models.RoleCustomer}
	techUser   = models.Actor{UserID: "tech-user", Role: models.RoleTechnician}
	admin      = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	stranger   = models.Actor{UserID: "someone-else", Role: models.RoleCustomer}
	weekdays8a = []models.AvailabilityWindow{
		{Weekday: 1, Start: 480, End: 720},
		{Weekday: 2, Start: 480, End: 720},
		{Weekday: 3, Start: 480, End: 720},
		{Weekday: 4, Start: 480, End: 720},
		{Weekday: 5, Start: 480, End: 720},
	}
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.SetLogger(zap.NewNop())

	env := &testEnv{
		bookings:  newMemoryBookings(),
		techs:     &memoryTechnicians{techs: map[string]models.Technician{}},
		payments:  &fakePayments{},
		reminders: &fakeReminders{},
		notifier:  &fakeNotifier{},
		rewards:   &fakeRewards{},
		now:       time.Date(2026, 10, 19, 8, 30, 0, 0, ast),
	}
	env.techs.techs["tech-1"] = models.Technician{
		ID:              "tech-1",
		UserID:          "tech-user",
		DisplayName:     "Carlos Gómez",
		Specializations: []string{"electricista"},
		Province:        "Santo Domingo",
		City:            "Santo Domingo Este",
		HourlyRate:      1000,
		Active:          true,
		Availability:    weekdays8a,
	}
	env.techs.techs["tech-2"] = models.Technician{
		ID:              "tech-2",
		UserID:          "plumber-user",
		Specializations: []string{"plomero"},
		Province:        "Santiago",
		HourlyRate:      700,
		Active:          true,
		Availability:    weekdays8a,
	}

	env.svc = NewBookingService(
		env.bookings,
		env.techs,
		NewSessionStoreFromCache(utils.NewMemoryCache(), 30*time.Minute),
		env.payments,
		env.reminders,
		env.notifier,
		env.rewards,
		Options{HorizonDays: 14, FeeRate: 0.10, Currency: "DOP", Location: ast},
	)
	env.svc.Now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) book(t *testing.T, method string) *models.Booking {
	t.Helper()
	ctx := context.Background()

	started, err := e.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "Electricista"})
	require.NoError(t, err)
	_, err = e.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-1")
	require.NoError(t, err)
	_, err = e.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{
		Date:          "2026-10-20",
		Start:         540,
		Address:       "Calle El Conde 12",
		PaymentMethod: method,
	})
	require.NoError(t, err)
	confirmed, err := e.svc.Confirm(ctx, customer.UserID, started.SessionID)
	require.NoError(t, err)
	return confirmed.Booking
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	started, err := env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)
	assert.Equal(t, StepSelectTechnician, started.Step)
	require.Len(t, started.Technicians, 1)
	assert.Equal(t, "tech-1", started.Technicians[0].ID)

	selected, err := env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, StepSelectSlot, selected.Step)
	require.NotEmpty(t, selected.Slots)
	assert.Equal(t, models.Slot{Date: "2026-10-19", Start: 480, End: 540, Available: false}, selected.Slots[0])
	assert.True(t, selected.Slots[1].Available)

	drafted, err := env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{
		Date:        "2026-10-20",
		Start:       540,
		Description: "Breaker se dispara",
		Address:     "Calle El Conde 12",
	})
	require.NoError(t, err)
	assert.Equal(t, StepConfirm, drafted.Step)
	require.NotNil(t, drafted.Draft)
	assert.Equal(t, 1000.0, drafted.Draft.Price)
	assert.Equal(t, 100.0, drafted.Draft.PlatformFee)
	assert.Equal(t, models.PaymentCash, drafted.Draft.PaymentMethod)

	confirmed, err := env.svc.Confirm(ctx, customer.UserID, started.SessionID)
	require.NoError(t, err)
	b := confirmed.Booking
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "tech-1", b.TechnicianID)
	assert.Equal(t, "cash:"+b.ID, b.PaymentRef)
	assert.True(t, b.StartsAt.Equal(time.Date(2026, 10, 20, 9, 0, 0, 0, ast)))
	require.Len(t, b.History, 1)
	assert.Equal(t, models.StatusPending, b.History[0].To)

	stored := env.bookings.get(b.ID)
	assert.Equal(t, "cash:"+b.ID, stored.PaymentRef)
	assert.True(t, stored.HoldsSlot)
	assert.Equal(t, []string{"tech-user"}, env.notifier.recipients())

	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-20", Start: 600, Address: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound, "session is gone after confirmation")

	slots, err := env.svc.Slots(ctx, "tech-1")
	require.NoError(t, err)
	slot, ok := findSlot(slots, "2026-10-20", 540)
	require.True(t, ok)
	assert.False(t, slot.Available)
}

func TestStartSessionRejectsUnknownSpecializationAndEmptyMatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "astronauta"})
	var vErr *utils.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "specialization", vErr.Field)

	_, err = env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "pintor"})
	assert.ErrorIs(t, err, ErrNoTechnicians)
}

func TestSessionBelongsToItsCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	started, err := env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)

	_, err = env.svc.SelectTechnician(ctx, stranger.UserID, started.SessionID, "tech-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, env.svc.CancelSession(ctx, stranger.UserID, started.SessionID), ErrSessionNotFound)

	_, err = env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-2")
	assert.ErrorIs(t, err, ErrTechnicianNotOffered)

	require.NoError(t, env.svc.CancelSession(ctx, customer.UserID, started.SessionID))
	_, err = env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTechnicianCannotBookOwnProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.StartSession(ctx, techUser.UserID, models.StartSessionRequest{Specialization: "electricista"})
	assert.ErrorIs(t, err, ErrNoTechnicians)

	env.techs.techs["tech-3"] = models.Technician{
		ID:              "tech-3",
		UserID:          "other-electrician",
		Specializations: []string{"electricista"},
		HourlyRate:      900,
		Active:          true,
		Availability:    weekdays8a,
	}
	started, err := env.svc.StartSession(ctx, techUser.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)
	require.Len(t, started.Technicians, 1)
	assert.Equal(t, "tech-3", started.Technicians[0].ID)
	_, err = env.svc.SelectTechnician(ctx, techUser.UserID, started.SessionID, "tech-1")
	assert.ErrorIs(t, err, ErrTechnicianNotOffered)

	// profile relinked to the customer while the session is open
	started, err = env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)
	_, err = env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-3")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-20", Start: 540, Address: "Calle 1"})
	require.NoError(t, err)
	tech := env.techs.techs["tech-3"]
	tech.UserID = customer.UserID
	env.techs.techs["tech-3"] = tech

	_, err = env.svc.Confirm(ctx, customer.UserID, started.SessionID)
	assert.ErrorIs(t, err, ErrSelfBooking)
	_, err = env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-3")
	assert.ErrorIs(t, err, ErrSelfBooking)

	assert.Empty(t, env.bookings.bookings)
	assert.Empty(t, env.rewards.calls)
}

func TestConfirmRejectsDeactivatedTechnician(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	started, err := env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)
	_, err = env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-1")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-20", Start: 540, Address: "Calle 1"})
	require.NoError(t, err)

	// the account behind the profile was deleted meanwhile
	require.NoError(t, env.techs.SetActive(ctx, "tech-1", false))
	_, err = env.svc.Confirm(ctx, customer.UserID, started.SessionID)
	assert.ErrorIs(t, err, ErrTechnicianNotOffered)
	assert.Empty(t, env.bookings.bookings)
}

func TestSelectSlotValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	started, err := env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)

	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-20", Start: 540, Address: "x"})
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-1")
	require.NoError(t, err)

	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-20", Start: 540, Address: "x", PaymentMethod: "bitcoin"})
	var vErr *utils.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "paymentMethod", vErr.Field)

	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-20", Start: 550, Address: "x"})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "start", vErr.Field)

	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-19", Start: 480, Address: "x"})
	assert.ErrorIs(t, err, ErrSlotUnavailable, "slot already started")

	_, err = env.svc.Confirm(ctx, customer.UserID, started.SessionID)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestConfirmRejectsDoubleBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)
	second, err := env.svc.StartSession(ctx, "customer-2", models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)

	pick := models.SelectSlotRequest{Date: "2026-10-20", Start: 540, Address: "Calle 1"}
	for _, s := range []struct{ customer, session string }{{customer.UserID, first.SessionID}, {"customer-2", second.SessionID}} {
		_, err = env.svc.SelectTechnician(ctx, s.customer, s.session, "tech-1")
		require.NoError(t, err)
		_, err = env.svc.SelectSlot(ctx, s.customer, s.session, pick)
		require.NoError(t, err)
	}

	_, err = env.svc.Confirm(ctx, customer.UserID, first.SessionID)
	require.NoError(t, err)
	_, err = env.svc.Confirm(ctx, "customer-2", second.SessionID)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	active, err := env.bookings.ActiveForTechnician(ctx, "tech-1", "2026-10-20", "2026-10-20")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestConfirmReleasesSlotWhenPaymentFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.payments.chargeErr = errors.New("card declined")

	started, err := env.svc.StartSession(ctx, customer.UserID, models.StartSessionRequest{Specialization: "electricista"})
	require.NoError(t, err)
	_, err = env.svc.SelectTechnician(ctx, customer.UserID, started.SessionID, "tech-1")
	require.NoError(t, err)
	_, err = env.svc.SelectSlot(ctx, customer.UserID, started.SessionID, models.SelectSlotRequest{Date: "2026-10-20", Start: 540, Address: "x", PaymentMethod: "card"})
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, customer.UserID, started.SessionID)
	require.Error(t, err)

	overlap, err := env.bookings.HasOverlap(ctx, "tech-1", "2026-10-20", 540, 600)
	require.NoError(t, err)
	assert.False(t, overlap)

	list, _, err := env.bookings.List(ctx, models.BookingFilter{CustomerID: customer.UserID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusCancelled, list[0].Status)
	assert.Equal(t, models.PaymentStatusFailed, list[0].PaymentStatus)
}

func TestCardBookingReturnsClientSecret(t *testing.T) {
	env := newTestEnv(t)
	b := env.book(t, models.PaymentCard)
	assert.Equal(t, "pi_"+b.ID, b.PaymentRef)
	assert.Equal(t, models.PaymentCard, b.PaymentMethod)
}

func TestLifecycleToCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, models.PaymentCash)

	_, err := env.svc.ConfirmBooking(ctx, customer, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.svc.Start(ctx, techUser, b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	confirmed, err := env.svc.ConfirmBooking(ctx, techUser, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	require.Len(t, env.reminders.scheduled, 1)
	assert.Equal(t, b.ID, env.reminders.scheduled[0].BookingID)
	assert.Equal(t, "tech-user", env.reminders.scheduled[0].TechnicianID)

	_, err = env.svc.Start(ctx, techUser, b.ID)
	require.NoError(t, err)

	completed, err := env.svc.Complete(ctx, techUser, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.Equal(t, models.PaymentStatusPaid, completed.PaymentStatus)
	require.NotNil(t, completed.CompletedAt)
	assert.False(t, completed.HoldsSlot)
	require.Len(t, completed.History, 4)
	assert.Equal(t, models.StatusInProgress, completed.History[3].From)

	tech, err := env.techs.GetByID(ctx, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tech.CompletedJobs)
	assert.ElementsMatch(t, []awardCall{
		{customer.UserID, gamification.EventBookingCompleted, b.ID},
		{"tech-user", gamification.EventJobCompleted, b.ID},
	}, env.rewards.calls)

	_, err = env.svc.Cancel(ctx, admin, b.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancellationRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, models.PaymentCash)

	_, err := env.svc.Cancel(ctx, stranger, b.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.ConfirmBooking(ctx, techUser, b.ID)
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, techUser, b.ID)
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, customer, b.ID, "changed my mind")
	assert.ErrorIs(t, err, ErrForbidden, "only admins cancel work in progress")

	cancelled, err := env.svc.Cancel(ctx, admin, b.ID, "dispute")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "dispute", cancelled.CancelReason)
	assert.Equal(t, models.RoleAdmin, cancelled.CancelledBy)
	assert.Equal(t, models.PaymentStatusVoided, env.bookings.get(b.ID).PaymentStatus)
	assert.Equal(t, []string{b.ID}, env.payments.refunded)

	overlap, err := env.bookings.HasOverlap(ctx, "tech-1", b.Date, b.Start, b.End)
	require.NoError(t, err)
	assert.False(t, overlap)
}

func TestCustomerCancelNotifiesTechnician(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, models.PaymentCash)
	env.notifier.sent = nil

	_, err := env.svc.Cancel(ctx, customer, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"tech-user"}, env.notifier.recipients())
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, models.PaymentCash)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.ConfirmBooking(ctx, techUser, b.ID)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, ErrConcurrentUpdate) || errors.Is(err, ErrInvalidTransition), err.Error())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, env.reminders.scheduled, 1)
	assert.Len(t, env.bookings.get(b.ID).History, 2)
}

func TestGetAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.book(t, models.PaymentCash)

	for _, actor := range []models.Actor{customer, techUser, admin} {
		got, err := env.svc.Get(ctx, actor, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	}
	_, err := env.svc.Get(ctx, stranger, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.svc.Get(ctx, admin, "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	mine, total, err := env.svc.ListForCustomer(ctx, customer.UserID, "", models.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	jobs, _, err := env.svc.ListForTechnician(ctx, "tech-user", models.StatusPending, models.Page{})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	jobs, _, err = env.svc.ListForTechnician(ctx, "tech-user", models.StatusCompleted, models.Page{})
	require.NoError(t, err)
	assert.Empty(t, jobs)

	_, _, err = env.svc.ListForTechnician(ctx, customer.UserID, "", models.Page{})
	assert.Error(t, err)
}

func TestExpireStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale := &models.Booking{
		ID:            "stale",
		CustomerID:    customer.UserID,
		TechnicianID:  "tech-1",
		Date:          "2026-10-19",
		Start:         420,
		End:           480,
		StartsAt:      time.Date(2026, 10, 19, 7, 0, 0, 0, ast),
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentCash,
		PaymentStatus: models.PaymentStatusPending,
	}
	confirmed := &models.Booking{
		ID:           "confirmed",
		CustomerID:   customer.UserID,
		TechnicianID: "tech-1",
		Date:         "2026-10-19",
		Start:        360,
		End:          420,
		StartsAt:     time.Date(2026, 10, 19, 6, 0, 0, 0, ast),
		Status:       models.StatusConfirmed,
	}
	require.NoError(t, env.bookings.Create(ctx, stale))
	require.NoError(t, env.bookings.Create(ctx, confirmed))
	future := env.book(t, models.PaymentCash)

	n, err := env.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := env.bookings.get("stale")
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, RoleSystem, got.CancelledBy)
	assert.Equal(t, models.PaymentStatusVoided, got.PaymentStatus)
	assert.Equal(t, models.StatusConfirmed, env.bookings.get("confirmed").Status)
	assert.Equal(t, models.StatusPending, env.bookings.get(future.ID).Status)

	n, err = env.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
