package review

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"tecnicosrd/database"
	bookingRepo "tecnicosrd/database/repository/booking"
	technicianRepo "tecnicosrd/database/repository/technician"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Only the methods used by the review service are implemented; the embedded
// interfaces panic if anything else is called.

type fakeBookings struct {
	bookingRepo.BookingRepository
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookings) MarkReviewed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.bookings[id]
	if b.Reviewed {
		return database.ErrConflict
	}
	b.Reviewed = true
	f.bookings[id] = b
	return nil
}

func (f *fakeBookings) UnmarkReviewed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.bookings[id]
	b.Reviewed = false
	f.bookings[id] = b
	return nil
}

type fakeTechnicians struct {
	technicianRepo.TechnicianRepository
	mu   sync.Mutex
	tech models.Technician
}

func (f *fakeTechnicians) ApplyRating(_ context.Context, id string, rating int) (*models.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.tech.ID {
		return nil, database.ErrNotFound
	}
	f.tech.AddRating(rating)
	cp := f.tech
	return &cp, nil
}

type memoryReviews struct {
	mu      sync.Mutex
	reviews []models.Review
	// failNext makes the next Create fail with a transient error
	failNext bool
}

func (m *memoryReviews) Create(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("mongo: transient write error")
	}
	for _, existing := range m.reviews {
		if existing.BookingID == r.BookingID {
			return database.ErrDuplicate
		}
	}
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *memoryReviews) ListByTechnician(_ context.Context, technicianID string, _ models.Page) ([]models.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Review
	for _, r := range m.reviews {
		if r.TechnicianID == technicianID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

type stubUsers map[string]models.User

func (s stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &u, nil
}

type fakeRewards struct {
	mu     sync.Mutex
	events map[string][]string
}

func (f *fakeRewards) Award(_ context.Context, userID, event, _ string) (*gamification.AwardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[userID] = append(f.events[userID], event)
	return &gamification.AwardResult{}, nil
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (c *countingNotifier) NotifyUser(context.Context, models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

type testEnv struct {
	svc      *DefaultReviewService
	bookings *fakeBookings
	techs    *fakeTechnicians
	reviews  *memoryReviews
	rewards  *fakeRewards
	notifier *countingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.SetLogger(zap.NewNop())
	env := &testEnv{
		bookings: &fakeBookings{bookings: map[string]models.Booking{
			"done":    {ID: "done", CustomerID: "cust", TechnicianID: "tech-1", Status: models.StatusCompleted},
			"done-2":  {ID: "done-2", CustomerID: "cust", TechnicianID: "tech-1", Status: models.StatusCompleted},
			"pending": {ID: "pending", CustomerID: "cust", TechnicianID: "tech-1", Status: models.StatusPending},
		}},
		techs:    &fakeTechnicians{tech: models.Technician{ID: "tech-1", UserID: "tech-user", Rating: 4, RatingSum: 4, ReviewCount: 1}},
		reviews:  &memoryReviews{},
		rewards:  &fakeRewards{events: map[string][]string{}},
		notifier: &countingNotifier{},
	}
	users := stubUsers{"cust": {ID: "cust", Name: "María"}}
	env.svc = NewReviewService(env.reviews, env.bookings, env.techs, users, env.rewards, env.notifier)
	return env
}

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	r, err := env.svc.Create(ctx, "cust", "done", models.ReviewRequest{Rating: 5, Comment: "  Excelente trabajo  "})
	require.NoError(t, err)
	assert.Equal(t, "Excelente trabajo", r.Comment)
	assert.Equal(t, "María", r.CustomerName)
	assert.Equal(t, "tech-1", r.TechnicianID)

	assert.Equal(t, 4.5, env.techs.tech.Rating)
	assert.Equal(t, 2, env.techs.tech.ReviewCount)
	assert.Equal(t, []string{gamification.EventReviewWritten}, env.rewards.events["cust"])
	assert.Equal(t, []string{gamification.EventFiveStarReceived}, env.rewards.events["tech-user"])
	assert.Equal(t, 1, env.notifier.count)

	_, err = env.svc.Create(ctx, "cust", "done", models.ReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	list, total, err := env.svc.ListForTechnician(ctx, "tech-1", models.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}

func TestCreateReviewWithoutFiveStars(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), "cust", "done", models.ReviewRequest{Rating: 3})
	require.NoError(t, err)
	assert.Empty(t, env.rewards.events["tech-user"])
	assert.Equal(t, 3.5, env.techs.tech.Rating)
}

func TestCreateReviewRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var vErr *utils.ValidationError
	for _, rating := range []int{0, 6, -1} {
		_, err := env.svc.Create(ctx, "cust", "done", models.ReviewRequest{Rating: rating})
		require.True(t, errors.As(err, &vErr), "rating %d", rating)
		assert.Equal(t, "rating", vErr.Field)
	}
	_, err := env.svc.Create(ctx, "cust", "done", models.ReviewRequest{Rating: 4, Comment: strings.Repeat("a", maxCommentLength+1)})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "comment", vErr.Field)

	_, err = env.svc.Create(ctx, "cust", "missing", models.ReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrBookingNotFound)
	_, err = env.svc.Create(ctx, "intruder", "done", models.ReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.svc.Create(ctx, "cust", "pending", models.ReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrNotCompleted)

	assert.Empty(t, env.reviews.reviews)
	assert.Equal(t, 1, env.techs.tech.ReviewCount)
}

func TestCreateReviewRetryAfterStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reviews.failNext = true
	_, err := env.svc.Create(ctx, "cust", "done", models.ReviewRequest{Rating: 4})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyReviewed)
	assert.False(t, env.bookings.bookings["done"].Reviewed)
	assert.Equal(t, 1, env.techs.tech.ReviewCount)

	r, err := env.svc.Create(ctx, "cust", "done", models.ReviewRequest{Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Rating)
	assert.True(t, env.bookings.bookings["done"].Reviewed)
	assert.Len(t, env.reviews.reviews, 1)
	assert.Equal(t, 2, env.techs.tech.ReviewCount)
}

func TestConcurrentReviewsCountOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Create(ctx, "cust", "done-2", models.ReviewRequest{Rating: 5})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, env.techs.tech.ReviewCount)
}
