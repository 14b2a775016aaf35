package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tecnicosrd/database"
	bookingRepo "tecnicosrd/database/repository/booking"
	reviewRepo "tecnicosrd/database/repository/review"
	technicianRepo "tecnicosrd/database/repository/technician"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/services/notification"
	"tecnicosrd/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCommentLength = 1000

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("only the customer of the booking can review it")
	ErrNotCompleted    = errors.New("only completed bookings can be reviewed")
	ErrAlreadyReviewed = errors.New("booking has already been reviewed")
)

// ReviewService records customer reviews and keeps technician ratings current.
type ReviewService interface {
	Create(ctx context.Context, customerID, bookingID string, req models.ReviewRequest) (*models.Review, error)
	ListForTechnician(ctx context.Context, technicianID string, page models.Page) ([]models.Review, int64, error)
}

// Rewarder is the slice of the gamification service used for reviews.
type Rewarder interface {
	Award(ctx context.Context, userID, event, refID string) (*gamification.AwardResult, error)
}

// NameLookup resolves the reviewer's display name.
type NameLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type DefaultReviewService struct {
	Reviews     reviewRepo.ReviewRepository
	Bookings    bookingRepo.BookingRepository
	Technicians technicianRepo.TechnicianRepository
	Users       NameLookup
	Rewards     Rewarder
	Notifier    notification.NotificationService
}

func NewReviewService(
	reviews reviewRepo.ReviewRepository,
	bookings bookingRepo.BookingRepository,
	techs technicianRepo.TechnicianRepository,
	users NameLookup,
	rewards Rewarder,
	notifier notification.NotificationService,
) *DefaultReviewService {
	return &DefaultReviewService{
		Reviews:     reviews,
		Bookings:    bookings,
		Technicians: techs,
		Users:       users,
		Rewards:     rewards,
		Notifier:    notifier,
	}
}

// Create stores the single review allowed for a completed booking.
func (s *DefaultReviewService) Create(ctx context.Context, customerID, bookingID string, req models.ReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, utils.Invalid("rating", "rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, utils.Invalid("comment", fmt.Sprintf("comment must be at most %d characters", maxCommentLength))
	}

	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrForbidden
	}
	if b.Status != models.StatusCompleted {
		return nil, ErrNotCompleted
	}
	if b.Reviewed {
		return nil, ErrAlreadyReviewed
	}

	// claim the booking first so two concurrent reviews cannot both count
	if err := s.Bookings.MarkReviewed(ctx, b.ID); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to mark booking reviewed: %w", err)
	}

	r := &models.Review{
		ID:           uuid.New().String(),
		BookingID:    b.ID,
		CustomerID:   customerID,
		CustomerName: s.customerName(ctx, customerID),
		TechnicianID: b.TechnicianID,
		Rating:       req.Rating,
		Comment:      comment,
		CreatedAt:    time.Now(),
	}
	if err := s.Reviews.Create(ctx, r); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		utils.GetLogger().Error("review: failed to store review after claiming booking",
			zap.String("bookingID", b.ID), zap.Error(err))
		if relErr := s.Bookings.UnmarkReviewed(ctx, b.ID); relErr != nil {
			utils.GetLogger().Error("review: failed to release review claim",
				zap.String("bookingID", b.ID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to store review: %w", err)
	}

	t, err := s.Technicians.ApplyRating(ctx, b.TechnicianID, req.Rating)
	if err != nil {
		utils.GetLogger().Error("review: failed to update technician rating",
			zap.String("technicianID", b.TechnicianID), zap.Error(err))
	}

	s.award(ctx, customerID, gamification.EventReviewWritten, b.ID)
	if t != nil {
		if req.Rating == 5 {
			s.award(ctx, t.UserID, gamification.EventFiveStarReceived, b.ID)
		}
		s.notify(ctx, t.UserID, r)
	}

	utils.GetLogger().Info("review created",
		zap.String("bookingID", b.ID),
		zap.String("technicianID", b.TechnicianID),
		zap.Int("rating", req.Rating))
	return r, nil
}

func (s *DefaultReviewService) ListForTechnician(ctx context.Context, technicianID string, page models.Page) ([]models.Review, int64, error) {
	return s.Reviews.ListByTechnician(ctx, technicianID, page)
}

func (s *DefaultReviewService) customerName(ctx context.Context, id string) string {
	if s.Users == nil {
		return ""
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.Name
}

func (s *DefaultReviewService) award(ctx context.Context, userID, event, refID string) {
	if s.Rewards == nil || userID == "" {
		return
	}
	if _, err := s.Rewards.Award(ctx, userID, event, refID); err != nil {
		utils.GetLogger().Error("review: failed to award points",
			zap.String("userID", userID), zap.String("event", event), zap.Error(err))
	}
}

func (s *DefaultReviewService) notify(ctx context.Context, userID string, r *models.Review) {
	if s.Notifier == nil || userID == "" {
		return
	}
	err := s.Notifier.NotifyUser(ctx, models.Notification{
		UserID:    userID,
		Type:      "review_received",
		Title:     "Nueva reseña",
		Body:      fmt.Sprintf("Recibiste una calificación de %d estrellas.", r.Rating),
		Data:      map[string]string{"bookingId": r.BookingID, "reviewId": r.ID},
		CreatedAt: r.CreatedAt,
	})
	if err != nil {
		utils.GetLogger().Warn("review: failed to notify technician", zap.String("userID", userID), zap.Error(err))
	}
}
