package technicianRepo

import (
	"context"

	"tecnicosrd/models"
)

// TechnicianRepository defines methods for technician profile access.
type TechnicianRepository interface {
	Create(ctx context.Context, t *models.Technician) error
	GetByID(ctx context.Context, id string) (*models.Technician, error)
	GetByUserID(ctx context.Context, userID string) (*models.Technician, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Technician, error)
	// UpdateProfile sets the editable profile fields of t; counters, availability,
	// verification and the image are left as stored.
	UpdateProfile(ctx context.Context, t *models.Technician) (*models.Technician, error)
	SetAvailability(ctx context.Context, id string, windows []models.AvailabilityWindow) (*models.Technician, error)
	SetVerification(ctx context.Context, id string, verified bool, status string) (*models.Technician, error)
	SetProfileImage(ctx context.Context, id, url string) (*models.Technician, error)
	// SetActive hides or shows the profile in search and matching.
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	// Search returns one page of matches, verified and best rated first.
	Search(ctx context.Context, criteria models.TechnicianSearchCriteria) ([]models.Technician, int64, error)
	// IncrementCompletedJobs atomically bumps the completed jobs counter.
	IncrementCompletedJobs(ctx context.Context, id string, delta int) error
	// ApplyRating adds one rating to the stored sum and count and derives the mean from them.
	ApplyRating(ctx context.Context, id string, rating int) (*models.Technician, error)
}
