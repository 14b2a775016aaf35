package technician

import (
	"context"
	"io"

	technicianRepo "tecnicosrd/database/repository/technician"
	"tecnicosrd/models"
	"tecnicosrd/services/storage"
)

// TechnicianService manages technician profiles, availability and verification.
type TechnicianService interface {
	CreateProfile(ctx context.Context, userID string, req models.TechnicianRequest) (*models.Technician, error)
	Get(ctx context.Context, id string) (*models.Technician, error)
	GetByUser(ctx context.Context, userID string) (*models.Technician, error)
	Update(ctx context.Context, actor models.Actor, id string, req models.TechnicianRequest) (*models.Technician, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	Search(ctx context.Context, criteria models.TechnicianSearchCriteria) ([]models.Technician, int64, error)

	Availability(ctx context.Context, id string) ([]models.AvailabilityWindow, error)
	SetAvailability(ctx context.Context, actor models.Actor, id string, windows []models.AvailabilityWindow) (*models.Technician, error)

	Verify(ctx context.Context, id string, approve bool) (*models.Technician, error)
	UploadProfileImage(ctx context.Context, actor models.Actor, id string, file io.Reader) (*models.Technician, error)
	Specializations() []models.Specialization
}

// AccountLookup resolves the owning user account.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// DefaultTechnicianService is the production implementation.
type DefaultTechnicianService struct {
	Repo    technicianRepo.TechnicianRepository
	Users   AccountLookup
	Storage storage.StorageService
}

func NewTechnicianService(repo technicianRepo.TechnicianRepository, users AccountLookup, store storage.StorageService) *DefaultTechnicianService {
	return &DefaultTechnicianService{Repo: repo, Users: users, Storage: store}
}
