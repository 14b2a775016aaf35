package technician

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProfile attaches a technician profile to a technician account.
func (s *DefaultTechnicianService) CreateProfile(ctx context.Context, userID string, req models.TechnicianRequest) (*models.Technician, error) {
	account, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account.Role != models.RoleTechnician {
		return nil, ErrNotTechnician
	}
	if _, err := s.Repo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	t := &models.Technician{
		ID:                 uuid.New().String(),
		UserID:             userID,
		VerificationStatus: models.VerificationPending,
		Active:             true,
		Availability:       []models.AvailabilityWindow{},
		ProfileImage:       account.ProfileImage,
	}
	if req.DisplayName == "" {
		req.DisplayName = account.Name
	}
	if req.Province == "" {
		req.Province = account.Province
	}
	if req.City == "" {
		req.City = account.City
	}
	if err := apply(t, req); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, t); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrProfileExists
		}
		utils.GetLogger().Error("CreateProfile: failed to insert technician", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create technician profile: %w", err)
	}
	utils.GetLogger().Info("technician profile created", zap.String("technicianID", t.ID), zap.Strings("specializations", t.Specializations))
	return t, nil
}

// apply validates req and copies it onto t.
func apply(t *models.Technician, req models.TechnicianRequest) error {
	name := strings.TrimSpace(req.DisplayName)
	if len(name) < 2 {
		return utils.Invalid("displayName", "display name is required")
	}
	if len(req.Specializations) == 0 {
		return utils.Invalid("specializations", "at least one specialization is required")
	}
	specs := make([]string, 0, len(req.Specializations))
	seen := map[string]bool{}
	for _, raw := range req.Specializations {
		code := strings.ToLower(strings.TrimSpace(raw))
		if !IsSpecialization(code) {
			return utils.Invalid("specializations", fmt.Sprintf("unknown specialization %q", raw))
		}
		if !seen[code] {
			seen[code] = true
			specs = append(specs, code)
		}
	}
	if strings.TrimSpace(req.Province) == "" {
		return utils.Invalid("province", "province is required")
	}
	if req.HourlyRate <= 0 {
		return utils.Invalid("hourlyRate", "hourly rate must be positive")
	}
	if req.YearsExperience < 0 {
		return utils.Invalid("yearsExperience", "years of experience cannot be negative")
	}
	if req.Location != nil {
		if len(req.Location.Coordinates) != 2 {
			return utils.Invalid("location", "coordinates must be [longitude, latitude]")
		}
		req.Location.Type = "Point"
	}

	t.DisplayName = name
	t.Bio = strings.TrimSpace(req.Bio)
	t.Specializations = specs
	t.Province = strings.TrimSpace(req.Province)
	t.City = strings.TrimSpace(req.City)
	t.Location = req.Location
	t.HourlyRate = req.HourlyRate
	t.YearsExperience = req.YearsExperience
	if req.Active != nil {
		t.Active = *req.Active
	}
	return nil
}

func (s *DefaultTechnicianService) Get(ctx context.Context, id string) (*models.Technician, error) {
	t, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTechnicianNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *DefaultTechnicianService) GetByUser(ctx context.Context, userID string) (*models.Technician, error) {
	t, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTechnicianNotFound
		}
		return nil, err
	}
	return t, nil
}

// owned loads the technician and checks the actor may modify it.
func (s *DefaultTechnicianService) owned(ctx context.Context, actor models.Actor, id string) (*models.Technician, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && t.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return t, nil
}

func (s *DefaultTechnicianService) Update(ctx context.Context, actor models.Actor, id string, req models.TechnicianRequest) (*models.Technician, error) {
	t, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := apply(t, req); err != nil {
		return nil, err
	}
	updated, err := s.Repo.UpdateProfile(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to update technician: %w", err)
	}
	return updated, nil
}

func (s *DefaultTechnicianService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrTechnicianNotFound
		}
		return err
	}
	utils.GetLogger().Info("technician deleted", zap.String("technicianID", id), zap.String("by", actor.UserID))
	return nil
}

func (s *DefaultTechnicianService) Search(ctx context.Context, criteria models.TechnicianSearchCriteria) ([]models.Technician, int64, error) {
	if criteria.Specialization != "" && !IsSpecialization(criteria.Specialization) {
		return nil, 0, utils.Invalid("specialization", "unknown specialization")
	}
	if criteria.MinRating < 0 || criteria.MinRating > 5 {
		return nil, 0, utils.Invalid("minRating", "must be between 0 and 5")
	}
	return s.Repo.Search(ctx, criteria)
}

func (s *DefaultTechnicianService) Availability(ctx context.Context, id string) ([]models.AvailabilityWindow, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Availability, nil
}

// SetAvailability replaces every weekly window of the technician.
func (s *DefaultTechnicianService) SetAvailability(ctx context.Context, actor models.Actor, id string, windows []models.AvailabilityWindow) (*models.Technician, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	sorted, err := ValidateWindows(windows)
	if err != nil {
		return nil, err
	}
	t, err := s.Repo.SetAvailability(ctx, id, sorted)
	if err != nil {
		return nil, fmt.Errorf("failed to save availability: %w", err)
	}
	return t, nil
}

// Verify records the admin decision on a technician.
func (s *DefaultTechnicianService) Verify(ctx context.Context, id string, approve bool) (*models.Technician, error) {
	status := models.VerificationRejected
	if approve {
		status = models.VerificationVerified
	}
	t, err := s.Repo.SetVerification(ctx, id, approve, status)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTechnicianNotFound
		}
		return nil, fmt.Errorf("failed to save verification: %w", err)
	}
	utils.GetLogger().Info("technician verification decided", zap.String("technicianID", id), zap.Bool("approved", approve))
	return t, nil
}

func (s *DefaultTechnicianService) UploadProfileImage(ctx context.Context, actor models.Actor, id string, file io.Reader) (*models.Technician, error) {
	t, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	img, err := s.Storage.UploadImage(ctx, file, "technicians", t.ID)
	if err != nil {
		return nil, err
	}
	t, err = s.Repo.SetProfileImage(ctx, t.ID, img.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile image: %w", err)
	}
	return t, nil
}
