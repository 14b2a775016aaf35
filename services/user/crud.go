package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (s *DefaultUserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	safe := user.Safe()
	return &safe, nil
}

// Update applies the non-nil fields of req.
func (s *DefaultUserService) Update(ctx context.Context, userID string, req models.UserUpdateRequest) (*models.User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			return nil, invalid("name", "name is required")
		}
		user.Name = name
	}
	if req.PhoneNumber != nil {
		phone, err := NormalizePhone(*req.PhoneNumber)
		if err != nil {
			return nil, invalid("phoneNumber", err.Error())
		}
		user.PhoneNumber = phone
	}
	if req.Province != nil {
		user.Province = strings.TrimSpace(*req.Province)
	}
	if req.City != nil {
		user.City = strings.TrimSpace(*req.City)
	}
	if req.ProfileImage != nil {
		user.ProfileImage = *req.ProfileImage
	}
	if req.FCMToken != nil {
		user.FCMToken = *req.FCMToken
	}

	stored, err := s.Repo.UpdateProfile(ctx, user)
	if err != nil {
		utils.GetLogger().Error("Update: failed to save user", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	safe := stored.Safe()
	return &safe, nil
}

// ChangePassword verifies the current password and signs out every other device.
func (s *DefaultUserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentDeviceID string) error {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if err := VerifyPasswordComplexity(newPassword); err != nil {
		return invalid("newPassword", err.Error())
	}
	if currentPassword == newPassword {
		return invalid("newPassword", "new password must differ from the current one")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Repo.SetPassword(ctx, userID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	removed, err := s.Repo.RemoveSessions(ctx, userID, currentDeviceID)
	if err != nil {
		utils.GetLogger().Error("ChangePassword: failed to sign out other devices", zap.String("userID", userID), zap.Error(err))
		return nil
	}
	s.evict(ctx, userID, removed...)
	return nil
}

// Delete removes the account, revokes every session and retires what the
// other domains keep for it.
func (s *DefaultUserService) Delete(ctx context.Context, userID string) error {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if err := s.Repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	devices := make([]string, 0, len(user.Sessions))
	for _, sess := range user.Sessions {
		devices = append(devices, sess.DeviceID)
	}
	s.evict(ctx, userID, devices...)
	s.retireTechnicianProfile(ctx, userID)
	if s.Rewards != nil {
		if err := s.Rewards.RemoveProfile(ctx, userID); err != nil {
			utils.GetLogger().Error("Delete: failed to remove gamification profile", zap.String("userID", userID), zap.Error(err))
		}
	}
	utils.GetLogger().Info("user deleted", zap.String("userID", userID))
	return nil
}

// retireTechnicianProfile deactivates the profile so it is never matched again.
// The document stays because bookings and reviews point at it.
func (s *DefaultUserService) retireTechnicianProfile(ctx context.Context, userID string) {
	if s.Technicians == nil {
		return
	}
	t, err := s.Technicians.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			utils.GetLogger().Error("Delete: failed to load technician profile", zap.String("userID", userID), zap.Error(err))
		}
		return
	}
	if err := s.Technicians.SetActive(ctx, t.ID, false); err != nil {
		utils.GetLogger().Error("Delete: failed to deactivate technician profile",
			zap.String("userID", userID), zap.String("technicianID", t.ID), zap.Error(err))
	}
}

func (s *DefaultUserService) List(ctx context.Context, filter models.UserListFilter) ([]models.User, int64, error) {
	users, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i] = users[i].Safe()
	}
	return users, total, nil
}
