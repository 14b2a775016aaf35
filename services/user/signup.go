package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Register validates the payload and creates a customer or technician account.
func (s *DefaultUserService) Register(ctx context.Context, req models.UserRegistrationRequest) (*models.User, error) {
	logger := utils.GetLogger()

	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, invalid("name", "name is required")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, invalid("email", err.Error())
	}
	phone, err := NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, invalid("phoneNumber", err.Error())
	}
	if err := VerifyPasswordComplexity(req.Password); err != nil {
		return nil, invalid("password", err.Error())
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleTechnician {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Register: failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PhoneNumber:  phone,
		PasswordHash: string(hashed),
		Role:         role,
		Province:     strings.TrimSpace(req.Province),
		City:         strings.TrimSpace(req.City),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		logger.Error("Register: failed to create user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	if s.Rewards != nil {
		if err := s.Rewards.EnsureProfile(ctx, *user); err != nil {
			logger.Warn("Register: gamification profile not created", zap.String("userID", user.ID), zap.Error(err))
		} else if _, err := s.Rewards.Award(ctx, user.ID, gamification.EventSignup, user.ID); err != nil {
			logger.Warn("Register: signup points not awarded", zap.String("userID", user.ID), zap.Error(err))
		}
	}

	logger.Info("user registered", zap.String("userID", user.ID), zap.String("role", role))
	safe := user.Safe()
	return &safe, nil
}
