package user

import (
	"context"
	"time"

	userRepo "tecnicosrd/database/repository/user"
	"tecnicosrd/models"
	"tecnicosrd/services/gamification"
	"tecnicosrd/utils"
)

// UserService covers accounts and authentication.
type UserService interface {
	// Registration & authentication
	Register(ctx context.Context, req models.UserRegistrationRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, userID, deviceID string) error
	Authenticate(ctx context.Context, token string) (*utils.TokenClaims, error)

	// User management
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, req models.UserUpdateRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentDeviceID string) error
	Delete(ctx context.Context, userID string) error

	// Admin
	List(ctx context.Context, filter models.UserListFilter) ([]models.User, int64, error)
}

// Rewarder is the slice of the gamification service used on sign-up and deletion.
type Rewarder interface {
	EnsureProfile(ctx context.Context, user models.User) error
	Award(ctx context.Context, userID, event, refID string) (*gamification.AwardResult, error)
	RemoveProfile(ctx context.Context, userID string) error
}

// TechnicianProfiles is the slice of the technician store touched on deletion.
type TechnicianProfiles interface {
	GetByUserID(ctx context.Context, userID string) (*models.Technician, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo      userRepo.UserRepository
	AuthCache utils.JSONCache
	Rewards   Rewarder

	// Technicians is optional; when set, deleting an account deactivates its profile.
	Technicians TechnicianProfiles
	TokenTTL    time.Duration
}

// AuthResponse contains the user's ID, token, and additional details.
type AuthResponse struct {
	ID           string `json:"id"`
	Token        string `json:"token"`
	DeviceID     string `json:"deviceId"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	ExpiresAt    int64  `json:"expiresAt"`
}
