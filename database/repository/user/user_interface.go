package userRepo

import (
	"context"

	"tecnicosrd/models"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// Create inserts a new user record. Duplicate emails yield database.ErrDuplicate.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail retrieves a user by its email address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateProfile sets the self-service profile fields of user and returns the
	// stored document. Credentials and sessions are never written.
	UpdateProfile(ctx context.Context, user *models.User) (*models.User, error)
	// SetPassword stores a new password hash.
	SetPassword(ctx context.Context, id, passwordHash string) error
	// Delete removes a user record by its ID.
	Delete(ctx context.Context, id string) error
	// List returns a page of users and the total matching count.
	List(ctx context.Context, filter models.UserListFilter) ([]models.User, int64, error)
	// SaveSession upserts the device session of a user.
	SaveSession(ctx context.Context, userID string, session models.Session) error
	// RemoveSession drops the session of one device.
	RemoveSession(ctx context.Context, userID, deviceID string) error
	// RemoveSessions drops every session except keepDeviceID (empty drops all) and
	// returns the removed device IDs.
	RemoveSessions(ctx context.Context, userID, keepDeviceID string) ([]string, error)
}
