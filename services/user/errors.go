package user

import (
	"errors"

	"tecnicosrd/utils"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("role must be customer or technician")
	ErrSessionExpired     = errors.New("session expired, please sign in again")
)

func invalid(field, message string) error {
	return utils.Invalid(field, message)
}
