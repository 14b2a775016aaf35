package technician

import "errors"

var (
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrProfileExists      = errors.New("technician profile already exists for this user")
	ErrNotTechnician      = errors.New("only technician accounts can own a technician profile")
	ErrForbidden          = errors.New("not allowed to modify this technician")
)
