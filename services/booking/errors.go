package booking

import "errors"

var (
	ErrSessionNotFound      = errors.New("booking session not found or expired")
	ErrInvalidStep          = errors.New("booking session is not at this step")
	ErrNoTechnicians        = errors.New("no technicians available for this service")
	ErrTechnicianNotOffered = errors.New("technician is not part of this session")
	ErrSlotUnavailable      = errors.New("slot is no longer available")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidTransition    = errors.New("invalid booking status transition")
	ErrConcurrentUpdate     = errors.New("booking was modified concurrently")
	ErrForbidden            = errors.New("not allowed to act on this booking")
	ErrSelfBooking          = errors.New("technicians cannot book their own profile")
)
