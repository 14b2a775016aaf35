package handlers

import "tecnicosrd/middleware"

// HandlerBundle groups every handler the router mounts.
type HandlerBundle struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Technicians  *TechnicianHandler
	Bookings     *BookingHandler
	Gamification *GamificationHandler
	Admin        *AdminHandler

	// Authenticator validates bearer tokens for the protected groups.
	Authenticator middleware.Authenticator
	AdminToken    string
}
