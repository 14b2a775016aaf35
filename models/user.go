// File: tecnicosrd/models/user.go
package models

import "time"

// Role values stored on User.Role.
const (
	RoleCustomer   = "customer"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

// User is a platform account. Technicians additionally own a Technician profile.
type User struct {
	ID           string    `bson:"id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PhoneNumber  string    `bson:"phoneNumber" json:"phoneNumber"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	ProfileImage string    `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Province     string    `bson:"province,omitempty" json:"province,omitempty"`
	City         string    `bson:"city,omitempty" json:"city,omitempty"`
	FCMToken     string    `bson:"fcmToken,omitempty" json:"-"`
	Sessions     []Session `bson:"sessions,omitempty" json:"sessions,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Safe returns a copy of the user without credential material.
func (u User) Safe() User {
	u.PasswordHash = ""
	u.FCMToken = ""
	sessions := make([]Session, len(u.Sessions))
	for i, s := range u.Sessions {
		s.TokenHash = ""
		sessions[i] = s
	}
	u.Sessions = sessions
	return u
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// UserRegistrationRequest is the payload of POST /api/auth/register.
type UserRegistrationRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Role        string `json:"role"`
	Province    string `json:"province"`
	City        string `json:"city"`
}

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	DeviceID string `json:"deviceId"`
}

// UserUpdateRequest carries a partial profile update; nil fields are left untouched.
type UserUpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	PhoneNumber  *string `json:"phoneNumber,omitempty"`
	Province     *string `json:"province,omitempty"`
	City         *string `json:"city,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
	FCMToken     *string `json:"fcmToken,omitempty"`
}

// UserListFilter narrows admin user listings.
type UserListFilter struct {
	Role  string
	Page  int
	Limit int
}
