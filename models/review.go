package models

import "time"

// Review is a customer's rating of a completed booking.
type Review struct {
	ID           string    `bson:"id" json:"id"`
	BookingID    string    `bson:"bookingId" json:"bookingId"`
	CustomerID   string    `bson:"customerId" json:"customerId"`
	CustomerName string    `bson:"customerName,omitempty" json:"customerName,omitempty"`
	TechnicianID string    `bson:"technicianId" json:"technicianId"`
	Rating       int       `bson:"rating" json:"rating"` // 1..5
	Comment      string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// ReviewRequest is the payload of POST /api/bookings/:id/review.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}
