// File: tecnicosrd/models/booking.go
package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "PENDING"
	StatusConfirmed  BookingStatus = "CONFIRMED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
)

// ActiveStatuses hold a technician's slot.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusInProgress}

// IsActive reports whether the status still reserves the slot.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Payment methods and states.
const (
	PaymentCash = "cash"
	PaymentCard = "card"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
	PaymentStatusFailed   = "failed"
	PaymentStatusVoided   = "voided"
)

// Booking is a scheduled engagement between a customer and a technician.
type Booking struct {
	ID             string         `bson:"id" json:"id"`
	CustomerID     string         `bson:"customerId" json:"customerId"`
	TechnicianID   string         `bson:"technicianId" json:"technicianId"`
	Specialization string         `bson:"specialization" json:"specialization"`
	Description    string         `bson:"description,omitempty" json:"description,omitempty"`
	Address        string         `bson:"address" json:"address"`
	Province       string         `bson:"province,omitempty" json:"province,omitempty"`
	City           string         `bson:"city,omitempty" json:"city,omitempty"`
	Date           string         `bson:"date" json:"date"`   // "YYYY-MM-DD"
	Start          int            `bson:"start" json:"start"` // minutes from midnight
	End            int            `bson:"end" json:"end"`
	StartsAt       time.Time      `bson:"startsAt" json:"startsAt"`
	Status         BookingStatus  `bson:"status" json:"status"`
	HoldsSlot      bool           `bson:"holdsSlot" json:"-"`
	Price          float64        `bson:"price" json:"price"`
	PlatformFee    float64        `bson:"platformFee" json:"platformFee"`
	Currency       string         `bson:"currency" json:"currency"`
	PaymentMethod  string         `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus  string         `bson:"paymentStatus" json:"paymentStatus"`
	PaymentRef     string         `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	CancelReason   string         `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CancelledBy    string         `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	Reviewed       bool           `bson:"reviewed" json:"reviewed"`
	History        []StatusChange `bson:"history" json:"history"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt" json:"updatedAt"`
	CompletedAt    *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// StatusChange records one transition of a booking.
type StatusChange struct {
	From BookingStatus `bson:"from" json:"from"`
	To   BookingStatus `bson:"to" json:"to"`
	By   string        `bson:"by" json:"by"`
	Role string        `bson:"role" json:"role"`
	Note string        `bson:"note,omitempty" json:"note,omitempty"`
	At   time.Time     `bson:"at" json:"at"`
}

// Overlaps reports whether the booking occupies any minute of [start, end) on date.
func (b Booking) Overlaps(date string, start, end int) bool {
	return b.Date == date && b.Start < end && start < b.End
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	CustomerID   string
	TechnicianID string
	Status       BookingStatus
	Page
}

// BookingSession holds the state of the multi-step booking flow between requests.
type BookingSession struct {
	SessionID      string        `json:"sessionId"`
	CustomerID     string        `json:"customerId"`
	Specialization string        `json:"specialization"`
	Province       string        `json:"province,omitempty"`
	City           string        `json:"city,omitempty"`
	Step           string        `json:"step"`
	Candidates     []string      `json:"candidates"`
	TechnicianID   string        `json:"technicianId,omitempty"`
	Slots          []Slot        `json:"slots,omitempty"`
	Draft          *BookingDraft `json:"draft,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// BookingDraft is the customer's chosen slot and details awaiting confirmation.
type BookingDraft struct {
	Date          string  `json:"date"`
	Start         int     `json:"start"`
	End           int     `json:"end"`
	Description   string  `json:"description"`
	Address       string  `json:"address"`
	PaymentMethod string  `json:"paymentMethod"`
	Price         float64 `json:"price"`
	PlatformFee   float64 `json:"platformFee"`
}

// StartSessionRequest is step one of the booking flow.
type StartSessionRequest struct {
	Specialization string `json:"specialization" binding:"required"`
	Province       string `json:"province"`
	City           string `json:"city"`
}

// SelectTechnicianRequest is step two of the booking flow.
type SelectTechnicianRequest struct {
	TechnicianID string `json:"technicianId" binding:"required"`
}

// SelectSlotRequest is step three of the booking flow.
type SelectSlotRequest struct {
	Date          string `json:"date" binding:"required"`
	Start         int    `json:"start"`
	Description   string `json:"description"`
	Address       string `json:"address" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

// BookingSessionResponse is returned by every step of the booking flow.
type BookingSessionResponse struct {
	SessionID   string        `json:"sessionId"`
	Step        string        `json:"step"`
	Technicians []Technician  `json:"technicians,omitempty"`
	Slots       []Slot        `json:"slots,omitempty"`
	Draft       *BookingDraft `json:"draft,omitempty"`
}

// ConfirmedBooking is returned once the booking flow completes.
type ConfirmedBooking struct {
	Booking      *Booking `json:"booking"`
	ClientSecret string   `json:"clientSecret,omitempty"`
}
