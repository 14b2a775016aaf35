package models

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// ReminderPayload is the body of a booking reminder task.
type ReminderPayload struct {
	BookingID    string `json:"bookingId"`
	CustomerID   string `json:"customerId"`
	TechnicianID string `json:"technicianId"`
	// RecipientID is the one party this task notifies.
	RecipientID  string `json:"recipientId"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	FireDate     string `json:"fireDate"`
}

// Page is a generic paging request.
type Page struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Normalize clamps paging parameters to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	return p
}

// Skip returns the number of documents to skip for the page.
func (p Page) Skip() int64 {
	n := p.Normalize()
	return int64((n.Page - 1) * n.Limit)
}
