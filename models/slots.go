// File: tecnicosrd/models/slots.go
package models

// AvailabilityWindow is a recurring weekly range a technician accepts work in.
type AvailabilityWindow struct {
	Weekday int `bson:"weekday" json:"weekday"` // 0 = Sunday ... 6 = Saturday
	Start   int `bson:"start" json:"start"`     // minutes from midnight (e.g., 480 for 8:00 AM)
	End     int `bson:"end" json:"end"`         // minutes from midnight, exclusive
}

// Slot is a concrete bookable interval derived from availability windows.
type Slot struct {
	Date      string `json:"date"` // "YYYY-MM-DD"
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Available bool   `json:"available"`
}

// SetAvailabilityRequest defines the payload for replacing a technician's windows.
type SetAvailabilityRequest struct {
	Windows []AvailabilityWindow `json:"windows"`
}
