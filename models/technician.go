// File: tecnicosrd/models/technician.go
package models

import (
	"math"
	"time"
)

// Verification states of a technician profile.
const (
	VerificationUnverified = "unverified"
	VerificationPending    = "pending"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
)

// Technician is the service-provider profile linked to a user account.
type Technician struct {
	ID                 string               `bson:"id" json:"id"`
	UserID             string               `bson:"userId" json:"userId"`
	DisplayName        string               `bson:"displayName" json:"displayName"`
	Bio                string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Specializations    []string             `bson:"specializations" json:"specializations"`
	Province           string               `bson:"province" json:"province"`
	City               string               `bson:"city" json:"city"`
	Location           *GeoPoint            `bson:"location,omitempty" json:"location,omitempty"`
	HourlyRate         float64              `bson:"hourlyRate" json:"hourlyRate"`
	YearsExperience    int                  `bson:"yearsExperience" json:"yearsExperience"`
	Rating             float64              `bson:"rating" json:"rating"`
	RatingSum          int                  `bson:"ratingSum" json:"-"`
	ReviewCount        int                  `bson:"reviewCount" json:"reviewCount"`
	CompletedJobs      int                  `bson:"completedJobs" json:"completedJobs"`
	Verified           bool                 `bson:"verified" json:"verified"`
	VerificationStatus string               `bson:"verificationStatus" json:"verificationStatus"`
	Availability       []AvailabilityWindow `bson:"availability" json:"availability"`
	ProfileImage       string               `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Active             bool                 `bson:"active" json:"active"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// RatingDecimals is the precision of the displayed mean rating.
const RatingDecimals = 2

// MeanRating derives the displayed mean from the exact sum; 0 without reviews.
func MeanRating(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	scale := math.Pow10(RatingDecimals)
	return math.Round(float64(sum)/float64(count)*scale) / scale
}

// AddRating folds one rating into the stored sum and count.
func (t *Technician) AddRating(rating int) {
	t.RatingSum += rating
	t.ReviewCount++
	t.Rating = MeanRating(t.RatingSum, t.ReviewCount)
}

// TechnicianRequest is the create/update payload for a technician profile.
type TechnicianRequest struct {
	DisplayName     string    `json:"displayName"`
	Bio             string    `json:"bio"`
	Specializations []string  `json:"specializations"`
	Province        string    `json:"province"`
	City            string    `json:"city"`
	Location        *GeoPoint `json:"location,omitempty"`
	HourlyRate      float64   `json:"hourlyRate"`
	YearsExperience int       `json:"yearsExperience"`
	Active          *bool     `json:"active,omitempty"`
}

// TechnicianSearchCriteria holds the filters accepted by GET /api/technicians.
type TechnicianSearchCriteria struct {
	Specialization string  `form:"specialization"`
	Province       string  `form:"province"`
	City           string  `form:"city"`
	MinRating      float64 `form:"minRating"`
	VerifiedOnly   bool    `form:"verified"`
	Query          string  `form:"q"`
	// OnlyBookable restricts results to active technicians that published availability.
	OnlyBookable bool `form:"-"`
	Page
}

// Specialization is an entry of the service catalog.
type Specialization struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}
