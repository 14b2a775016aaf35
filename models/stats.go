package models

import "time"

// AdminStats is the admin dashboard payload.
type AdminStats struct {
	From                time.Time               `json:"from"`
	To                  time.Time               `json:"to"`
	TotalUsers          int64                   `json:"totalUsers"`
	TotalCustomers      int64                   `json:"totalCustomers"`
	TotalTechnicians    int64                   `json:"totalTechnicians"`
	VerifiedTechnicians int64                   `json:"verifiedTechnicians"`
	NewUsers            int64                   `json:"newUsers"`
	BookingsByStatus    map[BookingStatus]int64 `json:"bookingsByStatus"`
	TotalBookings       int64                   `json:"totalBookings"`
	CompletedBookings   int64                   `json:"completedBookings"`
	CancelledBookings   int64                   `json:"cancelledBookings"`
	CompletionRate      float64                 `json:"completionRate"`
	GrossRevenue        float64                 `json:"grossRevenue"`
	PlatformRevenue     float64                 `json:"platformRevenue"`
	AverageTicket       float64                 `json:"averageTicket"`
	AverageRating       float64                 `json:"averageRating"`
	Currency            string                  `json:"currency"`
	TopTechnicians      []TechnicianSummary     `json:"topTechnicians"`
	DailyBookings       []DailyCount            `json:"dailyBookings"`
	GeneratedAt         time.Time               `json:"generatedAt"`
}

// TechnicianSummary is a compact technician row for rankings.
type TechnicianSummary struct {
	ID            string  `bson:"id" json:"id"`
	DisplayName   string  `bson:"displayName" json:"displayName"`
	CompletedJobs int     `bson:"completedJobs" json:"completedJobs"`
	Rating        float64 `bson:"rating" json:"rating"`
	Revenue       float64 `bson:"revenue" json:"revenue"`
}

// DailyCount is the number of bookings created on one day and their completed revenue.
type DailyCount struct {
	Date    string  `bson:"_id" json:"date"`
	Count   int64   `bson:"count" json:"count"`
	Revenue float64 `bson:"revenue" json:"revenue"`
}

// BookingTotals is the raw aggregation result the dashboard derives metrics from.
type BookingTotals struct {
	ByStatus        map[BookingStatus]int64
	GrossRevenue    float64
	PlatformRevenue float64
}
