package repository

import (
	bookingRepo "tecnicosrd/database/repository/booking"
	gamificationRepo "tecnicosrd/database/repository/gamification"
	reviewRepo "tecnicosrd/database/repository/review"
	statsRepo "tecnicosrd/database/repository/stats"
	technicianRepo "tecnicosrd/database/repository/technician"
	userRepo "tecnicosrd/database/repository/user"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces and constructors.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepo = userRepo.NewMongoUserRepo

type TechnicianRepository = technicianRepo.TechnicianRepository

var NewMongoTechnicianRepo = technicianRepo.NewMongoTechnicianRepo

type BookingRepository = bookingRepo.BookingRepository

type TransitionUpdate = bookingRepo.TransitionUpdate

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

type ReviewRepository = reviewRepo.ReviewRepository

var NewMongoReviewRepo = reviewRepo.NewMongoReviewRepo

type GamificationRepository = gamificationRepo.GamificationRepository

var NewMongoGamificationRepo = gamificationRepo.NewMongoGamificationRepo

type StatsRepository = statsRepo.StatsRepository

var NewMongoStatsRepo = statsRepo.NewMongoStatsRepo

// Repositories bundles every repository built over one database.
type Repositories struct {
	Users        UserRepository
	Technicians  TechnicianRepository
	Bookings     BookingRepository
	Reviews      ReviewRepository
	Gamification GamificationRepository
	Stats        StatsRepository
}

// NewRepositories builds all Mongo repositories, creating their indexes.
func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:        NewMongoUserRepo(db),
		Technicians:  NewMongoTechnicianRepo(db),
		Bookings:     NewMongoBookingRepo(db),
		Reviews:      NewMongoReviewRepo(db),
		Gamification: NewMongoGamificationRepo(db),
		Stats:        NewMongoStatsRepo(db),
	}
}
