package gamification

import (
	"math"

	"tecnicosrd/models"
)

// Award events.
const (
	EventSignup           = "signup"
	EventBookingCompleted = "booking_completed"
	EventJobCompleted     = "job_completed"
	EventReviewWritten    = "review_written"
	EventFiveStarReceived = "five_star_received"

	reasonAchievement = "achievement"
	reasonRedeem      = "redeem"
)

// Profile counters.
const (
	CounterBookings = "bookings"
	CounterJobs     = "jobs"
	CounterReviews  = "reviews"
	CounterFiveStar = "five_star"
)

// PointsFor is the points table per event.
var PointsFor = map[string]int{
	EventSignup:           50,
	EventBookingCompleted: 100,
	EventJobCompleted:     150,
	EventReviewWritten:    25,
	EventFiveStarReceived: 40,
}

// countersFor lists the counters an event bumps.
func countersFor(event string) map[string]int {
	switch event {
	case EventBookingCompleted:
		return map[string]int{CounterBookings: 1}
	case EventJobCompleted:
		return map[string]int{CounterJobs: 1}
	case EventReviewWritten:
		return map[string]int{CounterReviews: 1}
	case EventFiveStarReceived:
		return map[string]int{CounterFiveStar: 1}
	}
	return nil
}

// Levels ordered by ascending threshold of lifetime points.
var Levels = []models.Level{
	{Name: "Bronce", MinPoints: 0},
	{Name: "Plata", MinPoints: 500},
	{Name: "Oro", MinPoints: 1500},
	{Name: "Platino", MinPoints: 4000},
	{Name: "Diamante", MinPoints: 10000},
}

// Achievements is the catalog of one-time threshold awards.
var Achievements = []models.Achievement{
	{Code: "first_booking", Name: "Primera reserva", Description: "Completa tu primera reserva", Counter: CounterBookings, Threshold: 1, BonusPoints: 20},
	{Code: "loyal_customer", Name: "Cliente fiel", Description: "Completa 10 reservas", Counter: CounterBookings, Threshold: 10, BonusPoints: 200},
	{Code: "first_job", Name: "Primer trabajo", Description: "Completa tu primer trabajo", Counter: CounterJobs, Threshold: 1, BonusPoints: 30},
	{Code: "pro_technician", Name: "Técnico profesional", Description: "Completa 25 trabajos", Counter: CounterJobs, Threshold: 25, BonusPoints: 300},
	{Code: "master_technician", Name: "Maestro técnico", Description: "Completa 100 trabajos", Counter: CounterJobs, Threshold: 100, BonusPoints: 1000},
	{Code: "critic", Name: "Crítico", Description: "Escribe 5 reseñas", Counter: CounterReviews, Threshold: 5, BonusPoints: 100},
	{Code: "five_star", Name: "Cinco estrellas", Description: "Recibe 10 reseñas de 5 estrellas", Counter: CounterFiveStar, Threshold: 10, BonusPoints: 250},
}

// LevelFor returns the highest level reached with the given lifetime points.
func LevelFor(points int) models.Level {
	current := Levels[0]
	for _, l := range Levels {
		if points >= l.MinPoints {
			current = l
		}
	}
	return current
}

// NextLevel returns the level after the one reached, or nil at the top.
func NextLevel(points int) *models.Level {
	for _, l := range Levels {
		if points < l.MinPoints {
			next := l
			return &next
		}
	}
	return nil
}

// Progress describes the position between the current and the next level.
func Progress(points int) models.LevelProgress {
	current := LevelFor(points)
	next := NextLevel(points)
	p := models.LevelProgress{Current: current, Next: next, ProgressPercent: 100}
	if next == nil {
		return p
	}
	span := next.MinPoints - current.MinPoints
	p.PointsToNext = next.MinPoints - points
	p.ProgressPercent = math.Round(float64(points-current.MinPoints)/float64(span)*10000) / 100
	return p
}

func levelRank(name string) int {
	for i, l := range Levels {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// reached lists achievements whose threshold the profile meets but has not earned.
func reached(p *models.GamificationProfile) []models.Achievement {
	var out []models.Achievement
	for _, a := range Achievements {
		if p.Counters[a.Counter] >= a.Threshold && !p.HasAchievement(a.Code) {
			out = append(out, a)
		}
	}
	return out
}
