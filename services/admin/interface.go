package admin

import (
	"context"
	"time"

	statsRepo "tecnicosrd/database/repository/stats"
	"tecnicosrd/models"
	"tecnicosrd/utils"
)

const (
	statsTTL      = 10 * time.Minute
	statsPrefix   = "stats:"
	topTechsLimit = 5
	defaultWindow = 30 * 24 * time.Hour
	maxWindow     = 366 * 24 * time.Hour
)

// AdminService builds the admin dashboard.
type AdminService interface {
	// Dashboard aggregates marketplace metrics for [from, to). Zero bounds default to the last 30 days.
	Dashboard(ctx context.Context, from, to time.Time) (*models.AdminStats, error)
	// WarmDashboard recomputes the default dashboard and stores it in the cache.
	WarmDashboard(ctx context.Context) error
}

// DefaultAdminService is the production implementation.
type DefaultAdminService struct {
	Repo     statsRepo.StatsRepository
	Cache    utils.JSONCache
	Currency string
	Location *time.Location
	Now      func() time.Time
}

func NewAdminService(repo statsRepo.StatsRepository, cache utils.JSONCache, currency string, loc *time.Location) *DefaultAdminService {
	if loc == nil {
		loc = time.UTC
	}
	return &DefaultAdminService{Repo: repo, Cache: cache, Currency: currency, Location: loc, Now: time.Now}
}

func (s *DefaultAdminService) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.Location)
	}
	return time.Now().In(s.Location)
}
