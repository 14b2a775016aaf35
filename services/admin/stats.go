package admin

import (
	"context"
	"fmt"
	"math"
	"time"

	"tecnicosrd/models"
	"tecnicosrd/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CompletionRate is completed / (completed + cancelled), 0 when neither happened.
func CompletionRate(completed, cancelled int64) float64 {
	finished := completed + cancelled
	if finished == 0 {
		return 0
	}
	return round2(float64(completed) / float64(finished))
}

func (s *DefaultAdminService) Dashboard(ctx context.Context, from, to time.Time) (*models.AdminStats, error) {
	from, to, err := s.window(from, to)
	if err != nil {
		return nil, err
	}

	key := cacheKey(from, to)
	if s.Cache != nil {
		var cached models.AdminStats
		found, err := s.Cache.GetJSON(ctx, key, &cached)
		if err != nil {
			utils.GetLogger().Warn("Dashboard: cache read failed", zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	stats, err := s.compute(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, key, stats, statsTTL); err != nil {
			utils.GetLogger().Warn("Dashboard: cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *DefaultAdminService) WarmDashboard(ctx context.Context) error {
	from, to, err := s.window(time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	stats, err := s.compute(ctx, from, to)
	if err != nil {
		return err
	}
	if s.Cache == nil {
		return nil
	}
	return s.Cache.SetJSON(ctx, cacheKey(from, to), stats, statsTTL)
}

func (s *DefaultAdminService) compute(ctx context.Context, from, to time.Time) (*models.AdminStats, error) {
	var (
		roles    map[string]int64
		newUsers int64
		verified int64
		totals   *models.BookingTotals
		daily    []models.DailyCount
		top      []models.TechnicianSummary
		rating   float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { roles, err = s.Repo.CountUsersByRole(gctx); return })
	g.Go(func() (err error) { newUsers, err = s.Repo.CountUsersCreatedBetween(gctx, from, to); return })
	g.Go(func() (err error) { verified, err = s.Repo.CountVerifiedTechnicians(gctx); return })
	g.Go(func() (err error) { totals, err = s.Repo.BookingTotals(gctx, from, to); return })
	g.Go(func() (err error) { daily, err = s.Repo.DailyBookings(gctx, from, to); return })
	g.Go(func() (err error) { top, err = s.Repo.TopTechnicians(gctx, topTechsLimit); return })
	g.Go(func() (err error) { rating, err = s.Repo.AverageRating(gctx); return })
	if err := g.Wait(); err != nil {
		utils.GetLogger().Error("Dashboard: aggregation failed", zap.Error(err))
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	stats := &models.AdminStats{
		From:                from,
		To:                  to,
		TotalCustomers:      roles[models.RoleCustomer],
		TotalTechnicians:    roles[models.RoleTechnician],
		VerifiedTechnicians: verified,
		NewUsers:            newUsers,
		BookingsByStatus:    map[models.BookingStatus]int64{},
		AverageRating:       round2(rating),
		Currency:            s.Currency,
		TopTechnicians:      top,
		DailyBookings:       daily,
		GeneratedAt:         s.now(),
	}
	for _, n := range roles {
		stats.TotalUsers += n
	}
	if totals != nil {
		for status, n := range totals.ByStatus {
			stats.BookingsByStatus[status] = n
			stats.TotalBookings += n
		}
		stats.GrossRevenue = round2(totals.GrossRevenue)
		stats.PlatformRevenue = round2(totals.PlatformRevenue)
	}
	stats.CompletedBookings = stats.BookingsByStatus[models.StatusCompleted]
	stats.CancelledBookings = stats.BookingsByStatus[models.StatusCancelled]
	stats.CompletionRate = CompletionRate(stats.CompletedBookings, stats.CancelledBookings)
	if stats.CompletedBookings > 0 {
		stats.AverageTicket = round2(stats.GrossRevenue / float64(stats.CompletedBookings))
	}
	if stats.TopTechnicians == nil {
		stats.TopTechnicians = []models.TechnicianSummary{}
	}
	if stats.DailyBookings == nil {
		stats.DailyBookings = []models.DailyCount{}
	}
	return stats, nil
}

// window applies the default range and aligns bounds to whole days in the marketplace zone.
func (s *DefaultAdminService) window(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultWindow)
	}
	from = startOfDay(from.In(s.Location))
	to = startOfDay(to.In(s.Location)).AddDate(0, 0, 1)
	if !from.Before(to) {
		return time.Time{}, time.Time{}, utils.Invalid("from", "from must be before to")
	}
	if to.Sub(from) > maxWindow {
		return time.Time{}, time.Time{}, utils.Invalid("to", "range cannot exceed one year")
	}
	return from, to, nil
}

func cacheKey(from, to time.Time) string {
	return statsPrefix + from.Format("2006-01-02") + ":" + to.Format("2006-01-02")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
