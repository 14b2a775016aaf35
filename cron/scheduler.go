package cron

import (
	"context"
	"time"

	"tecnicosrd/utils"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobExpireBookings     = "expire_stale_bookings"
	JobRefreshLeaderboard = "refresh_leaderboard"
	JobWarmDashboard      = "warm_admin_stats"

	jobTimeout = 2 * time.Minute
)

type StaleBookingExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

type LeaderboardRefresher interface {
	RefreshLeaderboard(ctx context.Context) error
}

type DashboardWarmer interface {
	WarmDashboard(ctx context.Context) error
}

// Jobs are the periodic maintenance tasks. Nil members are not scheduled.
type Jobs struct {
	Bookings    StaleBookingExpirer
	Leaderboard LeaderboardRefresher
	Dashboard   DashboardWarmer
}

type job struct {
	spec string
	name string
	run  func(ctx context.Context) error
}

// Scheduler runs Jobs on a wall-clock schedule in the platform time zone.
type Scheduler struct {
	c *robfig.Cron
}

// NewScheduler registers the jobs:
//   - stale PENDING bookings are expired every 15 minutes
//   - the leaderboard cache is rebuilt every 5 minutes
//   - the admin dashboard cache is warmed at 03:00
func NewScheduler(jobs Jobs, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := robfig.New(
		robfig.WithLocation(loc),
		robfig.WithChain(robfig.SkipIfStillRunning(robfig.DiscardLogger)),
	)

	var entries []job
	if jobs.Bookings != nil {
		entries = append(entries, job{"*/15 * * * *", JobExpireBookings, func(ctx context.Context) error {
			n, err := jobs.Bookings.ExpireStale(ctx)
			if err == nil && n > 0 {
				utils.GetLogger().Info("cron: bookings expired", zap.Int("count", n))
			}
			return err
		}})
	}
	if jobs.Leaderboard != nil {
		entries = append(entries, job{"*/5 * * * *", JobRefreshLeaderboard, jobs.Leaderboard.RefreshLeaderboard})
	}
	if jobs.Dashboard != nil {
		entries = append(entries, job{"0 3 * * *", JobWarmDashboard, jobs.Dashboard.WarmDashboard})
	}

	for _, e := range entries {
		if _, err := c.AddFunc(e.spec, RunJob(e.name, e.run)); err != nil {
			return nil, err
		}
	}
	return &Scheduler{c: c}, nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	utils.GetLogger().Info("cron scheduler started", zap.Int("jobs", len(s.c.Entries())))
	s.c.Start()
}

// Stop prevents new runs and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		utils.GetLogger().Warn("cron scheduler stop timed out")
	}
}

// RunJob wraps fn with a timeout, logging and run metrics.
func RunJob(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		err := fn(ctx)
		utils.RecordJobRun(name, err == nil)
		if err != nil {
			utils.GetLogger().Error("cron job failed", zap.String("job", name), zap.Error(err))
			return
		}
		utils.GetLogger().Debug("cron job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}
