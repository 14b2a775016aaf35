package gamification

import (
	"context"
	"fmt"

	"tecnicosrd/models"
	"tecnicosrd/utils"

	"go.uber.org/zap"
)

var leaderboardScopes = []string{"", models.RoleCustomer, models.RoleTechnician}

func leaderboardKey(role string) string {
	if role == "" {
		return leaderboardPrefix + "all"
	}
	return leaderboardPrefix + role
}

// Leaderboard ranks by lifetime points, optionally scoped to one role.
func (s *DefaultGamificationService) Leaderboard(ctx context.Context, role string, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = leaderboardDefault
	}
	if limit > leaderboardMax {
		limit = leaderboardMax
	}

	var entries []models.LeaderboardEntry
	found := false
	if s.Cache != nil {
		var err error
		found, err = s.Cache.GetJSON(ctx, leaderboardKey(role), &entries)
		if err != nil {
			utils.GetLogger().Warn("Leaderboard: cache read failed", zap.Error(err))
			found = false
		}
	}
	if !found {
		var err error
		entries, err = s.buildLeaderboard(ctx, role)
		if err != nil {
			return nil, err
		}
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RefreshLeaderboard rebuilds every cached leaderboard scope.
func (s *DefaultGamificationService) RefreshLeaderboard(ctx context.Context) error {
	for _, role := range leaderboardScopes {
		if _, err := s.buildLeaderboard(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

func (s *DefaultGamificationService) buildLeaderboard(ctx context.Context, role string) ([]models.LeaderboardEntry, error) {
	profiles, err := s.Repo.TopProfiles(ctx, role, leaderboardMax)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		entries = append(entries, models.LeaderboardEntry{
			Rank:   i + 1,
			UserID: p.UserID,
			Name:   p.Name,
			Role:   p.Role,
			Points: p.LifetimePoints,
			Level:  LevelFor(p.LifetimePoints).Name,
		})
	}

	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, leaderboardKey(role), entries, leaderboardTTL); err != nil {
			utils.GetLogger().Warn("Leaderboard: cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}
