package gamification

import (
	"context"
	"time"

	gamificationRepo "tecnicosrd/database/repository/gamification"
	"tecnicosrd/models"
	"tecnicosrd/utils"
)

const (
	leaderboardTTL     = 5 * time.Minute
	leaderboardMax     = 100
	leaderboardDefault = 10
	leaderboardPrefix  = "leaderboard:"
)

// AwardResult describes what a single Award call changed.
type AwardResult struct {
	Points          int                         `json:"points"`
	Duplicate       bool                        `json:"duplicate"`
	LevelUp         bool                        `json:"levelUp"`
	NewAchievements []models.EarnedAchievement  `json:"newAchievements,omitempty"`
	Profile         *models.GamificationProfile `json:"profile,omitempty"`
}

// GamificationService awards points and serves profiles, leaderboards and rewards.
type GamificationService interface {
	EnsureProfile(ctx context.Context, user models.User) error
	// RemoveProfile drops the profile of a deleted account and rebuilds the leaderboards.
	RemoveProfile(ctx context.Context, userID string) error
	// Award is idempotent per (userID, event, refID).
	Award(ctx context.Context, userID, event, refID string) (*AwardResult, error)
	Profile(ctx context.Context, userID string) (*models.ProfileView, error)
	History(ctx context.Context, userID string, page models.Page) ([]models.PointTransaction, int64, error)
	Leaderboard(ctx context.Context, role string, limit int) ([]models.LeaderboardEntry, error)
	RefreshLeaderboard(ctx context.Context) error

	Rewards(ctx context.Context) ([]models.Reward, error)
	Redeem(ctx context.Context, userID, rewardID string) (*models.Redemption, error)
	Redemptions(ctx context.Context, userID string) ([]models.Redemption, error)
	CreateReward(ctx context.Context, req models.RewardRequest) (*models.Reward, error)
	UpdateReward(ctx context.Context, id string, req models.RewardRequest) (*models.Reward, error)
}

// DefaultGamificationService is the production implementation.
type DefaultGamificationService struct {
	Repo  gamificationRepo.GamificationRepository
	Cache utils.JSONCache
	Now   func() time.Time
}

func NewGamificationService(repo gamificationRepo.GamificationRepository, cache utils.JSONCache) *DefaultGamificationService {
	return &DefaultGamificationService{Repo: repo, Cache: cache, Now: time.Now}
}

func (s *DefaultGamificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
