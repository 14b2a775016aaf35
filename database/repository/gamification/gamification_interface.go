package gamificationRepo

import (
	"context"

	"tecnicosrd/models"
)

// GamificationRepository persists profiles, the points ledger and the rewards catalog.
type GamificationRepository interface {
	// EnsureProfile creates the profile when missing and leaves an existing one untouched.
	EnsureProfile(ctx context.Context, p *models.GamificationProfile) error
	GetProfile(ctx context.Context, userID string) (*models.GamificationProfile, error)
	DeleteProfile(ctx context.Context, userID string) error
	// IncrementProfile adds points (balance and lifetime) and counter deltas, returning the updated profile.
	IncrementProfile(ctx context.Context, userID string, points int, counters map[string]int) (*models.GamificationProfile, error)
	SetLevel(ctx context.Context, userID, level string) error
	// AddAchievement stores the achievement unless already earned; added reports whether it was new.
	AddAchievement(ctx context.Context, userID string, a models.EarnedAchievement) (added bool, err error)
	// SpendPoints deducts from the balance only; database.ErrConflict when the balance is too low.
	SpendPoints(ctx context.Context, userID string, cost int) (*models.GamificationProfile, error)
	RefundPoints(ctx context.Context, userID string, amount int) error
	TopProfiles(ctx context.Context, role string, limit int) ([]models.GamificationProfile, error)

	// AddTransaction fails with database.ErrDuplicate when (user, reason, ref) was already recorded.
	AddTransaction(ctx context.Context, tx *models.PointTransaction) error
	// RemoveTransaction deletes the (user, reason, ref) row; a missing row is not an error.
	RemoveTransaction(ctx context.Context, userID, reason, refID string) error
	ListTransactions(ctx context.Context, userID string, page models.Page) ([]models.PointTransaction, int64, error)

	ListRewards(ctx context.Context, activeOnly bool) ([]models.Reward, error)
	GetReward(ctx context.Context, id string) (*models.Reward, error)
	CreateReward(ctx context.Context, reward *models.Reward) error
	UpdateReward(ctx context.Context, reward *models.Reward) error
	// ReserveRewardStock takes one unit; database.ErrConflict when none is left.
	ReserveRewardStock(ctx context.Context, id string) error
	ReleaseRewardStock(ctx context.Context, id string) error

	CreateRedemption(ctx context.Context, r *models.Redemption) error
	ListRedemptions(ctx context.Context, userID string) ([]models.Redemption, error)
}
