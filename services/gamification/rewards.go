package gamification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultGamificationService) Rewards(ctx context.Context) ([]models.Reward, error) {
	return s.Repo.ListRewards(ctx, true)
}

func (s *DefaultGamificationService) Redemptions(ctx context.Context, userID string) ([]models.Redemption, error) {
	return s.Repo.ListRedemptions(ctx, userID)
}

// Redeem spends the current balance on a reward. Lifetime points and level are untouched.
func (s *DefaultGamificationService) Redeem(ctx context.Context, userID, rewardID string) (*models.Redemption, error) {
	reward, err := s.Repo.GetReward(ctx, rewardID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	if !reward.Active {
		return nil, ErrRewardNotFound
	}

	profile, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInsufficientPoints
		}
		return nil, err
	}
	if profile.Points < reward.Cost {
		return nil, ErrInsufficientPoints
	}

	if err := s.Repo.ReserveRewardStock(ctx, rewardID); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrOutOfStock
		}
		return nil, err
	}

	if _, err := s.Repo.SpendPoints(ctx, userID, reward.Cost); err != nil {
		if relErr := s.Repo.ReleaseRewardStock(ctx, rewardID); relErr != nil {
			utils.GetLogger().Error("Redeem: failed to release stock", zap.String("rewardID", rewardID), zap.Error(relErr))
		}
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrInsufficientPoints
		}
		return nil, err
	}

	redemption := &models.Redemption{
		ID:        uuid.New().String(),
		UserID:    userID,
		RewardID:  reward.ID,
		Reward:    reward.Name,
		Cost:      reward.Cost,
		Code:      strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8]),
		CreatedAt: s.now(),
	}
	if err := s.Repo.CreateRedemption(ctx, redemption); err != nil {
		// give the points and the unit back so the user is not charged for nothing
		if refErr := s.Repo.RefundPoints(ctx, userID, reward.Cost); refErr != nil {
			utils.GetLogger().Error("Redeem: failed to refund points",
				zap.String("userID", userID), zap.Int("amount", reward.Cost), zap.Error(refErr))
		}
		if relErr := s.Repo.ReleaseRewardStock(ctx, rewardID); relErr != nil {
			utils.GetLogger().Error("Redeem: failed to release stock", zap.String("rewardID", rewardID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}
	if err := s.Repo.AddTransaction(ctx, &models.PointTransaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Delta:     -reward.Cost,
		Reason:    reasonRedeem,
		RefID:     redemption.ID,
		CreatedAt: redemption.CreatedAt,
	}); err != nil {
		utils.GetLogger().Error("Redeem: failed to record ledger entry", zap.String("userID", userID), zap.Error(err))
	}

	utils.GetLogger().Info("reward redeemed",
		zap.String("userID", userID),
		zap.String("rewardID", rewardID),
		zap.Int("cost", reward.Cost))
	return redemption, nil
}

func (s *DefaultGamificationService) CreateReward(ctx context.Context, req models.RewardRequest) (*models.Reward, error) {
	if strings.TrimSpace(req.Name) == "" || req.Cost <= 0 {
		return nil, ErrInvalidReward
	}
	reward := &models.Reward{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Cost:        req.Cost,
		Stock:       -1,
		Active:      true,
	}
	if req.Stock != nil {
		reward.Stock = *req.Stock
	}
	if req.Active != nil {
		reward.Active = *req.Active
	}
	if reward.Stock < -1 {
		return nil, ErrInvalidReward
	}
	if err := s.Repo.CreateReward(ctx, reward); err != nil {
		return nil, err
	}
	return reward, nil
}

func (s *DefaultGamificationService) UpdateReward(ctx context.Context, id string, req models.RewardRequest) (*models.Reward, error) {
	reward, err := s.Repo.GetReward(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		reward.Name = name
	}
	if req.Description != "" {
		reward.Description = req.Description
	}
	if req.Cost > 0 {
		reward.Cost = req.Cost
	}
	if req.Stock != nil {
		if *req.Stock < -1 {
			return nil, ErrInvalidReward
		}
		reward.Stock = *req.Stock
	}
	if req.Active != nil {
		reward.Active = *req.Active
	}
	if err := s.Repo.UpdateReward(ctx, reward); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	return reward, nil
}
