package gamification

import (
	"context"
	"errors"
	"fmt"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnsureProfile creates the gamification profile of a new user.
func (s *DefaultGamificationService) EnsureProfile(ctx context.Context, user models.User) error {
	profile := &models.GamificationProfile{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		Level:  Levels[0].Name,
	}
	if err := s.Repo.EnsureProfile(ctx, profile); err != nil {
		utils.GetLogger().Error("EnsureProfile: failed", zap.String("userID", user.ID), zap.Error(err))
		return fmt.Errorf("failed to create gamification profile: %w", err)
	}
	return nil
}

func (s *DefaultGamificationService) RemoveProfile(ctx context.Context, userID string) error {
	if err := s.Repo.DeleteProfile(ctx, userID); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to remove gamification profile: %w", err)
	}
	if err := s.RefreshLeaderboard(ctx); err != nil {
		utils.GetLogger().Warn("RemoveProfile: leaderboard refresh failed", zap.String("userID", userID), zap.Error(err))
	}
	return nil
}

func (s *DefaultGamificationService) Award(ctx context.Context, userID, event, refID string) (*AwardResult, error) {
	points, ok := PointsFor[event]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}

	tx := &models.PointTransaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Delta:     points,
		Reason:    event,
		RefID:     refID,
		CreatedAt: s.now(),
	}
	result := &AwardResult{}
	var profile *models.GamificationProfile
	err := s.Repo.AddTransaction(ctx, tx)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		// already paid; settle any achievement a failed earlier attempt left behind
		result.Duplicate = true
		profile, err = s.Repo.GetProfile(ctx, userID)
		if err != nil {
			return result, nil
		}
	case err != nil:
		return nil, fmt.Errorf("failed to record award: %w", err)
	default:
		profile, err = s.increment(ctx, userID, points, countersFor(event))
		if err != nil {
			s.rollbackTransaction(ctx, tx)
			return nil, err
		}
		utils.RecordPointsAwarded(event, points)
		result.Points = points
	}

	previousLevel := profile.Level
	profile, err = s.grantAchievements(ctx, profile, result)
	if err != nil {
		return nil, err
	}

	level := LevelFor(profile.LifetimePoints).Name
	if level != profile.Level {
		if err := s.Repo.SetLevel(ctx, userID, level); err != nil {
			return nil, err
		}
		profile.Level = level
	}
	result.LevelUp = levelRank(profile.Level) > levelRank(previousLevel)
	result.Profile = profile

	utils.GetLogger().Debug("points awarded",
		zap.String("userID", userID),
		zap.String("event", event),
		zap.String("refID", refID),
		zap.Bool("duplicate", result.Duplicate),
		zap.Int("points", result.Points))
	return result, nil
}

// grantAchievements stores every achievement the profile reached and pays its bonus once.
func (s *DefaultGamificationService) grantAchievements(ctx context.Context, profile *models.GamificationProfile, result *AwardResult) (*models.GamificationProfile, error) {
	userID := profile.UserID
	for _, a := range reached(profile) {
		bonus := &models.PointTransaction{
			ID:        uuid.New().String(),
			UserID:    userID,
			Delta:     a.BonusPoints,
			Reason:    reasonAchievement,
			RefID:     a.Code,
			CreatedAt: s.now(),
		}
		credited := false
		err := s.Repo.AddTransaction(ctx, bonus)
		switch {
		case errors.Is(err, database.ErrDuplicate):
			// bonus already paid, the achievement itself may still be missing
		case err != nil:
			return nil, fmt.Errorf("failed to record achievement bonus: %w", err)
		default:
			updated, err := s.increment(ctx, userID, a.BonusPoints, nil)
			if err != nil {
				s.rollbackTransaction(ctx, bonus)
				return nil, err
			}
			updated.Achievements = profile.Achievements
			profile = updated
			credited = true
		}

		earned := models.EarnedAchievement{Code: a.Code, Name: a.Name, EarnedAt: s.now()}
		added, err := s.Repo.AddAchievement(ctx, userID, earned)
		if err != nil {
			return nil, err
		}
		if added {
			result.NewAchievements = append(result.NewAchievements, earned)
			profile.Achievements = append(profile.Achievements, earned)
		}
		if credited {
			result.Points += a.BonusPoints
			utils.RecordPointsAwarded(reasonAchievement, a.BonusPoints)
		}
	}
	return profile, nil
}

// rollbackTransaction drops a ledger row whose points never reached the profile,
// so a retry of the same award is not mistaken for a duplicate.
func (s *DefaultGamificationService) rollbackTransaction(ctx context.Context, tx *models.PointTransaction) {
	if err := s.Repo.RemoveTransaction(ctx, tx.UserID, tx.Reason, tx.RefID); err != nil {
		utils.GetLogger().Error("Award: failed to roll back ledger entry",
			zap.String("userID", tx.UserID),
			zap.String("reason", tx.Reason),
			zap.String("refID", tx.RefID),
			zap.Error(err))
	}
}

// increment applies the delta, creating a missing profile on the fly.
func (s *DefaultGamificationService) increment(ctx context.Context, userID string, points int, counters map[string]int) (*models.GamificationProfile, error) {
	profile, err := s.Repo.IncrementProfile(ctx, userID, points, counters)
	if errors.Is(err, database.ErrNotFound) {
		if err := s.Repo.EnsureProfile(ctx, &models.GamificationProfile{UserID: userID, Level: Levels[0].Name}); err != nil {
			return nil, fmt.Errorf("failed to create gamification profile: %w", err)
		}
		profile, err = s.Repo.IncrementProfile(ctx, userID, points, counters)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update gamification profile: %w", err)
	}
	return profile, nil
}

func (s *DefaultGamificationService) Profile(ctx context.Context, userID string) (*models.ProfileView, error) {
	profile, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &models.ProfileView{
		GamificationProfile: *profile,
		Progress:            Progress(profile.LifetimePoints),
	}, nil
}

func (s *DefaultGamificationService) History(ctx context.Context, userID string, page models.Page) ([]models.PointTransaction, int64, error) {
	return s.Repo.ListTransactions(ctx, userID, page)
}
