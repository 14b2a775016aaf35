// File: tecnicosrd/models/gamification.go
package models

import "time"

// GamificationProfile is the points/level/achievement state of one user.
type GamificationProfile struct {
	UserID         string              `bson:"userId" json:"userId"`
	Name           string              `bson:"name" json:"name"`
	Role           string              `bson:"role" json:"role"`
	Points         int                 `bson:"points" json:"points"`                 // spendable balance
	LifetimePoints int                 `bson:"lifetimePoints" json:"lifetimePoints"` // drives the level
	Level          string              `bson:"level" json:"level"`
	Counters       map[string]int      `bson:"counters" json:"counters"`
	Achievements   []EarnedAchievement `bson:"achievements" json:"achievements"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// HasAchievement reports whether the achievement code was already earned.
func (p *GamificationProfile) HasAchievement(code string) bool {
	for _, a := range p.Achievements {
		if a.Code == code {
			return true
		}
	}
	return false
}

// EarnedAchievement is an achievement unlocked by a user.
type EarnedAchievement struct {
	Code     string    `bson:"code" json:"code"`
	Name     string    `bson:"name" json:"name"`
	EarnedAt time.Time `bson:"earnedAt" json:"earnedAt"`
}

// Achievement is a one-time threshold check over a profile counter.
type Achievement struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Counter     string `json:"counter"`
	Threshold   int    `json:"threshold"`
	BonusPoints int    `json:"bonusPoints"`
}

// PointTransaction is one entry of the points ledger.
type PointTransaction struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Delta     int       `bson:"delta" json:"delta"`
	Reason    string    `bson:"reason" json:"reason"`
	RefID     string    `bson:"refId,omitempty" json:"refId,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Level is a named band of lifetime points.
type Level struct {
	Name      string `json:"name"`
	MinPoints int    `json:"minPoints"`
}

// LevelProgress describes where a user sits between two levels.
type LevelProgress struct {
	Current         Level   `json:"current"`
	Next            *Level  `json:"next,omitempty"`
	PointsToNext    int     `json:"pointsToNext"`
	ProgressPercent float64 `json:"progressPercent"`
}

// ProfileView is the gamification summary returned to clients.
type ProfileView struct {
	GamificationProfile
	Progress LevelProgress `json:"progress"`
}

// Reward is an item of the rewards catalog redeemable with points.
type Reward struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Cost        int       `bson:"cost" json:"cost"`
	Stock       int       `bson:"stock" json:"stock"` // -1 for unlimited
	Active      bool      `bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RewardRequest is the admin create/update payload for a reward.
type RewardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Stock       *int   `json:"stock,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// Redemption records a reward claimed by a user.
type Redemption struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	RewardID  string    `bson:"rewardId" json:"rewardId"`
	Reward    string    `bson:"reward" json:"reward"`
	Cost      int       `bson:"cost" json:"cost"`
	Code      string    `bson:"code" json:"code"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Points int    `json:"points"`
	Level  string `json:"level"`
}
