package gamification

import "errors"

var (
	ErrProfileNotFound    = errors.New("gamification profile not found")
	ErrUnknownEvent       = errors.New("unknown gamification event")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrOutOfStock         = errors.New("reward out of stock")
	ErrInvalidReward      = errors.New("reward needs a name and a positive cost")
)
