package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tecnicosrd/config"
	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const defaultDeviceID = "default"

func (s *DefaultUserService) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return config.JWTTTL()
}

// Login verifies credentials and issues a token bound to the device.
func (s *DefaultUserService) Login(ctx context.Context, req models.LoginRequest) (*AuthResponse, error) {
	logger := utils.GetLogger()

	userRec, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		logger.Error("Login: failed to fetch user", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(userRec.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = defaultDeviceID
	}

	ttl := s.tokenTTL()
	token, err := utils.GenerateToken(utils.TokenClaims{
		UserID:   userRec.ID,
		Email:    userRec.Email,
		Role:     userRec.Role,
		DeviceID: deviceID,
	}, ttl)
	if err != nil {
		logger.Error("Login: failed to sign token", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	tokenHash := utils.HashToken(token)

	session := models.Session{DeviceID: deviceID, TokenHash: tokenHash, LastLogin: time.Now()}
	if err := s.Repo.SaveSession(ctx, userRec.ID, session); err != nil {
		logger.Error("Login: failed to save session", zap.String("userID", userRec.ID), zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}

	if s.AuthCache != nil {
		if err := s.AuthCache.SetJSON(ctx, utils.AuthCacheKey(userRec.ID, deviceID), tokenHash, utils.AuthCacheTTL); err != nil {
			logger.Warn("Login: failed to cache token hash", zap.Error(err))
		}
	}

	logger.Info("user signed in", zap.String("userID", userRec.ID), zap.String("deviceID", deviceID))
	return &AuthResponse{
		ID:           userRec.ID,
		Token:        token,
		DeviceID:     deviceID,
		Name:         userRec.Name,
		Email:        userRec.Email,
		Role:         userRec.Role,
		PhoneNumber:  userRec.PhoneNumber,
		ProfileImage: userRec.ProfileImage,
		ExpiresAt:    time.Now().Add(ttl).Unix(),
	}, nil
}

// Logout revokes the token of one device.
func (s *DefaultUserService) Logout(ctx context.Context, userID, deviceID string) error {
	if deviceID == "" {
		deviceID = defaultDeviceID
	}
	if err := s.Repo.RemoveSession(ctx, userID, deviceID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.evict(ctx, userID, deviceID)
	return nil
}

func (s *DefaultUserService) evict(ctx context.Context, userID string, deviceIDs ...string) {
	if s.AuthCache == nil || len(deviceIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(deviceIDs))
	for _, d := range deviceIDs {
		keys = append(keys, utils.AuthCacheKey(userID, d))
	}
	if err := s.AuthCache.Delete(ctx, keys...); err != nil {
		utils.GetLogger().Warn("failed to evict auth cache", zap.String("userID", userID), zap.Error(err))
	}
}

// Authenticate validates a bearer token and checks it is still the live token of its device.
func (s *DefaultUserService) Authenticate(ctx context.Context, token string) (*utils.TokenClaims, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, ErrSessionExpired
	}
	tokenHash := utils.HashToken(token)
	cacheKey := utils.AuthCacheKey(claims.UserID, claims.DeviceID)

	if s.AuthCache != nil {
		var cached string
		found, err := s.AuthCache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			utils.GetLogger().Warn("Authenticate: cache read failed", zap.Error(err))
		}
		if found && cached == tokenHash {
			return claims, nil
		}
	}

	user, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}
	for _, sess := range user.Sessions {
		if sess.DeviceID == claims.DeviceID && sess.TokenHash == tokenHash {
			// role may have changed since the token was signed
			claims.Role = user.Role
			if s.AuthCache != nil {
				_ = s.AuthCache.SetJSON(ctx, cacheKey, tokenHash, utils.AuthCacheTTL)
			}
			return claims, nil
		}
	}
	return nil, ErrSessionExpired
}
