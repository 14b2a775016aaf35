package notification

import (
	"context"
	"fmt"

	"tecnicosrd/models"
	"tecnicosrd/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// NotificationService sends push notifications to users.
type NotificationService interface {
	NotifyUser(ctx context.Context, n models.Notification) error
}

// TokenLookup resolves the FCM token of a user.
type TokenLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Sender is the subset of the FCM client used here.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotificationService delivers through Firebase Cloud Messaging.
type FCMNotificationService struct {
	users  TokenLookup
	sender Sender
}

func NewFCMNotificationService(users TokenLookup, sender Sender) (*FCMNotificationService, error) {
	if users == nil || sender == nil {
		return nil, fmt.Errorf("notification service initialization error: user lookup or sender is nil")
	}
	return &FCMNotificationService{users: users, sender: sender}, nil
}

// NotifyUser skips users without a registered FCM token.
func (s *FCMNotificationService) NotifyUser(ctx context.Context, n models.Notification) error {
	u, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("NotifyUser: could not find user %s: %w", n.UserID, err)
	}
	if u.FCMToken == "" {
		utils.GetLogger().Debug("NotifyUser: no FCM token", zap.String("userID", n.UserID))
		return nil
	}

	data := map[string]string{"type": n.Type, "role": u.Role}
	for k, v := range n.Data {
		data[k] = v
	}

	msg := &messaging.Message{
		Token: u.FCMToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "bookings",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("NotifyUser: failed to send FCM message: %w", err)
	}
	utils.GetLogger().Debug("push sent", zap.String("userID", n.UserID), zap.String("messageID", id), zap.String("type", n.Type))
	return nil
}

// NoopNotificationService logs notifications when Firebase is not configured.
type NoopNotificationService struct{}

func (NoopNotificationService) NotifyUser(_ context.Context, n models.Notification) error {
	utils.GetLogger().Debug("push skipped (firebase disabled)",
		zap.String("userID", n.UserID),
		zap.String("type", n.Type),
		zap.String("title", n.Title))
	return nil
}
