package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// NewFCMClient builds a messaging client from a service account file.
func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}
	return client, nil
}

// New returns an FCM-backed service, or the no-op one when credentialsFile is empty.
func New(ctx context.Context, credentialsFile string, users TokenLookup) (NotificationService, error) {
	if credentialsFile == "" {
		return NoopNotificationService{}, nil
	}
	client, err := NewFCMClient(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	return NewFCMNotificationService(users, client)
}
