package booking

import (
	"context"
	"fmt"
	"time"

	"tecnicosrd/models"
	"tecnicosrd/utils"
)

const sessionPrefix = "booking:session:"

// SessionStore persists in-flight booking sessions.
type SessionStore interface {
	Save(ctx context.Context, session *models.BookingSession) error
	// Load returns ErrSessionNotFound once the session expired.
	Load(ctx context.Context, sessionID string) (*models.BookingSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// CacheSessionStore keeps sessions as JSON in Redis with a sliding TTL.
type CacheSessionStore struct {
	Cache utils.JSONCache
	TTL   time.Duration
}

func (c *CacheSessionStore) Save(ctx context.Context, session *models.BookingSession) error {
	if err := c.Cache.SetJSON(ctx, sessionPrefix+session.SessionID, session, c.TTL); err != nil {
		return fmt.Errorf("failed to store booking session: %w", err)
	}
	return nil
}

func (c *CacheSessionStore) Load(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	var session models.BookingSession
	found, err := c.Cache.GetJSON(ctx, sessionPrefix+sessionID, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking session: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (c *CacheSessionStore) Delete(ctx context.Context, sessionID string) error {
	return c.Cache.Delete(ctx, sessionPrefix+sessionID)
}
