package gamificationRepo

import (
	"context"
	"fmt"
	"time"

	"tecnicosrd/database"
	"tecnicosrd/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoGamificationRepo) AddTransaction(ctx context.Context, tx *models.PointTransaction) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if _, err := r.ledger.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("failed to record point transaction: %w", database.Translate(err))
	}
	return nil
}

func (r *MongoGamificationRepo) RemoveTransaction(ctx context.Context, userID, reason, refID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"userId": userID, "reason": reason, "refId": refID}
	if _, err := r.ledger.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to remove point transaction: %w", err)
	}
	return nil
}

func (r *MongoGamificationRepo) ListTransactions(ctx context.Context, userID string, page models.Page) ([]models.PointTransaction, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"userId": userID}
	total, err := r.ledger.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count point transactions: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.ledger.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list point transactions: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.PointTransaction{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode point transactions: %w", err)
	}
	return out, total, nil
}
