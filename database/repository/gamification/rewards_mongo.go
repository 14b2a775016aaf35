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

func (r *MongoGamificationRepo) ListRewards(ctx context.Context, activeOnly bool) ([]models.Reward, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := r.rewards.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "cost", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Reward{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode rewards: %w", err)
	}
	return out, nil
}

func (r *MongoGamificationRepo) GetReward(ctx context.Context, id string) (*models.Reward, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var reward models.Reward
	if err := r.rewards.FindOne(ctx, bson.M{"id": id}).Decode(&reward); err != nil {
		return nil, fmt.Errorf("failed to fetch reward %s: %w", id, database.Translate(err))
	}
	return &reward, nil
}

func (r *MongoGamificationRepo) CreateReward(ctx context.Context, reward *models.Reward) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	reward.CreatedAt = now
	reward.UpdatedAt = now
	if _, err := r.rewards.InsertOne(ctx, reward); err != nil {
		return fmt.Errorf("failed to create reward: %w", database.Translate(err))
	}
	return nil
}

func (r *MongoGamificationRepo) UpdateReward(ctx context.Context, reward *models.Reward) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	reward.UpdatedAt = time.Now()
	result, err := r.rewards.ReplaceOne(ctx, bson.M{"id": reward.ID}, reward)
	if err != nil {
		return fmt.Errorf("failed to update reward %s: %w", reward.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("reward %s: %w", reward.ID, database.ErrNotFound)
	}
	return nil
}

// ReserveRewardStock leaves unlimited rewards (stock -1) untouched.
func (r *MongoGamificationRepo) ReserveRewardStock(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     id,
		"active": true,
		"$or":    []bson.M{{"stock": -1}, {"stock": bson.M{"$gt": 0}}},
	}
	update := mongoStockDelta(-1)
	result, err := r.rewards.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve reward %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("reward %s unavailable: %w", id, database.ErrConflict)
	}
	return nil
}

func (r *MongoGamificationRepo) ReleaseRewardStock(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.rewards.UpdateOne(ctx, bson.M{"id": id, "stock": bson.M{"$gte": 0}}, mongoStockDelta(1))
	if err != nil {
		return fmt.Errorf("failed to release reward %s: %w", id, err)
	}
	return nil
}

// mongoStockDelta changes stock by delta unless it is -1 (unlimited).
func mongoStockDelta(delta int) bson.A {
	return bson.A{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$stock", -1}}},
				-1,
				bson.D{{Key: "$add", Value: bson.A{"$stock", delta}}},
			}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
}

func (r *MongoGamificationRepo) CreateRedemption(ctx context.Context, red *models.Redemption) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if red.CreatedAt.IsZero() {
		red.CreatedAt = time.Now()
	}
	if _, err := r.redemptions.InsertOne(ctx, red); err != nil {
		return fmt.Errorf("failed to record redemption: %w", database.Translate(err))
	}
	return nil
}

func (r *MongoGamificationRepo) ListRedemptions(ctx context.Context, userID string) ([]models.Redemption, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
	cursor, err := r.redemptions.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Redemption{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode redemptions: %w", err)
	}
	return out, nil
}
