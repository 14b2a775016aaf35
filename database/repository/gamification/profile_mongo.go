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

func (r *MongoGamificationRepo) EnsureProfile(ctx context.Context, p *models.GamificationProfile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.Counters == nil {
		p.Counters = map[string]int{}
	}
	if p.Achievements == nil {
		p.Achievements = []models.EarnedAchievement{}
	}
	p.UpdatedAt = time.Now()

	_, err := r.profiles.UpdateOne(ctx,
		bson.M{"userId": p.UserID},
		bson.M{"$setOnInsert": p},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure profile for %s: %w", p.UserID, database.Translate(err))
	}
	return nil
}

func (r *MongoGamificationRepo) GetProfile(ctx context.Context, userID string) (*models.GamificationProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.GamificationProfile
	if err := r.profiles.FindOne(ctx, bson.M{"userId": userID}).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", userID, database.Translate(err))
	}
	return &p, nil
}

func (r *MongoGamificationRepo) IncrementProfile(ctx context.Context, userID string, points int, counters map[string]int) (*models.GamificationProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	inc := bson.M{"points": points, "lifetimePoints": points}
	for k, v := range counters {
		inc["counters."+k] = v
	}
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.GamificationProfile
	if err := r.profiles.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to update profile for %s: %w", userID, database.Translate(err))
	}
	return &p, nil
}

func (r *MongoGamificationRepo) DeleteProfile(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.profiles.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete profile for %s: %w", userID, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("profile for %s: %w", userID, database.ErrNotFound)
	}
	return nil
}

func (r *MongoGamificationRepo) SetLevel(ctx context.Context, userID, level string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.profiles.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"level": level}})
	if err != nil {
		return fmt.Errorf("failed to set level for %s: %w", userID, err)
	}
	return nil
}

func (r *MongoGamificationRepo) AddAchievement(ctx context.Context, userID string, a models.EarnedAchievement) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.profiles.UpdateOne(ctx,
		bson.M{"userId": userID, "achievements.code": bson.M{"$ne": a.Code}},
		bson.M{"$push": bson.M{"achievements": a}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to add achievement %s for %s: %w", a.Code, userID, err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoGamificationRepo) SpendPoints(ctx context.Context, userID string, cost int) (*models.GamificationProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"userId": userID, "points": bson.M{"$gte": cost}}
	update := bson.M{"$inc": bson.M{"points": -cost}, "$set": bson.M{"updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.GamificationProfile
	err := r.profiles.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if database.Translate(err) == database.ErrNotFound {
		return nil, fmt.Errorf("balance of %s below %d: %w", userID, cost, database.ErrConflict)
	}
	return nil, fmt.Errorf("failed to spend points for %s: %w", userID, err)
}

func (r *MongoGamificationRepo) RefundPoints(ctx context.Context, userID string, amount int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.profiles.UpdateOne(ctx, bson.M{"userId": userID},
		bson.M{"$inc": bson.M{"points": amount}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to refund points for %s: %w", userID, err)
	}
	return nil
}

func (r *MongoGamificationRepo) TopProfiles(ctx context.Context, role string, limit int) ([]models.GamificationProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "lifetimePoints", Value: -1}, {Key: "updatedAt", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"counters": 0, "achievements": 0})

	cursor, err := r.profiles.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.GamificationProfile{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}
	return out, nil
}
