package gamificationRepo

import (
	"context"
	"fmt"
	"time"

	"tecnicosrd/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoGamificationRepo implements GamificationRepository over four collections.
type MongoGamificationRepo struct {
	profiles    *mongo.Collection
	ledger      *mongo.Collection
	rewards     *mongo.Collection
	redemptions *mongo.Collection
}

func NewMongoGamificationRepo(db *mongo.Database) GamificationRepository {
	repo := &MongoGamificationRepo{
		profiles:    db.Collection("gamification_profiles"),
		ledger:      db.Collection("point_transactions"),
		rewards:     db.Collection("rewards"),
		redemptions: db.Collection("redemptions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("gamification: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoGamificationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	sets := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{r.profiles, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "lifetimePoints", Value: -1}}},
		}},
		{r.ledger, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			// makes awards idempotent per (user, event, ref)
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "reason", Value: 1}, {Key: "refId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{r.rewards, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "cost", Value: 1}}},
		}},
		{r.redemptions, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
	}
	for _, s := range sets {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", s.coll.Name(), err)
		}
	}
	return nil
}
