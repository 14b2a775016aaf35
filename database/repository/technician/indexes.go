package technicianRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoTechnicianRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Partial index: only technicians that published availability are bookable.
	bookableOpts := options.Index().SetPartialFilterExpression(bson.M{
		"availability.0": bson.M{"$exists": true},
	})

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "specializations", Value: 1},
			{Key: "province", Value: 1},
			{Key: "verified", Value: -1},
			{Key: "rating", Value: -1},
		}},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "specializations", Value: 1}}, Options: bookableOpts},
		{Keys: bson.D{{Key: "completedJobs", Value: -1}, {Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "displayName", Value: "text"}, {Key: "bio", Value: "text"}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
