package technicianRepo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tecnicosrd/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// searchFilter builds the Mongo filter for the given criteria.
func searchFilter(criteria models.TechnicianSearchCriteria) bson.M {
	filter := bson.M{}
	if criteria.Specialization != "" {
		filter["specializations"] = strings.ToLower(criteria.Specialization)
	}
	if criteria.Province != "" {
		filter["province"] = bson.M{"$regex": "^" + regexp.QuoteMeta(criteria.Province) + "$", "$options": "i"}
	}
	if criteria.City != "" {
		filter["city"] = bson.M{"$regex": "^" + regexp.QuoteMeta(criteria.City) + "$", "$options": "i"}
	}
	if criteria.MinRating > 0 {
		filter["rating"] = bson.M{"$gte": criteria.MinRating}
	}
	if criteria.VerifiedOnly {
		filter["verified"] = true
	}
	if q := strings.TrimSpace(criteria.Query); q != "" {
		pattern := regexp.QuoteMeta(q)
		filter["$or"] = []bson.M{
			{"displayName": bson.M{"$regex": pattern, "$options": "i"}},
			{"bio": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if criteria.OnlyBookable {
		filter["active"] = true
		filter["availability.0"] = bson.M{"$exists": true}
	}
	return filter
}

func (r *MongoTechnicianRepo) Search(ctx context.Context, criteria models.TechnicianSearchCriteria) ([]models.Technician, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := searchFilter(criteria)
	page := criteria.Page.Normalize()

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count technicians: %w", err)
	}

	// verified first, then best rated, then most experienced on the platform
	opts := options.Find().
		SetSort(bson.D{
			{Key: "verified", Value: -1},
			{Key: "rating", Value: -1},
			{Key: "completedJobs", Value: -1},
			{Key: "id", Value: 1},
		}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("technician search failed: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Technician{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode technicians: %w", err)
	}
	return out, total, nil
}
