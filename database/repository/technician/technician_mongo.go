package technicianRepo

import (
	"context"
	"fmt"
	"time"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoTechnicianRepo implements TechnicianRepository using MongoDB.
type MongoTechnicianRepo struct {
	coll *mongo.Collection
}

// NewMongoTechnicianRepo creates a new instance of TechnicianRepository using MongoDB.
func NewMongoTechnicianRepo(db *mongo.Database) TechnicianRepository {
	repo := &MongoTechnicianRepo{coll: db.Collection("technicians")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("technicians: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoTechnicianRepo) Create(ctx context.Context, t *models.Technician) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Availability == nil {
		t.Availability = []models.AvailabilityWindow{}
	}
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to create technician: %w", database.Translate(err))
	}
	return nil
}

func (r *MongoTechnicianRepo) GetByID(ctx context.Context, id string) (*models.Technician, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoTechnicianRepo) GetByUserID(ctx context.Context, userID string) (*models.Technician, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *MongoTechnicianRepo) findOne(ctx context.Context, filter bson.M) (*models.Technician, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var t models.Technician
	if err := r.coll.FindOne(ctx, filter).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to fetch technician: %w", database.Translate(err))
	}
	return &t, nil
}

func (r *MongoTechnicianRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Technician, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if len(ids) == 0 {
		return []models.Technician{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve technicians: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Technician{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode technicians: %w", err)
	}
	return out, nil
}

func (r *MongoTechnicianRepo) UpdateProfile(ctx context.Context, t *models.Technician) (*models.Technician, error) {
	return r.set(ctx, t.ID, bson.M{
		"displayName":     t.DisplayName,
		"bio":             t.Bio,
		"specializations": t.Specializations,
		"province":        t.Province,
		"city":            t.City,
		"location":        t.Location,
		"hourlyRate":      t.HourlyRate,
		"yearsExperience": t.YearsExperience,
		"active":          t.Active,
	})
}

func (r *MongoTechnicianRepo) SetAvailability(ctx context.Context, id string, windows []models.AvailabilityWindow) (*models.Technician, error) {
	return r.set(ctx, id, bson.M{"availability": windows})
}

func (r *MongoTechnicianRepo) SetVerification(ctx context.Context, id string, verified bool, status string) (*models.Technician, error) {
	return r.set(ctx, id, bson.M{"verified": verified, "verificationStatus": status})
}

func (r *MongoTechnicianRepo) SetProfileImage(ctx context.Context, id, url string) (*models.Technician, error) {
	return r.set(ctx, id, bson.M{"profileImage": url})
}

func (r *MongoTechnicianRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.set(ctx, id, bson.M{"active": active})
	return err
}

// set writes only the given fields and returns the stored document.
func (r *MongoTechnicianRepo) set(ctx context.Context, id string, fields bson.M) (*models.Technician, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Technician
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": fields}, opts).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to update technician %s: %w", id, database.Translate(err))
	}
	return &t, nil
}

func (r *MongoTechnicianRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete technician %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("technician %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *MongoTechnicianRepo) IncrementCompletedJobs(ctx context.Context, id string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$inc": bson.M{"completedJobs": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to increment completed jobs for %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("technician %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// ApplyRating updates sum, count and mean in one pipeline so concurrent
// reviews cannot overwrite each other. The mean is rounded for display only.
func (r *MongoTechnicianRepo) ApplyRating(ctx context.Context, id string, rating int) (*models.Technician, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "ratingSum", Value: bson.D{{Key: "$add", Value: bson.A{"$ratingSum", rating}}}},
			{Key: "reviewCount", Value: bson.D{{Key: "$add", Value: bson.A{"$reviewCount", 1}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "rating", Value: bson.D{{Key: "$round", Value: bson.A{
				bson.D{{Key: "$divide", Value: bson.A{"$ratingSum", "$reviewCount"}}},
				models.RatingDecimals,
			}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Technician
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, pipeline, opts).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to apply rating to technician %s: %w", id, database.Translate(err))
	}
	return &t, nil
}
