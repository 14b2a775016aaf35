package userRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tecnicosrd/database"
	"tecnicosrd/models"
	"tecnicosrd/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	repo := &MongoUserRepo{coll: db.Collection("users")}

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("users: failed to create indexes", zap.Error(err))
	}
	return repo
}

// Create inserts a new user document.
func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", database.Translate(err))
	}
	return nil
}

// GetByID retrieves a user by its unique ID (full document).
func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// GetByEmail retrieves a user by its email address (full document).
func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", database.Translate(err))
	}
	return &user, nil
}

// UpdateProfile writes the editable fields with $set so concurrent session
// changes are never overwritten.
func (r *MongoUserRepo) UpdateProfile(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":         user.Name,
		"phoneNumber":  user.PhoneNumber,
		"province":     user.Province,
		"city":         user.City,
		"profileImage": user.ProfileImage,
		"fcmToken":     user.FCMToken,
		"updatedAt":    time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": user.ID}, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to update user with id %s: %w", user.ID, database.Translate(err))
	}
	return &stored, nil
}

// SetPassword replaces the password hash only.
func (r *MongoUserRepo) SetPassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{
		"passwordHash": passwordHash,
		"updatedAt":    time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to set password of user %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user with id %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// Delete removes a user document by its ID.
func (r *MongoUserRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("user with id %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// List returns a page of users, newest first, excluding credentials.
func (r *MongoUserRepo) List(ctx context.Context, filter models.UserListFilter) ([]models.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	page := models.Page{Page: filter.Page, Limit: filter.Limit}.Normalize()

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	opts := options.Find().
		SetProjection(bson.M{"passwordHash": 0, "fcmToken": 0, "sessions.tokenHash": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, total, nil
}

// SaveSession replaces the session with the same device ID, or appends it.
func (r *MongoUserRepo) SaveSession(ctx context.Context, userID string, session models.Session) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$pull": bson.M{"sessions": bson.M{"deviceId": session.DeviceID}}},
	); err != nil {
		return fmt.Errorf("failed to clear session for user %s: %w", userID, err)
	}

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{
			"$push": bson.M{"sessions": session},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to save session for user %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user with id %s: %w", userID, database.ErrNotFound)
	}
	return nil
}

// RemoveSessions pulls every session except keepDeviceID.
func (r *MongoUserRepo) RemoveSessions(ctx context.Context, userID, keepDeviceID string) ([]string, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, s := range user.Sessions {
		if s.DeviceID != keepDeviceID {
			removed = append(removed, s.DeviceID)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"sessions": bson.M{"deviceId": bson.M{"$in": removed}}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": userID}, update); err != nil {
		return nil, fmt.Errorf("failed to remove sessions for user %s: %w", userID, err)
	}
	return removed, nil
}

// RemoveSession pulls the session of deviceID.
func (r *MongoUserRepo) RemoveSession(ctx context.Context, userID, deviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"sessions": bson.M{"deviceId": deviceID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove session for user %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user with id %s: %w", userID, database.ErrNotFound)
	}
	return nil
}
