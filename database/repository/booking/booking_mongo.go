package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a new BookingRepository.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("bookings: failed to create indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.HoldsSlot = b.Status.IsActive()
	if b.History == nil {
		b.History = []models.StatusChange{}
	}
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to insert booking: %w", database.Translate(err))
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, database.Translate(err))
	}
	return &b, nil
}

func (r *MongoBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.CustomerID != "" {
		query["customerId"] = filter.CustomerID
	}
	if filter.TechnicianID != "" {
		query["technicianId"] = filter.TechnicianID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	page := filter.Page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "start", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Booking{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return out, total, nil
}

func (r *MongoBookingRepo) ActiveForTechnician(ctx context.Context, technicianID, fromDate, toDate string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"technicianId": technicianID,
		"holdsSlot":    true,
		"date":         bson.M{"$gte": fromDate, "$lte": toDate},
	}
	projection := options.Find().SetProjection(bson.M{
		"id": 1, "technicianId": 1, "date": 1, "start": 1, "end": 1, "status": 1,
	})
	cursor, err := r.coll.Find(ctx, filter, projection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active bookings: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Booking{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode active bookings: %w", err)
	}
	return out, nil
}

func (r *MongoBookingRepo) HasOverlap(ctx context.Context, technicianID, date string, start, end int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"technicianId": technicianID,
		"holdsSlot":    true,
		"date":         date,
		"start":        bson.M{"$lt": end},
		"end":          bson.M{"$gt": start},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check overlap: %w", err)
	}
	return n > 0, nil
}

func (r *MongoBookingRepo) Transition(ctx context.Context, id string, upd TransitionUpdate) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"status":    upd.Change.To,
		"holdsSlot": upd.Change.To.IsActive(),
		"updatedAt": upd.Change.At,
	}
	if upd.CancelReason != "" {
		set["cancelReason"] = upd.CancelReason
	}
	if upd.CancelledBy != "" {
		set["cancelledBy"] = upd.CancelledBy
	}
	if upd.PaymentStatus != "" {
		set["paymentStatus"] = upd.PaymentStatus
	}
	if upd.CompletedAt != nil {
		set["completedAt"] = *upd.CompletedAt
	}

	filter := bson.M{"id": id, "status": upd.Change.From}
	update := bson.M{"$set": set, "$push": bson.M{"history": upd.Change}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b)
	if err == nil {
		return &b, nil
	}
	if err = database.Translate(err); err != database.ErrNotFound {
		return nil, fmt.Errorf("failed to transition booking %s: %w", id, err)
	}

	// distinguish a missing booking from a lost race
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("booking %s left %s: %w", id, upd.Change.From, database.ErrConflict)
}

func (r *MongoBookingRepo) UpdatePayment(ctx context.Context, id, status, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"paymentStatus": status, "updatedAt": time.Now()}
	if ref != "" {
		set["paymentRef"] = ref
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment of booking %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *MongoBookingRepo) MarkReviewed(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "reviewed": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"reviewed": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark booking %s reviewed: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("booking %s already reviewed: %w", id, database.ErrConflict)
	}
	return nil
}

func (r *MongoBookingRepo) UnmarkReviewed(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "reviewed": true},
		bson.M{"$set": bson.M{"reviewed": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to release review claim of booking %s: %w", id, err)
	}
	return nil
}

func (r *MongoBookingRepo) ExpirablePending(ctx context.Context, before time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"status": models.StatusPending, "startsAt": bson.M{"$lt": before}}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetLimit(500))
	if err != nil {
		return nil, fmt.Errorf("failed to query expirable bookings: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Booking{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode expirable bookings: %w", err)
	}
	return out, nil
}
