package statsRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tecnicosrd/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatsRepository runs the read-only aggregations behind the admin dashboard.
type StatsRepository interface {
	CountUsersByRole(ctx context.Context) (map[string]int64, error)
	CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountVerifiedTechnicians(ctx context.Context) (int64, error)
	BookingTotals(ctx context.Context, from, to time.Time) (*models.BookingTotals, error)
	DailyBookings(ctx context.Context, from, to time.Time) ([]models.DailyCount, error)
	TopTechnicians(ctx context.Context, limit int) ([]models.TechnicianSummary, error)
	AverageRating(ctx context.Context) (float64, error)
}

type MongoStatsRepo struct {
	users       *mongo.Collection
	technicians *mongo.Collection
	bookings    *mongo.Collection
	reviews     *mongo.Collection
}

func NewMongoStatsRepo(db *mongo.Database) StatsRepository {
	return &MongoStatsRepo{
		users:       db.Collection("users"),
		technicians: db.Collection("technicians"),
		bookings:    db.Collection("bookings"),
		reviews:     db.Collection("reviews"),
	}
}

func (r *MongoStatsRepo) CountUsersByRole(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode role counts: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

func (r *MongoStatsRepo) CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	n, err := r.users.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}})
	if err != nil {
		return 0, fmt.Errorf("failed to count new users: %w", err)
	}
	return n, nil
}

func (r *MongoStatsRepo) CountVerifiedTechnicians(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	n, err := r.technicians.CountDocuments(ctx, bson.M{"verified": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count verified technicians: %w", err)
	}
	return n, nil
}

func (r *MongoStatsRepo) BookingTotals(ctx context.Context, from, to time.Time) (*models.BookingTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "price", Value: bson.D{{Key: "$sum", Value: "$price"}}},
			{Key: "fee", Value: bson.D{{Key: "$sum", Value: "$platformFee"}}},
		}}},
	}
	cursor, err := r.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.BookingStatus `bson:"_id"`
		Count  int64                `bson:"count"`
		Price  float64              `bson:"price"`
		Fee    float64              `bson:"fee"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode booking totals: %w", err)
	}

	totals := &models.BookingTotals{ByStatus: map[models.BookingStatus]int64{}}
	for _, row := range rows {
		totals.ByStatus[row.Status] = row.Count
		// revenue only counts work actually delivered
		if row.Status == models.StatusCompleted {
			totals.GrossRevenue = row.Price
			totals.PlatformRevenue = row.Fee
		}
	}
	return totals, nil
}

func (r *MongoStatsRepo) DailyBookings(ctx context.Context, from, to time.Time) ([]models.DailyCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$createdAt"},
				{Key: "timezone", Value: mongoTimezone(from)},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$status", models.StatusCompleted}}},
				"$price",
				0,
			}}}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily bookings: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.DailyCount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode daily bookings: %w", err)
	}
	return out, nil
}

func (r *MongoStatsRepo) TopTechnicians(ctx context.Context, limit int) ([]models.TechnicianSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "completedJobs", Value: -1}, {Key: "rating", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: r.bookings.Name()},
			{Key: "let", Value: bson.D{{Key: "tid", Value: "$id"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$technicianId", "$$tid"}}},
					bson.D{{Key: "$eq", Value: bson.A{"$status", models.StatusCompleted}}},
				}}}}}}},
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$price"}}},
				}}},
			}},
			{Key: "as", Value: "earnings"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "id", Value: 1},
			{Key: "displayName", Value: 1},
			{Key: "completedJobs", Value: 1},
			{Key: "rating", Value: 1},
			{Key: "revenue", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$earnings.revenue", 0}}},
				0,
			}}}},
		}}},
	}
	cursor, err := r.technicians.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top technicians: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.TechnicianSummary{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode top technicians: %w", err)
	}
	return out, nil
}

func (r *MongoStatsRepo) AverageRating(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}
	cursor, err := r.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate average rating: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode average rating: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}

// mongoTimezone names the zone of t the way $dateToString accepts it: an Olson
// name when there is one, otherwise the UTC offset of t.
func mongoTimezone(t time.Time) string {
	name := t.Location().String()
	if name == "UTC" || strings.Contains(name, "/") {
		return name
	}
	return t.Format("-07:00")
}
