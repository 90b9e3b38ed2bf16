package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	venueserrors "eventms/internal/venues/errors"
	"eventms/pkg/config"
	"eventms/pkg/model"
)

const (
	CollectionName = "Venues"
)

type mongoVenueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) error
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	FindAll(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error)
	Update(ctx context.Context, id string, venue *model.Venue) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter *model.VenueFilter) (int64, error)
	Stats(ctx context.Context) (*model.VenueStats, error)
}

func NewMongoVenueRepository(cfg *config.Config) VenueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVenueRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoVenueRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	venue.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, venue)
	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		venue.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	var venue model.Venue
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&venue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, venueserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}

	return &venue, nil
}

func (r *mongoVenueRepository) FindAll(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "capacity", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, r.buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find venues: %w", err)
	}
	defer cursor.Close(ctx)

	var venues []*model.Venue
	if err = cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venues: %w", err)
	}

	return venues, nil
}

func (r *mongoVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":           venue.Name,
			"location":       venue.Location,
			"capacity":       venue.Capacity,
			"description":    venue.Description,
			"amenities":      venue.Amenities,
			"price_per_hour": venue.PricePerHour,
			"images":         venue.Images,
			"is_available":   venue.IsAvailable,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update venue: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, venueserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoVenueRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}

	if result.DeletedCount == 0 {
		return venueserrors.ErrNotFound
	}

	return nil
}

func (r *mongoVenueRepository) Count(ctx context.Context, filter *model.VenueFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, r.buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}

	return count, nil
}

func (r *mongoVenueRepository) Stats(ctx context.Context) (*model.VenueStats, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total_venues":   bson.M{"$sum": 1},
			"total_capacity": bson.M{"$sum": "$capacity"},
			"available_venues": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$is_available", 1, 0},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate venue stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []model.VenueStats
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode venue stats: %w", err)
	}

	if len(results) == 0 {
		return &model.VenueStats{}, nil
	}
	return &results[0], nil
}

func (r *mongoVenueRepository) buildFilter(filter *model.VenueFilter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}

	if filter.MinCapacity != nil || filter.MaxCapacity != nil {
		capacity := bson.M{}
		if filter.MinCapacity != nil {
			capacity["$gte"] = *filter.MinCapacity
		}
		if filter.MaxCapacity != nil {
			capacity["$lte"] = *filter.MaxCapacity
		}
		query["capacity"] = capacity
	}
	if filter.Location != "" {
		query["location"] = bson.M{"$regex": filter.Location, "$options": "i"}
	}
	if filter.AvailableOnly {
		query["is_available"] = true
	}

	return query
}
