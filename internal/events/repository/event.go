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

	eventserrors "eventms/internal/events/errors"
	"eventms/pkg/config"
	mongotx "eventms/pkg/db/mongo"
	"eventms/pkg/model"
)

const (
	CollectionName = "Events"
)

type mongoEventRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Event, error)
	Update(ctx context.Context, id string, event *model.Event) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	FindByCreator(ctx context.Context, userID string, limit int, offset int64) ([]*model.Event, error)
	FindByRegisteredUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Event, error)
	Search(ctx context.Context, criteria *model.EventSearch, limit int, offset int64) ([]*model.Event, error)
	CountSearch(ctx context.Context, criteria *model.EventSearch) (int64, error)
	FindActiveByVenue(ctx context.Context, venueID string, start *time.Time, end *time.Time) ([]*model.Event, error)
	FindActiveByVenues(ctx context.Context, venueIDs []string, start *time.Time, end *time.Time) ([]*model.Event, error)
	AddRegistration(ctx context.Context, eventID string, userID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoEventRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoEventRepository) Create(ctx context.Context, event *model.Event) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	event.CreatedAt = now
	event.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}

	var event model.Event
	err = r.collection.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	return &event, nil
}

func (r *mongoEventRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) Update(ctx context.Context, id string, event *model.Event) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	set := bson.M{
		"title":         event.Title,
		"description":   event.Description,
		"start_at":      event.StartAt,
		"timezone":      event.Timezone,
		"location":      event.Location,
		"venue_id":      event.VenueID,
		"status":        event.Status,
		"category":      event.Category,
		"guests":        event.Guests,
		"is_paid":       event.IsPaid,
		"price":         event.Price,
		"currency":      event.Currency,
		"max_attendees": event.MaxAttendees,
		"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
	}

	// An open-ended event stays open-ended in storage. The default duration
	// is applied at comparison time only, never persisted.
	update := bson.M{"$set": set}
	if event.EndAt != nil {
		set["end_at"] = event.EndAt
	} else {
		update["$unset"] = bson.M{"end_at": ""}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, eventserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoEventRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if result.DeletedCount == 0 {
		return eventserrors.ErrNotFound
	}

	return nil
}

func (r *mongoEventRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}

func (r *mongoEventRepository) FindByCreator(ctx context.Context, userID string, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"created_by": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events by creator: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) FindByRegisteredUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"registered_users": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events by registration: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) Search(ctx context.Context, criteria *model.EventSearch, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.buildSearchFilter(criteria)

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) CountSearch(ctx context.Context, criteria *model.EventSearch) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, r.buildSearchFilter(criteria))
	if err != nil {
		return 0, fmt.Errorf("failed to count events by search: %w", err)
	}
	return count, nil
}

func (r *mongoEventRepository) buildSearchFilter(criteria *model.EventSearch) bson.M {
	filter := bson.M{}

	if criteria.Query != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": criteria.Query, "$options": "i"}},
			{"description": bson.M{"$regex": criteria.Query, "$options": "i"}},
		}
	}
	if criteria.Category != "" {
		filter["category"] = criteria.Category
	}
	if criteria.Location != "" {
		filter["location"] = bson.M{"$regex": criteria.Location, "$options": "i"}
	}
	if criteria.IsPaid != nil {
		filter["is_paid"] = *criteria.IsPaid
	}
	if criteria.MinPrice != nil || criteria.MaxPrice != nil {
		price := bson.M{}
		if criteria.MinPrice != nil {
			price["$gte"] = *criteria.MinPrice
		}
		if criteria.MaxPrice != nil {
			price["$lte"] = *criteria.MaxPrice
		}
		filter["price"] = price
	}
	if criteria.StartDate != nil || criteria.EndDate != nil {
		window := bson.M{}
		if criteria.StartDate != nil {
			window["$gte"] = *criteria.StartDate
		}
		if criteria.EndDate != nil {
			window["$lte"] = *criteria.EndDate
		}
		filter["start_at"] = window
	}

	return filter
}

// FindActiveByVenue returns the conflict-check candidates for a venue:
// events that still occupy it, coarsely pre-filtered by the requested window.
// Open-ended events carry no end_at, so they always pass the prefilter and
// the caller decides overlap with the default duration applied.
func (r *mongoEventRepository) FindActiveByVenue(ctx context.Context, venueID string, start *time.Time, end *time.Time) ([]*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"venue_id": venueID,
		"status":   bson.M{"$nin": []string{model.EventStatusCompleted, model.EventStatusCancelled}},
	}
	if end != nil {
		filter["start_at"] = bson.M{"$lt": *end}
	}
	if start != nil {
		filter["$or"] = []bson.M{
			{"end_at": bson.M{"$gt": *start}},
			{"end_at": bson.M{"$exists": false}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events by venue: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

// FindActiveByVenues is the bulk variant used by venue availability search.
func (r *mongoEventRepository) FindActiveByVenues(ctx context.Context, venueIDs []string, start *time.Time, end *time.Time) ([]*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if len(venueIDs) == 0 {
		return nil, nil
	}

	filter := bson.M{
		"venue_id": bson.M{"$in": venueIDs},
		"status":   bson.M{"$nin": []string{model.EventStatusCompleted, model.EventStatusCancelled}},
	}
	if end != nil {
		filter["start_at"] = bson.M{"$lt": *end}
	}
	if start != nil {
		filter["$or"] = []bson.M{
			{"end_at": bson.M{"$gt": *start}},
			{"end_at": bson.M{"$exists": false}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events by venues: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) AddRegistration(ctx context.Context, eventID string, userID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, eventID)
	}

	update := bson.M{
		"$addToSet": bson.M{"registered_users": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	if result.MatchedCount == 0 {
		return eventserrors.ErrNotFound
	}

	return nil
}

func (r *mongoEventRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
