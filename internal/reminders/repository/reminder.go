package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eventms/pkg/config"
	"eventms/pkg/model"
)

const (
	CollectionName = "Reminders"
)

type mongoReminderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ReminderRepository interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	FindDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	DeleteByEvent(ctx context.Context, eventID string) error
}

func NewMongoReminderRepository(cfg *config.Config) ReminderRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReminderRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reminder.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if reminder.Status == "" {
		reminder.Status = model.ReminderStatusScheduled
	}

	result, err := r.collection.InsertOne(ctx, reminder)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reminder.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReminderRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":  model.ReminderStatusScheduled,
		"send_at": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "send_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find due reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var reminders []*model.Reminder
	if err = cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("failed to decode reminders: %w", err)
	}

	return reminders, nil
}

func (r *mongoReminderRepository) MarkSent(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, bson.M{"status": model.ReminderStatusSent})
}

func (r *mongoReminderRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.setStatus(ctx, id, bson.M{"status": model.ReminderStatusFailed, "error": reason})
}

func (r *mongoReminderRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return fmt.Errorf("failed to delete reminders for event: %w", err)
	}
	return nil
}

func (r *mongoReminderRepository) setStatus(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid reminder ID: %s", id)
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update reminder status: %w", err)
	}
	return nil
}
