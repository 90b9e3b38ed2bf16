package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"eventms/pkg/config"
	"eventms/pkg/model"
)

// VenueLockRepository provides operations for per-venue advisory locks
type VenueLockRepository interface {
	Create(ctx context.Context, lock *model.VenueLock) (*model.VenueLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoVenueLockRepository struct {
	collection *mongo.Collection
}

func NewVenueLockRepository(cfg *config.Config) VenueLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVenueLockRepository{
		collection: db.Collection("Venue_locks"),
	}
}

// Returns duplicate key error if the venue is already locked
func (r *mongoVenueLockRepository) Create(ctx context.Context, lock *model.VenueLock) (*model.VenueLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// Delete removes an advisory lock
func (r *mongoVenueLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
