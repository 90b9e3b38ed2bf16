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

	invitationserrors "eventms/internal/invitations/errors"
	"eventms/pkg/config"
	"eventms/pkg/model"
)

const (
	CollectionName = "Invitations"
)

type mongoInvitationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type InvitationRepository interface {
	CreateMany(ctx context.Context, invitations []*model.Invitation) error
	FindByEvent(ctx context.Context, eventID string) ([]*model.Invitation, error)
	FindByToken(ctx context.Context, token string) (*model.Invitation, error)
	SetResponse(ctx context.Context, id string, status string, respondedAt time.Time) error
	DeleteByEvent(ctx context.Context, eventID string) error
}

func NewMongoInvitationRepository(cfg *config.Config) InvitationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInvitationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoInvitationRepository) CreateMany(ctx context.Context, invitations []*model.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(invitations))
	for _, inv := range invitations {
		inv.CreatedAt = now
		if inv.Status == "" {
			inv.Status = model.InvitationStatusPending
		}
		docs = append(docs, inv)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create invitations: %w", err)
	}

	for i, insertedID := range result.InsertedIDs {
		if oid, ok := insertedID.(primitive.ObjectID); ok && i < len(invitations) {
			invitations[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoInvitationRepository) FindByEvent(ctx context.Context, eventID string) ([]*model.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find invitations: %w", err)
	}
	defer cursor.Close(ctx)

	var invitations []*model.Invitation
	if err = cursor.All(ctx, &invitations); err != nil {
		return nil, fmt.Errorf("failed to decode invitations: %w", err)
	}

	return invitations, nil
}

func (r *mongoInvitationRepository) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var invitation model.Invitation
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&invitation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, invitationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	return &invitation, nil
}

func (r *mongoInvitationRepository) SetResponse(ctx context.Context, id string, status string, respondedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", invitationserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"status":       status,
		"responded_at": respondedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to record invitation response: %w", err)
	}
	if result.MatchedCount == 0 {
		return invitationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoInvitationRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return fmt.Errorf("failed to delete invitations for event: %w", err)
	}
	return nil
}
