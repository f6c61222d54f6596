package repository

import (
	"context"
	"fmt"
	bookingerrors "nido/internal/bookings/errors"
	"nido/pkg/config"
	"nido/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "SlotLocks"
	lockIDPrefix       = "slot_lock_"
)

// SlotLockRepository provides advisory locks keyed by slot. Acquisition is an
// insert against a unique _id; a duplicate key means another writer holds the
// lock. A TTL index on expires_at reaps locks from crashed holders.
type SlotLockRepository interface {
	Acquire(ctx context.Context, slotID string, ttl time.Duration) (*model.SlotLock, error)
	Release(ctx context.Context, slotID string) error
}

type mongoSlotLockRepository struct {
	collection *mongo.Collection
}

func NewSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func LockID(slotID string) string {
	return lockIDPrefix + slotID
}

func (r *mongoSlotLockRepository) Acquire(ctx context.Context, slotID string, ttl time.Duration) (*model.SlotLock, error) {
	now := time.Now().UTC()
	lock := &model.SlotLock{
		ID:        LockID(slotID),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingerrors.ErrLockHeld
		}
		return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
	}

	return lock, nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, slotID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": LockID(slotID)})
	if err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
