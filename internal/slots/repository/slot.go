package repository

import (
	"context"
	"errors"
	"fmt"
	sloterrors "nido/internal/slots/errors"
	"nido/pkg/config"
	mongotx "nido/pkg/db/mongo"
	"nido/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "AvailabilitySlots"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *model.AvailabilitySlot) error
	FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	FindByPage(ctx context.Context, pageID string, includeExpired bool, now time.Time) ([]*model.AvailabilitySlot, error)
	Update(ctx context.Context, id string, slot *model.AvailabilitySlot) (*mongo.UpdateResult, error)
	SetStatus(ctx context.Context, id string, status model.SlotStatus) error
	Delete(ctx context.Context, id string) error
	ReserveCapacity(ctx context.Context, id string, guests int) (bool, error)
	ReleaseCapacity(ctx context.Context, id string, guests int) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSlotRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless it is a transaction
// session context, which must not be wrapped.
func (r *mongoSlotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoSlotRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	slot.CreatedAt = now
	slot.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to create availability slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, id)
	}

	var slot model.AvailabilitySlot
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sloterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find availability slot: %w", err)
	}

	return &slot, nil
}

func (r *mongoSlotRepository) FindByPage(ctx context.Context, pageID string, includeExpired bool, now time.Time) ([]*model.AvailabilitySlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"baby_page_id": pageID,
		"status":       model.SlotActive,
	}
	if !includeExpired {
		filter["start_time"] = bson.M{"$gte": now}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.AvailabilitySlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode availability slots: %w", err)
	}

	return slots, nil
}

// Update writes the slot's owner-editable settings. The $set list is the
// exclusive mutation path for these fields; current_bookings and status are
// deliberately not part of it.
func (r *mongoSlotRepository) Update(ctx context.Context, id string, slot *model.AvailabilitySlot) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"start_time":              slot.StartTime,
			"end_time":                slot.EndTime,
			"max_guests":              slot.MaxGuests,
			"visit_duration_min":      slot.VisitDurationMin,
			"meal_available":          slot.MealAvailable,
			"meal_preferences":        slot.MealPreferences,
			"booking_mode":            slot.BookingMode,
			"minimum_lead_time_hours": slot.MinimumLeadTimeHours,
			"updated_at":              time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update availability slot: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, sloterrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoSlotRepository) SetStatus(ctx context.Context, id string, status model.SlotStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to set availability slot status: %w", err)
	}

	if result.MatchedCount == 0 {
		return sloterrors.ErrNotFound
	}

	return nil
}

func (r *mongoSlotRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete availability slot: %w", err)
	}

	if result.DeletedCount == 0 {
		return sloterrors.ErrNotFound
	}

	return nil
}

// ReserveCapacity increments current_bookings by guests, but only while the
// slot is still active and the result stays within max_guests. The filter
// re-checks both conditions server-side, so a concurrent writer that got in
// first makes this a no-match rather than an overcommit. Returns whether the
// reservation was applied.
func (r *mongoSlotRepository) ReserveCapacity(ctx context.Context, id string, guests int) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": model.SlotActive,
		"$expr": bson.M{
			"$lte": bson.A{
				bson.M{"$add": bson.A{"$current_bookings", guests}},
				"$max_guests",
			},
		},
	}

	update := bson.M{
		"$inc": bson.M{"current_bookings": guests},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to reserve slot capacity: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

// ReleaseCapacity decrements current_bookings by guests, guarded so the
// counter can never go negative.
func (r *mongoSlotRepository) ReleaseCapacity(ctx context.Context, id string, guests int) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":              objectID,
		"current_bookings": bson.M{"$gte": guests},
	}

	update := bson.M{
		"$inc": bson.M{"current_bookings": -guests},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to release slot capacity: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

func (r *mongoSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
