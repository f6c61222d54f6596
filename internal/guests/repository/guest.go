package repository

import (
	"context"
	"errors"
	"fmt"
	guesterrors "nido/internal/guests/errors"
	"nido/pkg/config"
	"nido/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "GuestLists"
)

type GuestRepository interface {
	Create(ctx context.Context, guest *model.Guest) error
	FindByID(ctx context.Context, id string) (*model.Guest, error)
	FindByPage(ctx context.Context, pageID string, status model.VisitStatus) ([]*model.Guest, error)
	FindByEmail(ctx context.Context, pageID, email string) (*model.Guest, error)
	FindTagAlongEligible(ctx context.Context, pageID string) ([]*model.Guest, error)
	Update(ctx context.Context, id string, fields bson.M) error
	LinkToUser(ctx context.Context, id string, userID string) error
	MarkBooked(ctx context.Context, pageID, linkedUserID, email string) (bool, error)
	RecordVisit(ctx context.Context, pageID, linkedUserID, email string, visitedAt time.Time) (bool, error)
	RecordVisitByID(ctx context.Context, id string, visitedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type mongoGuestRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoGuestRepository(cfg *config.Config) GuestRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoGuestRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoGuestRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoGuestRepository) Create(ctx context.Context, guest *model.Guest) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	guest.CreatedAt = now
	guest.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, guest)
	if err != nil {
		return fmt.Errorf("failed to create guest: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		guest.ID = oid.Hex()
	}
	return nil
}

func (r *mongoGuestRepository) FindByID(ctx context.Context, id string) (*model.Guest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", guesterrors.ErrInvalidID, id)
	}

	var guest model.Guest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&guest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, guesterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find guest: %w", err)
	}

	return &guest, nil
}

func (r *mongoGuestRepository) FindByPage(ctx context.Context, pageID string, status model.VisitStatus) ([]*model.Guest, error) {
	filter := bson.M{"baby_page_id": pageID}
	if status != "" {
		filter["visit_status"] = status
	}
	return r.find(ctx, filter)
}

func (r *mongoGuestRepository) FindByEmail(ctx context.Context, pageID, email string) (*model.Guest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var guest model.Guest
	err := r.collection.FindOne(ctx, bson.M{"baby_page_id": pageID, "email": email}).Decode(&guest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, guesterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find guest by email: %w", err)
	}

	return &guest, nil
}

func (r *mongoGuestRepository) FindTagAlongEligible(ctx context.Context, pageID string) ([]*model.Guest, error) {
	return r.find(ctx, bson.M{"baby_page_id": pageID, "can_be_tag_along": true})
}

func (r *mongoGuestRepository) find(ctx context.Context, filter bson.M) ([]*model.Guest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find guests: %w", err)
	}
	defer cursor.Close(ctx)

	var guests []*model.Guest
	if err = cursor.All(ctx, &guests); err != nil {
		return nil, fmt.Errorf("failed to decode guests: %w", err)
	}

	return guests, nil
}

func (r *mongoGuestRepository) Update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", guesterrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update guest: %w", err)
	}

	if result.MatchedCount == 0 {
		return guesterrors.ErrNotFound
	}

	return nil
}

func (r *mongoGuestRepository) LinkToUser(ctx context.Context, id string, userID string) error {
	return r.Update(ctx, id, bson.M{"linked_user_id": userID})
}

// MarkBooked flips the guest's visit status to booked when a booking is
// created for them, matched by linked user ID first and email second. A
// repeat visitor goes from visited back to booked while they have an
// upcoming visit. Returns whether any guest matched.
func (r *mongoGuestRepository) MarkBooked(ctx context.Context, pageID, linkedUserID, email string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"visit_status": model.VisitBooked,
			"updated_at":   time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	if linkedUserID != "" {
		result, err := r.collection.UpdateOne(ctx,
			bson.M{"baby_page_id": pageID, "linked_user_id": linkedUserID},
			update,
		)
		if err != nil {
			return false, fmt.Errorf("failed to mark guest booked: %w", err)
		}
		if result.MatchedCount == 1 {
			return true, nil
		}
	}

	if email == "" {
		return false, nil
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"baby_page_id": pageID, "email": email},
		update,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark guest booked: %w", err)
	}

	return result.MatchedCount == 1, nil
}

// RecordVisit credits one completed visit to the guest matching the page and
// either the linked user ID or, failing that, the email. The increment and
// the ledger stamps go in a single update so the count cannot drift. Returns
// whether any guest matched.
func (r *mongoGuestRepository) RecordVisit(ctx context.Context, pageID, linkedUserID, email string, visitedAt time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"total_visits": 1},
		"$set": bson.M{
			"visit_status":    model.Visited,
			"last_visit_date": visitedAt,
			"updated_at":      time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	if linkedUserID != "" {
		result, err := r.collection.UpdateOne(ctx,
			bson.M{"baby_page_id": pageID, "linked_user_id": linkedUserID},
			update,
		)
		if err != nil {
			return false, fmt.Errorf("failed to record visit: %w", err)
		}
		if result.ModifiedCount == 1 {
			return true, nil
		}
	}

	if email == "" {
		return false, nil
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"baby_page_id": pageID, "email": email},
		update,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record visit: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

// RecordVisitByID credits one visit to a known guest.
func (r *mongoGuestRepository) RecordVisitByID(ctx context.Context, id string, visitedAt time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", guesterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$inc": bson.M{"total_visits": 1},
		"$set": bson.M{
			"visit_status":    model.Visited,
			"last_visit_date": visitedAt,
			"updated_at":      time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}

	if result.MatchedCount == 0 {
		return guesterrors.ErrNotFound
	}

	return nil
}

func (r *mongoGuestRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", guesterrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}

	if result.DeletedCount == 0 {
		return guesterrors.ErrNotFound
	}

	return nil
}
