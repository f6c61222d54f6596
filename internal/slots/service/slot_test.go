package service

import (
	"context"
	"fmt"
	sloterrors "nido/internal/slots/errors"
	"nido/internal/slots/validator"
	"nido/pkg/clock"
	"nido/pkg/config"
	mongotx "nido/pkg/db/mongo"
	apperrors "nido/pkg/errors"
	"nido/pkg/logger"
	"nido/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repository for testing
type mockSlotRepository struct {
	createFunc          func(ctx context.Context, slot *model.AvailabilitySlot) error
	findByIDFunc        func(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	findByPageFunc      func(ctx context.Context, pageID string, includeExpired bool, now time.Time) ([]*model.AvailabilitySlot, error)
	updateFunc          func(ctx context.Context, id string, slot *model.AvailabilitySlot) (*mongo.UpdateResult, error)
	setStatusFunc       func(ctx context.Context, id string, status model.SlotStatus) error
	deleteFunc          func(ctx context.Context, id string) error
	reserveCapacityFunc func(ctx context.Context, id string, guests int) (bool, error)
	releaseCapacityFunc func(ctx context.Context, id string, guests int) (bool, error)
}

func (m *mockSlotRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, slot)
	}
	slot.ID = "68b000000000000000000001"
	return nil
}

func (m *mockSlotRepository) FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, sloterrors.ErrNotFound
}

func (m *mockSlotRepository) FindByPage(ctx context.Context, pageID string, includeExpired bool, now time.Time) ([]*model.AvailabilitySlot, error) {
	if m.findByPageFunc != nil {
		return m.findByPageFunc(ctx, pageID, includeExpired, now)
	}
	return []*model.AvailabilitySlot{}, nil
}

func (m *mockSlotRepository) Update(ctx context.Context, id string, slot *model.AvailabilitySlot) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, slot)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockSlotRepository) SetStatus(ctx context.Context, id string, status model.SlotStatus) error {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockSlotRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSlotRepository) ReserveCapacity(ctx context.Context, id string, guests int) (bool, error) {
	if m.reserveCapacityFunc != nil {
		return m.reserveCapacityFunc(ctx, id, guests)
	}
	return true, nil
}

func (m *mockSlotRepository) ReleaseCapacity(ctx context.Context, id string, guests int) (bool, error) {
	if m.releaseCapacityFunc != nil {
		return m.releaseCapacityFunc(ctx, id, guests)
	}
	return true, nil
}

func (m *mockSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

func newTestConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	return &config.Config{
		Log:                      log,
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             5 * time.Second,
		SlotMaxGuests:            4,
		SlotVisitDurationMin:     60,
		SlotBookingMode:          "auto_confirm",
		SlotMinimumLeadTimeHours: 2,
	}
}

func newTestService(repo *mockSlotRepository, clk clock.Clock) SlotService {
	cfg := newTestConfig()
	return NewSlotService(repo, validator.NewSlotValidator(cfg.Log), cfg, clk)
}

func TestCreate_AppliesDefaults(t *testing.T) {
	var created *model.AvailabilitySlot
	repo := &mockSlotRepository{
		createFunc: func(ctx context.Context, slot *model.AvailabilitySlot) error {
			created = slot
			return nil
		},
	}
	svc := newTestService(repo, clock.System())

	start := time.Now().Add(48 * time.Hour).UTC()
	slot := &model.AvailabilitySlot{
		BabyPageID: "  page-1  ",
		OwnerID:    "owner-1",
		StartTime:  start,
		EndTime:    start.Add(3 * time.Hour),
	}

	if err := svc.Create(context.Background(), slot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created == nil {
		t.Fatal("repository create was not called")
	}
	if created.BabyPageID != "page-1" {
		t.Errorf("expected trimmed page id, got %q", created.BabyPageID)
	}
	if created.MaxGuests != 4 {
		t.Errorf("expected default max guests 4, got %d", created.MaxGuests)
	}
	if created.VisitDurationMin != 60 {
		t.Errorf("expected default visit duration 60, got %d", created.VisitDurationMin)
	}
	if created.BookingMode != model.AutoConfirm {
		t.Errorf("expected default booking mode auto_confirm, got %q", created.BookingMode)
	}
	if created.MinimumLeadTimeHours != 2 {
		t.Errorf("expected default lead time 2, got %d", created.MinimumLeadTimeHours)
	}
	if created.Status != model.SlotActive {
		t.Errorf("expected status active, got %q", created.Status)
	}
	if created.CurrentBookings != 0 {
		t.Errorf("expected zero current bookings, got %d", created.CurrentBookings)
	}
}

func TestCreate_InvalidWindow(t *testing.T) {
	repo := &mockSlotRepository{}
	svc := newTestService(repo, clock.System())

	start := time.Now().Add(48 * time.Hour).UTC()
	slot := &model.AvailabilitySlot{
		BabyPageID: "page-1",
		OwnerID:    "owner-1",
		StartTime:  start,
		EndTime:    start.Add(-time.Hour),
	}

	err := svc.Create(context.Background(), slot)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
			return nil, sloterrors.ErrNotFound
		},
	}
	svc := newTestService(repo, clock.System())

	_, err := svc.GetByID(context.Background(), "68b000000000000000000009")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetByID_StoreDeadlineSurfacesAsTimeout(t *testing.T) {
	repo := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
			return nil, fmt.Errorf("failed to find availability slot: %w", context.DeadlineExceeded)
		},
	}
	svc := newTestService(repo, clock.System())

	_, err := svc.GetByID(context.Background(), "68b000000000000000000009")
	if !apperrors.IsCode(err, apperrors.CodeTimeout) {
		t.Errorf("expected TIMEOUT for a store deadline overrun, got %v", err)
	}
}

func TestGetByID_InvalidFormat(t *testing.T) {
	repo := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
			return nil, sloterrors.ErrInvalidID
		},
	}
	svc := newTestService(repo, clock.System())

	_, err := svc.GetByID(context.Background(), "not-an-id")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestListForPage_FiltersExpiredByClock(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	var gotNow time.Time
	var gotIncludeExpired bool

	repo := &mockSlotRepository{
		findByPageFunc: func(ctx context.Context, pageID string, includeExpired bool, at time.Time) ([]*model.AvailabilitySlot, error) {
			gotNow = at
			gotIncludeExpired = includeExpired
			return nil, nil
		},
	}
	svc := newTestService(repo, &clock.Fixed{Time: now})

	slots, err := svc.ListForPage(context.Background(), "page-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotNow.Equal(now) {
		t.Errorf("expected repository to receive clock time %v, got %v", now, gotNow)
	}
	if gotIncludeExpired {
		t.Error("expected includeExpired=false to be passed through")
	}
	if slots == nil {
		t.Error("expected empty non-nil slice for no results")
	}
}

func TestUpdate_RejectsShrinkBelowOccupancy(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	repo := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
			return &model.AvailabilitySlot{
				ID:              id,
				BabyPageID:      "page-1",
				OwnerID:         "owner-1",
				StartTime:       start,
				EndTime:         start.Add(2 * time.Hour),
				MaxGuests:       4,
				CurrentBookings: 3,
				Status:          model.SlotActive,
			}, nil
		},
	}
	svc := newTestService(repo, clock.System())

	newMax := 2
	err := svc.Update(context.Background(), "68b000000000000000000001", &model.AvailabilitySlotUpdate{MaxGuests: &newMax})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestUpdate_MergesPartialFields(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	var updated *model.AvailabilitySlot

	repo := &mockSlotRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
			return &model.AvailabilitySlot{
				ID:                   id,
				BabyPageID:           "page-1",
				OwnerID:              "owner-1",
				StartTime:            start,
				EndTime:              start.Add(2 * time.Hour),
				MaxGuests:            4,
				VisitDurationMin:     60,
				BookingMode:          model.AutoConfirm,
				MinimumLeadTimeHours: 2,
				Status:               model.SlotActive,
				CurrentBookings:      1,
			}, nil
		},
		updateFunc: func(ctx context.Context, id string, slot *model.AvailabilitySlot) (*mongo.UpdateResult, error) {
			updated = slot
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		},
	}
	svc := newTestService(repo, clock.System())

	newMax := 6
	newMode := model.ManualApproval
	err := svc.Update(context.Background(), "68b000000000000000000001", &model.AvailabilitySlotUpdate{
		MaxGuests:   &newMax,
		BookingMode: newMode,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.MaxGuests != 6 {
		t.Errorf("expected merged max guests 6, got %d", updated.MaxGuests)
	}
	if updated.BookingMode != model.ManualApproval {
		t.Errorf("expected merged booking mode manual_approval, got %q", updated.BookingMode)
	}
	if updated.VisitDurationMin != 60 {
		t.Errorf("expected untouched visit duration 60, got %d", updated.VisitDurationMin)
	}
}

func TestCancel_SetsCancelledStatus(t *testing.T) {
	var gotStatus model.SlotStatus
	repo := &mockSlotRepository{
		setStatusFunc: func(ctx context.Context, id string, status model.SlotStatus) error {
			gotStatus = status
			return nil
		},
	}
	svc := newTestService(repo, clock.System())

	if err := svc.Cancel(context.Background(), "68b000000000000000000001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStatus != model.SlotCancelled {
		t.Errorf("expected status cancelled, got %q", gotStatus)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockSlotRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			return sloterrors.ErrNotFound
		},
	}
	svc := newTestService(repo, clock.System())

	err := svc.Delete(context.Background(), "68b000000000000000000009")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
