package service

import (
	"context"
	"fmt"
	bookingerrors "nido/internal/bookings/errors"
	"nido/internal/bookings/events"
	"nido/internal/bookings/validator"
	sloterrors "nido/internal/slots/errors"
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

// Mock repositories for testing

type mockBookingRepository struct {
	createFunc             func(ctx context.Context, booking *model.Booking) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Booking, error)
	updateStatusFunc       func(ctx context.Context, id string, from, to model.BookingStatus, stampField string, stamp time.Time) error
	executeTransactionFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "68b100000000000000000001"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingerrors.ErrNotFound
}

func (m *mockBookingRepository) FindActiveBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindForPage(ctx context.Context, pageID string, status model.BookingStatus) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindForVisitor(ctx context.Context, visitorID string, status model.BookingStatus) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, stampField string, stamp time.Time) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to, stampField, stamp)
	}
	return nil
}

func (m *mockBookingRepository) SetParentNotes(ctx context.Context, id string, notes string) error {
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLockRepository struct {
	acquireFunc  func(ctx context.Context, slotID string, ttl time.Duration) (*model.SlotLock, error)
	releaseCalls int
}

func (m *mockLockRepository) Acquire(ctx context.Context, slotID string, ttl time.Duration) (*model.SlotLock, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, slotID, ttl)
	}
	return &model.SlotLock{ID: "slot_lock_" + slotID}, nil
}

func (m *mockLockRepository) Release(ctx context.Context, slotID string) error {
	m.releaseCalls++
	return nil
}

type mockSlotRepository struct {
	slot         *model.AvailabilitySlot
	reserveCalls []int
	releaseCalls []int
	reserveOK    bool
	releaseOK    bool
	findErr      error
	findByIDFunc func(ctx context.Context, id string) (*model.AvailabilitySlot, error)
}

func (m *mockSlotRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	return nil
}

func (m *mockSlotRepository) FindByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.slot, nil
}

func (m *mockSlotRepository) FindByPage(ctx context.Context, pageID string, includeExpired bool, now time.Time) ([]*model.AvailabilitySlot, error) {
	return nil, nil
}

func (m *mockSlotRepository) Update(ctx context.Context, id string, slot *model.AvailabilitySlot) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockSlotRepository) SetStatus(ctx context.Context, id string, status model.SlotStatus) error {
	return nil
}

func (m *mockSlotRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockSlotRepository) ReserveCapacity(ctx context.Context, id string, guests int) (bool, error) {
	m.reserveCalls = append(m.reserveCalls, guests)
	return m.reserveOK, nil
}

func (m *mockSlotRepository) ReleaseCapacity(ctx context.Context, id string, guests int) (bool, error) {
	m.releaseCalls = append(m.releaseCalls, guests)
	return m.releaseOK, nil
}

func (m *mockSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockLedger struct {
	calls       int
	bookedCalls int
	matched     bool
	pageID      string
	userID      string
	email       string
}

func (m *mockLedger) MarkBooked(ctx context.Context, pageID, linkedUserID, email string) (bool, error) {
	m.bookedCalls++
	return m.matched, nil
}

func (m *mockLedger) RecordVisit(ctx context.Context, pageID, linkedUserID, email string, visitedAt time.Time) (bool, error) {
	m.calls++
	m.pageID = pageID
	m.userID = linkedUserID
	m.email = email
	return m.matched, nil
}

func newTestConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	return &config.Config{
		Log:                  log,
		ReadTimeout:          5 * time.Second,
		WriteTimeout:         5 * time.Second,
		BookingRetryAttempts: 3,
		BookingRetryBackoff:  time.Millisecond,
		SlotLockTTL:          10 * time.Second,
	}
}

type testEnv struct {
	svc      BookingService
	repo     *mockBookingRepository
	lockRepo *mockLockRepository
	slotRepo *mockSlotRepository
	ledger   *mockLedger
	now      time.Time
}

func newTestEnv(slot *model.AvailabilitySlot) *testEnv {
	cfg := newTestConfig()
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	repo := &mockBookingRepository{}
	lockRepo := &mockLockRepository{}
	slotRepo := &mockSlotRepository{slot: slot, reserveOK: true, releaseOK: true}
	ledger := &mockLedger{matched: true}

	svc := NewBookingService(
		repo,
		lockRepo,
		slotRepo,
		ledger,
		validator.NewBookingValidator(cfg.Log),
		events.NopPublisher{},
		cfg,
		&clock.Fixed{Time: now},
	)

	return &testEnv{
		svc:      svc,
		repo:     repo,
		lockRepo: lockRepo,
		slotRepo: slotRepo,
		ledger:   ledger,
		now:      now,
	}
}

// activeSlot returns a slot starting comfortably beyond the lead time window
// relative to the test clock (2026-09-10 12:00 UTC).
func activeSlot(mode model.BookingMode, maxGuests, currentBookings int) *model.AvailabilitySlot {
	start := time.Date(2026, 9, 11, 14, 0, 0, 0, time.UTC)
	return &model.AvailabilitySlot{
		ID:                   "68b000000000000000000001",
		BabyPageID:           "page-1",
		OwnerID:              "owner-1",
		StartTime:            start,
		EndTime:              start.Add(4 * time.Hour),
		MaxGuests:            maxGuests,
		VisitDurationMin:     60,
		BookingMode:          mode,
		MinimumLeadTimeHours: 2,
		Status:               model.SlotActive,
		CurrentBookings:      currentBookings,
	}
}

func newBooking(slot *model.AvailabilitySlot, tagAlongs ...model.TagAlong) *model.Booking {
	return &model.Booking{
		BabyPageID:         slot.BabyPageID,
		AvailabilitySlotID: slot.ID,
		VisitorID:          "visitor-1",
		VisitorName:        "Dana",
		VisitorEmail:       "dana@example.com",
		ArrivalTime:        slot.StartTime.Add(30 * time.Minute),
		TagAlongs:          tagAlongs,
	}
}

func TestCreate_AutoConfirm(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	booking := newBooking(slot, model.TagAlong{GuestID: "guest-1", Name: "Omer"})
	if err := env.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.BookingConfirmed {
		t.Errorf("expected confirmed status under auto_confirm, got %q", booking.Status)
	}
	if booking.ConfirmedAt == nil || !booking.ConfirmedAt.Equal(env.now) {
		t.Errorf("expected confirmed_at stamped with clock time, got %v", booking.ConfirmedAt)
	}
	if booking.TotalGuestCount != 2 {
		t.Errorf("expected total guest count 2 (visitor + 1 tag-along), got %d", booking.TotalGuestCount)
	}
	if len(env.slotRepo.reserveCalls) != 1 || env.slotRepo.reserveCalls[0] != 2 {
		t.Errorf("expected one capacity reservation of 2, got %v", env.slotRepo.reserveCalls)
	}
	if env.lockRepo.releaseCalls != 1 {
		t.Errorf("expected slot lock released once, got %d", env.lockRepo.releaseCalls)
	}
	if env.ledger.bookedCalls != 1 {
		t.Errorf("expected guest marked booked once, got %d", env.ledger.bookedCalls)
	}
}

func TestCreate_ManualApproval(t *testing.T) {
	slot := activeSlot(model.ManualApproval, 4, 0)
	env := newTestEnv(slot)

	booking := newBooking(slot)
	if err := env.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.BookingPending {
		t.Errorf("expected pending status under manual_approval, got %q", booking.Status)
	}
	if booking.ConfirmedAt != nil {
		t.Errorf("expected no confirmed_at stamp, got %v", booking.ConfirmedAt)
	}
}

func TestCreate_IgnoresClientSuppliedCountAndStatus(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	booking := newBooking(slot)
	booking.TotalGuestCount = 40
	booking.Status = model.BookingCompleted

	if err := env.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.TotalGuestCount != 1 {
		t.Errorf("expected derived total guest count 1, got %d", booking.TotalGuestCount)
	}
}

func TestCreate_CapacityExactFit(t *testing.T) {
	// 2 spots left, visitor brings 1 tag-along: exactly fills the slot.
	slot := activeSlot(model.AutoConfirm, 4, 2)
	env := newTestEnv(slot)

	booking := newBooking(slot, model.TagAlong{GuestID: "guest-1", Name: "Omer"})
	if err := env.svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("exact-fit booking should succeed, got %v", err)
	}
}

func TestCreate_CapacityExceeded(t *testing.T) {
	// 2 spots left, booking needs 3.
	slot := activeSlot(model.AutoConfirm, 4, 2)
	env := newTestEnv(slot)

	booking := newBooking(slot,
		model.TagAlong{GuestID: "guest-1", Name: "Omer"},
		model.TagAlong{GuestID: "guest-2", Name: "Noa"},
	)
	err := env.svc.Create(context.Background(), booking)
	if !apperrors.IsCode(err, apperrors.CodeCapacityExceeded) {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
	}
	if len(env.slotRepo.reserveCalls) != 0 {
		t.Errorf("expected no reservation attempt after capacity check failed, got %v", env.slotRepo.reserveCalls)
	}
}

func TestCreate_CancelledSlot(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	slot.Status = model.SlotCancelled
	env := newTestEnv(slot)

	err := env.svc.Create(context.Background(), newBooking(slot))
	if !apperrors.IsCode(err, apperrors.CodeSlotUnavailable) {
		t.Fatalf("expected SLOT_UNAVAILABLE, got %v", err)
	}
}

func TestCreate_LeadTimeBoundary(t *testing.T) {
	tests := []struct {
		name     string
		startIn  time.Duration
		wantCode string
	}{
		{name: "just under lead time", startIn: time.Hour + 59*time.Minute, wantCode: apperrors.CodeLeadTimeViolation},
		{name: "just over lead time", startIn: 2*time.Hour + time.Minute},
		{name: "exactly lead time", startIn: 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := activeSlot(model.AutoConfirm, 4, 0)
			env := newTestEnv(slot)
			slot.StartTime = env.now.Add(tt.startIn)
			slot.EndTime = slot.StartTime.Add(4 * time.Hour)

			booking := newBooking(slot)
			booking.ArrivalTime = slot.StartTime.Add(30 * time.Minute)

			err := env.svc.Create(context.Background(), booking)
			if tt.wantCode != "" {
				if !apperrors.IsCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreate_ArrivalOutsideWindow(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	booking := newBooking(slot)
	booking.ArrivalTime = slot.EndTime.Add(time.Minute)

	err := env.svc.Create(context.Background(), booking)
	if !apperrors.IsCode(err, apperrors.CodeInvalidArrivalTime) {
		t.Fatalf("expected INVALID_ARRIVAL_TIME, got %v", err)
	}
}

func TestCreate_SlotNotFound(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)
	env.slotRepo.findErr = sloterrors.ErrNotFound

	err := env.svc.Create(context.Background(), newBooking(slot))
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreate_LockContentionExhaustsRetries(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	attempts := 0
	env.lockRepo.acquireFunc = func(ctx context.Context, slotID string, ttl time.Duration) (*model.SlotLock, error) {
		attempts++
		return nil, bookingerrors.ErrLockHeld
	}

	err := env.svc.Create(context.Background(), newBooking(slot))
	if !apperrors.IsCode(err, apperrors.CodeConcurrencyConflict) {
		t.Fatalf("expected CONCURRENCY_CONFLICT, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 acquire attempts, got %d", attempts)
	}
}

func TestCreate_GuardedReserveLosesRace(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)
	env.slotRepo.reserveOK = false

	err := env.svc.Create(context.Background(), newBooking(slot))
	if !apperrors.IsCode(err, apperrors.CodeCapacityExceeded) {
		t.Fatalf("expected CAPACITY_EXCEEDED when the guarded increment misses, got %v", err)
	}
}

func TestCreate_GuardedReserveMissesOnCancelledSlot(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)
	env.slotRepo.reserveOK = false

	// First read sees the active slot; the re-read after the guard misses
	// sees it cancelled by a concurrent update.
	reads := 0
	env.slotRepo.findByIDFunc = func(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
		reads++
		if reads > 1 {
			cancelled := *slot
			cancelled.Status = model.SlotCancelled
			return &cancelled, nil
		}
		return slot, nil
	}

	err := env.svc.Create(context.Background(), newBooking(slot))
	if !apperrors.IsCode(err, apperrors.CodeSlotUnavailable) {
		t.Fatalf("expected SLOT_UNAVAILABLE when the slot was cancelled mid-flight, got %v", err)
	}
}

func TestGetByID_StoreDeadlineSurfacesAsTimeout(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return nil, fmt.Errorf("failed to find booking: %w", context.DeadlineExceeded)
	}

	_, err := env.svc.GetByID(context.Background(), "68b100000000000000000001")
	if !apperrors.IsCode(err, apperrors.CodeTimeout) {
		t.Fatalf("expected TIMEOUT for a store deadline overrun, got %v", err)
	}
}

func TestCreate_TransactionDeadlineSurfacesAsTimeout(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	env.repo.executeTransactionFunc = func(ctx context.Context, fn mongotx.TransactionFunc) error {
		return fmt.Errorf("transaction failed: %w", context.DeadlineExceeded)
	}

	err := env.svc.Create(context.Background(), newBooking(slot))
	if !apperrors.IsCode(err, apperrors.CodeTimeout) {
		t.Fatalf("expected TIMEOUT when the transaction hits its deadline, got %v", err)
	}
}

func TestConfirm_FromPending(t *testing.T) {
	slot := activeSlot(model.ManualApproval, 4, 0)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.BookingPending, AvailabilitySlotID: slot.ID, TotalGuestCount: 1}, nil
	}

	var gotStamp string
	env.repo.updateStatusFunc = func(ctx context.Context, id string, from, to model.BookingStatus, stampField string, stamp time.Time) error {
		if from != model.BookingPending || to != model.BookingConfirmed {
			t.Errorf("unexpected transition %s -> %s", from, to)
		}
		gotStamp = stampField
		return nil
	}

	if err := env.svc.Confirm(context.Background(), "68b100000000000000000001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStamp != "confirmed_at" {
		t.Errorf("expected confirmed_at stamp, got %q", gotStamp)
	}
}

func TestConfirm_AlreadyConfirmed(t *testing.T) {
	slot := activeSlot(model.ManualApproval, 4, 0)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.BookingConfirmed}, nil
	}

	err := env.svc.Confirm(context.Background(), "68b100000000000000000001")
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestCancel_ReleasesCapacityOnce(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 2)
	env := newTestEnv(slot)

	status := model.BookingConfirmed
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{
			ID:                 id,
			Status:             status,
			AvailabilitySlotID: slot.ID,
			TotalGuestCount:    2,
		}, nil
	}
	env.repo.updateStatusFunc = func(ctx context.Context, id string, from, to model.BookingStatus, stampField string, stamp time.Time) error {
		if from != status {
			return bookingerrors.ErrStaleStatus
		}
		status = to
		return nil
	}

	if err := env.svc.Cancel(context.Background(), "68b100000000000000000001"); err != nil {
		t.Fatalf("unexpected error on first cancel: %v", err)
	}
	if len(env.slotRepo.releaseCalls) != 1 || env.slotRepo.releaseCalls[0] != 2 {
		t.Fatalf("expected one capacity release of 2, got %v", env.slotRepo.releaseCalls)
	}

	// Second cancel: terminal status, no second decrement.
	err := env.svc.Cancel(context.Background(), "68b100000000000000000001")
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION on double cancel, got %v", err)
	}
	if len(env.slotRepo.releaseCalls) != 1 {
		t.Errorf("expected capacity released exactly once, got %d releases", len(env.slotRepo.releaseCalls))
	}
}

func TestCancel_FromPending(t *testing.T) {
	slot := activeSlot(model.ManualApproval, 4, 1)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.BookingPending, AvailabilitySlotID: slot.ID, TotalGuestCount: 1}, nil
	}

	if err := env.svc.Cancel(context.Background(), "68b100000000000000000001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.slotRepo.releaseCalls) != 1 {
		t.Errorf("expected pending booking cancel to release capacity, got %v", env.slotRepo.releaseCalls)
	}
}

func TestComplete_RecordsVisit(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 1)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{
			ID:                 id,
			Status:             model.BookingConfirmed,
			BabyPageID:         "page-1",
			AvailabilitySlotID: slot.ID,
			VisitorID:          "visitor-1",
			VisitorEmail:       "dana@example.com",
			TotalGuestCount:    1,
		}, nil
	}

	if err := env.svc.Complete(context.Background(), "68b100000000000000000001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env.ledger.calls != 1 {
		t.Fatalf("expected one ledger visit record, got %d", env.ledger.calls)
	}
	if env.ledger.pageID != "page-1" || env.ledger.userID != "visitor-1" || env.ledger.email != "dana@example.com" {
		t.Errorf("ledger received wrong attribution: page=%q user=%q email=%q", env.ledger.pageID, env.ledger.userID, env.ledger.email)
	}
	if len(env.slotRepo.releaseCalls) != 0 {
		t.Errorf("completion must not release capacity, got %v", env.slotRepo.releaseCalls)
	}
}

func TestComplete_AlreadyCompletedIsNoOp(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 1)
	env := newTestEnv(slot)

	updateCalls := 0
	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.BookingCompleted}, nil
	}
	env.repo.updateStatusFunc = func(ctx context.Context, id string, from, to model.BookingStatus, stampField string, stamp time.Time) error {
		updateCalls++
		return nil
	}

	if err := env.svc.Complete(context.Background(), "68b100000000000000000001"); err != nil {
		t.Fatalf("expected idempotent no-op, got %v", err)
	}
	if updateCalls != 0 {
		t.Errorf("expected no status write on repeated complete, got %d", updateCalls)
	}
	if env.ledger.calls != 0 {
		t.Errorf("expected no second ledger credit, got %d", env.ledger.calls)
	}
}

func TestComplete_FromPending(t *testing.T) {
	slot := activeSlot(model.ManualApproval, 4, 1)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.BookingPending}, nil
	}

	err := env.svc.Complete(context.Background(), "68b100000000000000000001")
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION for pending -> completed, got %v", err)
	}
}

func TestMarkNoShow_KeepsCapacity(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 1)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.BookingConfirmed, AvailabilitySlotID: slot.ID, TotalGuestCount: 1}, nil
	}

	if err := env.svc.MarkNoShow(context.Background(), "68b100000000000000000001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.slotRepo.releaseCalls) != 0 {
		t.Errorf("no-show must not release capacity, got %v", env.slotRepo.releaseCalls)
	}
	if env.ledger.calls != 0 {
		t.Errorf("no-show must not credit the ledger, got %d calls", env.ledger.calls)
	}
}

func TestMarkNoShow_FromCancelled(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	env.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.BookingCancelled}, nil
	}

	err := env.svc.MarkNoShow(context.Background(), "68b100000000000000000001")
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestListForPage_RejectsUnknownStatusFilter(t *testing.T) {
	slot := activeSlot(model.AutoConfirm, 4, 0)
	env := newTestEnv(slot)

	_, err := env.svc.ListForPage(context.Background(), "page-1", "waitlisted")
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}
