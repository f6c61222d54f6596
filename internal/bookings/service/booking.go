package service

import (
	"context"
	"errors"
	"fmt"
	bookingerrors "nido/internal/bookings/errors"
	"nido/internal/bookings/events"
	"nido/internal/bookings/repository"
	"nido/internal/bookings/validator"
	sloterrors "nido/internal/slots/errors"
	slotrepository "nido/internal/slots/repository"
	"nido/pkg/clock"
	"nido/pkg/config"
	apperrors "nido/pkg/errors"
	"nido/pkg/model"
	"nido/pkg/sanitizer"
	"sync"
	"time"
)

// VisitLedger is the slice of the guest registry the engine touches across a
// booking's life. Satisfied by the guests repository.
type VisitLedger interface {
	MarkBooked(ctx context.Context, pageID, linkedUserID, email string) (bool, error)
	RecordVisit(ctx context.Context, pageID, linkedUserID, email string, visitedAt time.Time) (bool, error)
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Confirm(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	MarkNoShow(ctx context.Context, id string) error
	SetParentNotes(ctx context.Context, id string, notes string) error
	ListForSlot(ctx context.Context, slotID string) ([]*model.Booking, error)
	ListForPage(ctx context.Context, pageID string, status model.BookingStatus) ([]*model.Booking, error)
	ListForVisitor(ctx context.Context, visitorID string, status model.BookingStatus) ([]*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.SlotLockRepository
	slotRepo  slotrepository.SlotRepository
	ledger    VisitLedger
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	clock     clock.Clock
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	slotRepo slotrepository.SlotRepository,
	ledger VisitLedger,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
	clk clock.Clock,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		slotRepo:  slotRepo,
		ledger:    ledger,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		clock:     clk,
	}
}

// Create books a visit against a slot. The advisory lock serializes create
// attempts per slot; inside it, one transaction performs the business checks,
// the guarded occupancy increment, and the booking insert, so capacity can
// never be overcommitted.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.sanitize(booking)
	s.applyDefaults(booking)

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"baby_page_id", booking.BabyPageID,
			"availability_slot_id", booking.AvailabilitySlotID,
			"error", err,
		)
		return apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	release, err := s.acquireSlotLock(ctx, booking.AvailabilitySlotID)
	if err != nil {
		return err
	}
	defer release()

	now := s.clock.Now()
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		slot, err := s.loadSlot(txCtx, booking.AvailabilitySlotID)
		if err != nil {
			return err
		}

		if err := s.checkBookable(slot, booking, now); err != nil {
			return err
		}

		reserved, err := s.slotRepo.ReserveCapacity(txCtx, slot.ID, booking.TotalGuestCount)
		if err != nil {
			return apperrors.StoreFailure("Failed to reserve slot capacity", err)
		}
		if !reserved {
			// Lost a race despite the lock (e.g. the lock TTL expired
			// under a stalled holder). The guard filter requires both
			// capacity and active status; re-read to report which failed.
			current, readErr := s.loadSlot(txCtx, slot.ID)
			if readErr == nil && current.Status != model.SlotActive {
				return apperrors.SlotUnavailable("Slot was cancelled by a concurrent update")
			}
			return apperrors.CapacityExceeded("Slot capacity was taken by a concurrent booking", map[string]any{
				"availability_slot_id": slot.ID,
			})
		}

		if slot.BookingMode == model.AutoConfirm {
			booking.Status = model.BookingConfirmed
			confirmedAt := now
			booking.ConfirmedAt = &confirmedAt
		} else {
			booking.Status = model.BookingPending
		}

		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.StoreFailure("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"baby_page_id", booking.BabyPageID,
			"availability_slot_id", booking.AvailabilitySlotID,
			"error", err,
		)
		return wrapTransactionError("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"availability_slot_id", booking.AvailabilitySlotID,
		"status", booking.Status,
		"total_guest_count", booking.TotalGuestCount,
	)

	// Best effort, like the events below. The guest list is a convenience
	// view; the booking itself is the source of truth.
	if _, err := s.ledger.MarkBooked(ctx, booking.BabyPageID, booking.VisitorID, booking.VisitorEmail); err != nil {
		s.cfg.Log.Warn("Failed to mark guest as booked",
			"booking_id", booking.ID,
			"baby_page_id", booking.BabyPageID,
			"error", err,
		)
	}

	s.publisher.Publish(ctx, events.TypeBookingCreated, booking)
	if booking.Status == model.BookingConfirmed {
		s.publisher.Publish(ctx, events.TypeBookingConfirmed, booking)
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLookupError(id, err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.StoreFailure("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.StoreFailure("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Confirm moves a pending booking to confirmed. Only meaningful for slots in
// manual_approval mode; auto_confirm bookings never pass through pending.
func (s *bookingService) Confirm(ctx context.Context, id string) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !booking.Status.CanTransition(model.BookingConfirmed) {
		return apperrors.InvalidTransition(string(booking.Status), string(model.BookingConfirmed))
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, id, booking.Status, model.BookingConfirmed, "confirmed_at", now); err != nil {
		return s.translateTransitionError(id, err)
	}

	booking.Status = model.BookingConfirmed
	booking.ConfirmedAt = &now

	s.cfg.Log.Info("Booking confirmed", "id", id)
	s.publisher.Publish(ctx, events.TypeBookingConfirmed, booking)
	return nil
}

// Cancel releases the booking's guests back to the slot. Transition guard and
// conditional status write together guarantee the release happens exactly
// once; a second cancel fails the transition check and never reaches the
// decrement.
func (s *bookingService) Cancel(ctx context.Context, id string) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !booking.Status.CanTransition(model.BookingCancelled) {
		return apperrors.InvalidTransition(string(booking.Status), string(model.BookingCancelled))
	}

	now := s.clock.Now()
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStatus(txCtx, id, booking.Status, model.BookingCancelled, "cancelled_at", now); err != nil {
			return s.translateTransitionError(id, err)
		}

		released, err := s.slotRepo.ReleaseCapacity(txCtx, booking.AvailabilitySlotID, booking.TotalGuestCount)
		if err != nil {
			return apperrors.StoreFailure("Failed to release slot capacity", err)
		}
		if !released {
			s.cfg.Log.Warn("Slot occupancy already at floor during cancel",
				"booking_id", id,
				"availability_slot_id", booking.AvailabilitySlotID,
			)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return wrapTransactionError("Failed to cancel booking", err)
	}

	booking.Status = model.BookingCancelled
	booking.CancelledAt = &now

	s.cfg.Log.Info("Booking cancelled", "id", id)
	s.publisher.Publish(ctx, events.TypeBookingCancelled, booking)
	return nil
}

// Complete marks a confirmed booking completed and credits the visit to the
// guest ledger. Completing an already completed booking is a no-op. Capacity
// is not released; the visit happened and the seats were used.
func (s *bookingService) Complete(ctx context.Context, id string) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status == model.BookingCompleted {
		return nil
	}
	if !booking.Status.CanTransition(model.BookingCompleted) {
		return apperrors.InvalidTransition(string(booking.Status), string(model.BookingCompleted))
	}

	now := s.clock.Now()
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStatus(txCtx, id, booking.Status, model.BookingCompleted, "completed_at", now); err != nil {
			return s.translateTransitionError(id, err)
		}

		matched, err := s.ledger.RecordVisit(txCtx, booking.BabyPageID, booking.VisitorID, booking.VisitorEmail, booking.ArrivalTime)
		if err != nil {
			return apperrors.StoreFailure("Failed to record visit in guest ledger", err)
		}
		if !matched {
			s.cfg.Log.Warn("No guest matched for visit attribution",
				"booking_id", id,
				"baby_page_id", booking.BabyPageID,
				"visitor_id", booking.VisitorID,
			)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to complete booking", "id", id, "error", err)
		return wrapTransactionError("Failed to complete booking", err)
	}

	booking.Status = model.BookingCompleted
	booking.CompletedAt = &now

	s.cfg.Log.Info("Booking completed", "id", id)
	s.publisher.Publish(ctx, events.TypeBookingCompleted, booking)
	return nil
}

// MarkNoShow records that the visitor never arrived. Capacity stays consumed
// and the ledger is untouched.
func (s *bookingService) MarkNoShow(ctx context.Context, id string) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !booking.Status.CanTransition(model.BookingNoShow) {
		return apperrors.InvalidTransition(string(booking.Status), string(model.BookingNoShow))
	}

	if err := s.repo.UpdateStatus(ctx, id, booking.Status, model.BookingNoShow, "", time.Time{}); err != nil {
		return s.translateTransitionError(id, err)
	}

	booking.Status = model.BookingNoShow

	s.cfg.Log.Info("Booking marked as no-show", "id", id)
	s.publisher.Publish(ctx, events.TypeBookingNoShow, booking)
	return nil
}

func (s *bookingService) SetParentNotes(ctx context.Context, id string, notes string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.repo.SetParentNotes(ctx, id, sanitizer.NormalizeNotes(notes)); err != nil {
		return s.translateLookupError(id, err)
	}
	return nil
}

func (s *bookingService) ListForSlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	if slotID == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}

	bookings, err := s.repo.FindActiveBySlot(ctx, slotID)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings for slot", "availability_slot_id", slotID, "error", err)
		return nil, apperrors.StoreFailure("Failed to list bookings", err)
	}

	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return bookings, nil
}

func (s *bookingService) ListForPage(ctx context.Context, pageID string, status model.BookingStatus) ([]*model.Booking, error) {
	if pageID == "" {
		return nil, apperrors.InvalidInput("Page ID cannot be empty")
	}
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindForPage(ctx, pageID, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings for page", "baby_page_id", pageID, "error", err)
		return nil, apperrors.StoreFailure("Failed to list bookings", err)
	}

	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return bookings, nil
}

func (s *bookingService) ListForVisitor(ctx context.Context, visitorID string, status model.BookingStatus) ([]*model.Booking, error) {
	if visitorID == "" {
		return nil, apperrors.InvalidInput("Visitor ID cannot be empty")
	}
	if err := validStatusFilter(status); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindForVisitor(ctx, visitorID, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings for visitor", "visitor_id", visitorID, "error", err)
		return nil, apperrors.StoreFailure("Failed to list bookings", err)
	}

	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return bookings, nil
}

// acquireSlotLock takes the per-slot advisory lock with a bounded retry
// budget. Returns the release func on success.
func (s *bookingService) acquireSlotLock(ctx context.Context, slotID string) (func(), error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.BookingRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.Timeout("Booking request cancelled while waiting for slot lock")
			case <-time.After(s.cfg.BookingRetryBackoff * time.Duration(attempt)):
			}
		}

		_, err := s.lockRepo.Acquire(ctx, slotID, s.cfg.SlotLockTTL)
		if err == nil {
			return func() {
				if releaseErr := s.lockRepo.Release(ctx, slotID); releaseErr != nil {
					s.cfg.Log.Warn("Failed to release slot lock",
						"availability_slot_id", slotID,
						"error", releaseErr,
					)
				}
			}, nil
		}
		if !errors.Is(err, bookingerrors.ErrLockHeld) {
			return nil, apperrors.StoreFailure("Failed to acquire slot lock", err)
		}
		lastErr = err
	}

	s.cfg.Log.Warn("Slot lock contention exhausted retry budget",
		"availability_slot_id", slotID,
		"attempts", s.cfg.BookingRetryAttempts,
		"error", lastErr,
	)
	return nil, apperrors.ConcurrencyConflict("Slot is being booked by another request. Please try again.")
}

func (s *bookingService) loadSlot(ctx context.Context, slotID string) (*model.AvailabilitySlot, error) {
	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability slot", slotID)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid availability slot ID format")
		}
		return nil, apperrors.StoreFailure("Failed to load availability slot", err)
	}
	return slot, nil
}

// checkBookable runs the business checks in a fixed order so callers get the
// most fundamental failure first: slot liveness, then capacity, then the
// arrival window, then lead time.
func (s *bookingService) checkBookable(slot *model.AvailabilitySlot, booking *model.Booking, now time.Time) error {
	if slot.Status != model.SlotActive {
		return apperrors.SlotUnavailable("Slot is no longer accepting bookings")
	}

	if booking.TotalGuestCount > slot.RemainingCapacity() {
		return apperrors.CapacityExceeded(
			fmt.Sprintf("Slot has %d remaining spots, booking requires %d", slot.RemainingCapacity(), booking.TotalGuestCount),
			map[string]any{
				"remaining_capacity": slot.RemainingCapacity(),
				"total_guest_count":  booking.TotalGuestCount,
			},
		)
	}

	if !slot.WithinWindow(booking.ArrivalTime) {
		return apperrors.InvalidArrivalTime("Arrival time must fall within the slot window")
	}

	leadTime := time.Duration(slot.MinimumLeadTimeHours) * time.Hour
	if slot.StartTime.Sub(now) < leadTime {
		return apperrors.LeadTimeViolation(
			fmt.Sprintf("Bookings require at least %d hours notice before the slot starts", slot.MinimumLeadTimeHours),
		)
	}

	return nil
}

func (s *bookingService) sanitize(booking *model.Booking) {
	booking.BabyPageID = sanitizer.TrimAndNormalize(booking.BabyPageID)
	booking.AvailabilitySlotID = sanitizer.TrimAndNormalize(booking.AvailabilitySlotID)
	booking.VisitorID = sanitizer.TrimAndNormalize(booking.VisitorID)
	booking.VisitorName = sanitizer.NormalizeName(booking.VisitorName)
	booking.VisitorEmail = sanitizer.NormalizeEmail(booking.VisitorEmail)
	booking.MealDescription = sanitizer.NormalizeNotes(booking.MealDescription)
	booking.VisitorNotes = sanitizer.NormalizeNotes(booking.VisitorNotes)
	booking.ParentNotes = sanitizer.NormalizeNotes(booking.ParentNotes)
	booking.ArrivalTime = booking.ArrivalTime.UTC()

	for i := range booking.TagAlongs {
		booking.TagAlongs[i].GuestID = sanitizer.TrimAndNormalize(booking.TagAlongs[i].GuestID)
		booking.TagAlongs[i].Name = sanitizer.NormalizeName(booking.TagAlongs[i].Name)
	}
}

// applyDefaults derives the immutable guest count. The visitor always counts
// as one; tag-alongs add to it. Client-supplied values are ignored.
func (s *bookingService) applyDefaults(booking *model.Booking) {
	booking.TotalGuestCount = 1 + len(booking.TagAlongs)
	booking.Status = model.BookingPending
	booking.ConfirmedAt = nil
	booking.CancelledAt = nil
	booking.CompletedAt = nil
}

func (s *bookingService) translateLookupError(id string, err error) error {
	if errors.Is(err, bookingerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
	return apperrors.StoreFailure("Failed to retrieve booking", err)
}

func (s *bookingService) translateTransitionError(id string, err error) error {
	if errors.Is(err, bookingerrors.ErrStaleStatus) {
		return apperrors.ConcurrencyConflict("Booking status changed concurrently. Please retry.")
	}
	return s.translateLookupError(id, err)
}

// wrapTransactionError keeps AppErrors raised inside the transaction intact
// and classifies everything else (session start, commit, deadline) as a
// store failure.
func wrapTransactionError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.StoreFailure(message, err)
}

func validStatusFilter(status model.BookingStatus) error {
	switch status {
	case "", model.BookingPending, model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted, model.BookingNoShow:
		return nil
	default:
		return apperrors.InvalidInput(fmt.Sprintf("Unknown booking status filter: %s", status))
	}
}
