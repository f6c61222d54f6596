package service

import (
	"context"
	"errors"
	sloterrors "nido/internal/slots/errors"
	"nido/internal/slots/repository"
	"nido/internal/slots/validator"
	"nido/pkg/clock"
	"nido/pkg/config"
	apperrors "nido/pkg/errors"
	"nido/pkg/model"
	"nido/pkg/sanitizer"
	"time"
)

type SlotService interface {
	Create(ctx context.Context, slot *model.AvailabilitySlot) error
	GetByID(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	ListForPage(ctx context.Context, pageID string, includeExpired bool) ([]*model.AvailabilitySlot, error)
	Update(ctx context.Context, id string, updates *model.AvailabilitySlotUpdate) error
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type slotService struct {
	repo      repository.SlotRepository
	validator *validator.SlotValidator
	cfg       *config.Config
	clock     clock.Clock
}

func NewSlotService(
	repo repository.SlotRepository,
	validator *validator.SlotValidator,
	cfg *config.Config,
	clk clock.Clock,
) SlotService {
	return &slotService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		clock:     clk,
	}
}

func (s *slotService) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	s.sanitize(slot)
	s.applyDefaults(slot)

	if err := s.validator.Validate(slot); err != nil {
		s.cfg.Log.Warn("Availability slot validation failed",
			"baby_page_id", slot.BabyPageID,
			"error", err,
		)
		return apperrors.Validation("Availability slot validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		s.cfg.Log.Error("Failed to create availability slot",
			"baby_page_id", slot.BabyPageID,
			"error", err,
		)
		return apperrors.StoreFailure("Failed to create availability slot", err)
	}

	s.cfg.Log.Info("Availability slot created successfully",
		"id", slot.ID,
		"baby_page_id", slot.BabyPageID,
		"start_time", slot.StartTime,
		"max_guests", slot.MaxGuests,
	)
	return nil
}

func (s *slotService) GetByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Availability slot ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability slot", id)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid availability slot ID format")
		}
		s.cfg.Log.Error("Failed to get availability slot by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.StoreFailure("Failed to retrieve availability slot", err)
	}

	return slot, nil
}

func (s *slotService) ListForPage(ctx context.Context, pageID string, includeExpired bool) ([]*model.AvailabilitySlot, error) {
	if pageID == "" {
		return nil, apperrors.InvalidInput("Page ID cannot be empty")
	}

	slots, err := s.repo.FindByPage(ctx, pageID, includeExpired, s.clock.Now())
	if err != nil {
		s.cfg.Log.Error("Failed to list availability slots for page",
			"baby_page_id", pageID,
			"error", err,
		)
		return nil, apperrors.StoreFailure("Failed to list availability slots", err)
	}

	if slots == nil {
		slots = []*model.AvailabilitySlot{}
	}
	return slots, nil
}

// Update applies a partial settings change. Occupancy and status never move
// through here; shrinking max_guests below the current occupancy is rejected.
func (s *slotService) Update(ctx context.Context, id string, updates *model.AvailabilitySlotUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Availability slot ID cannot be empty")
	}
	if updates == nil {
		return apperrors.InvalidInput("Update payload cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Availability slot update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	merged := s.merge(existing, updates)
	if !merged.EndTime.After(merged.StartTime) {
		return apperrors.Validation("Availability slot update validation failed", map[string]any{
			"error": "end_time must be after start_time",
		})
	}
	if merged.MaxGuests < existing.CurrentBookings {
		return apperrors.Conflict("Cannot reduce max guests below current bookings")
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Availability slot", id)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid availability slot ID format")
		}
		s.cfg.Log.Error("Failed to update availability slot",
			"id", id,
			"error", err,
		)
		return apperrors.StoreFailure("Failed to update availability slot", err)
	}

	s.cfg.Log.Info("Availability slot updated successfully", "id", id)
	return nil
}

// Cancel marks the slot cancelled. Existing bookings are left untouched;
// cancelling a slot only stops new bookings from being created against it.
func (s *slotService) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Availability slot ID cannot be empty")
	}

	if err := s.repo.SetStatus(ctx, id, model.SlotCancelled); err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Availability slot", id)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid availability slot ID format")
		}
		s.cfg.Log.Error("Failed to cancel availability slot",
			"id", id,
			"error", err,
		)
		return apperrors.StoreFailure("Failed to cancel availability slot", err)
	}

	s.cfg.Log.Info("Availability slot cancelled", "id", id)
	return nil
}

func (s *slotService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Availability slot ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Availability slot", id)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid availability slot ID format")
		}
		s.cfg.Log.Error("Failed to delete availability slot",
			"id", id,
			"error", err,
		)
		return apperrors.StoreFailure("Failed to delete availability slot", err)
	}

	s.cfg.Log.Info("Availability slot deleted", "id", id)
	return nil
}

func (s *slotService) sanitize(slot *model.AvailabilitySlot) {
	slot.BabyPageID = sanitizer.TrimAndNormalize(slot.BabyPageID)
	slot.OwnerID = sanitizer.TrimAndNormalize(slot.OwnerID)
	slot.MealPreferences = sanitizer.NormalizeNotes(slot.MealPreferences)
	slot.StartTime = slot.StartTime.UTC()
	slot.EndTime = slot.EndTime.UTC()
}

func (s *slotService) applyDefaults(slot *model.AvailabilitySlot) {
	if slot.MaxGuests == 0 {
		slot.MaxGuests = s.cfg.SlotMaxGuests
	}
	if slot.VisitDurationMin == 0 {
		slot.VisitDurationMin = s.cfg.SlotVisitDurationMin
	}
	if slot.BookingMode == "" {
		slot.BookingMode = model.BookingMode(s.cfg.SlotBookingMode)
	}
	if slot.MinimumLeadTimeHours == 0 {
		slot.MinimumLeadTimeHours = s.cfg.SlotMinimumLeadTimeHours
	}
	slot.Status = model.SlotActive
	slot.CurrentBookings = 0
}

func (s *slotService) merge(existing *model.AvailabilitySlot, updates *model.AvailabilitySlotUpdate) *model.AvailabilitySlot {
	merged := *existing

	if updates.StartTime != nil {
		merged.StartTime = updates.StartTime.UTC()
	}
	if updates.EndTime != nil {
		merged.EndTime = updates.EndTime.UTC()
	}
	if updates.MaxGuests != nil {
		merged.MaxGuests = *updates.MaxGuests
	}
	if updates.VisitDurationMin != nil {
		merged.VisitDurationMin = *updates.VisitDurationMin
	}
	if updates.MealAvailable != nil {
		merged.MealAvailable = *updates.MealAvailable
	}
	if updates.MealPreferences != nil {
		merged.MealPreferences = sanitizer.NormalizeNotes(*updates.MealPreferences)
	}
	if updates.BookingMode != "" {
		merged.BookingMode = updates.BookingMode
	}
	if updates.MinimumLeadTimeHours != nil {
		merged.MinimumLeadTimeHours = *updates.MinimumLeadTimeHours
	}
	merged.UpdatedAt = time.Now().UTC()

	return &merged
}
