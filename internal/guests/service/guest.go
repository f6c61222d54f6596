package service

import (
	"context"
	"errors"
	"fmt"
	guesterrors "nido/internal/guests/errors"
	"nido/internal/guests/repository"
	"nido/internal/guests/validator"
	"nido/pkg/config"
	apperrors "nido/pkg/errors"
	"nido/pkg/model"
	"nido/pkg/sanitizer"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type GuestService interface {
	Create(ctx context.Context, guest *model.Guest) error
	GetByID(ctx context.Context, id string) (*model.Guest, error)
	Update(ctx context.Context, id string, updates *model.GuestUpdate) error
	Delete(ctx context.Context, id string) error
	ListForPage(ctx context.Context, pageID string, status model.VisitStatus) ([]*model.Guest, error)
	GetByEmail(ctx context.Context, pageID, email string) (*model.Guest, error)
	TagAlongOptions(ctx context.Context, pageID string) ([]*model.Guest, error)
	LinkToUser(ctx context.Context, id string, userID string) error
	RecordVisit(ctx context.Context, id string, visitDate time.Time) error
}

type guestService struct {
	repo      repository.GuestRepository
	validator *validator.GuestValidator
	cfg       *config.Config
}

func NewGuestService(
	repo repository.GuestRepository,
	validator *validator.GuestValidator,
	cfg *config.Config,
) GuestService {
	return &guestService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *guestService) Create(ctx context.Context, guest *model.Guest) error {
	s.sanitize(guest)
	applyDefaults(guest)

	if err := s.validator.Validate(guest); err != nil {
		s.cfg.Log.Warn("Guest validation failed",
			"baby_page_id", guest.BabyPageID,
			"error", err,
		)
		return apperrors.Validation("Guest validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	// One ledger entry per contact per page.
	existing, err := s.repo.FindByEmail(ctx, guest.BabyPageID, guest.Email)
	if err != nil && !errors.Is(err, guesterrors.ErrNotFound) {
		return apperrors.StoreFailure("Failed to check for existing guest", err)
	}
	if existing != nil {
		return apperrors.Conflict(fmt.Sprintf("Guest with email %s already exists on this page", guest.Email))
	}

	if err := s.repo.Create(ctx, guest); err != nil {
		s.cfg.Log.Error("Failed to create guest",
			"baby_page_id", guest.BabyPageID,
			"error", err,
		)
		return apperrors.StoreFailure("Failed to create guest", err)
	}

	s.cfg.Log.Info("Guest created successfully",
		"id", guest.ID,
		"baby_page_id", guest.BabyPageID,
	)
	return nil
}

func (s *guestService) GetByID(ctx context.Context, id string) (*model.Guest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Guest ID cannot be empty")
	}

	guest, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateLookupError(id, err)
	}

	return guest, nil
}

func (s *guestService) Update(ctx context.Context, id string, updates *model.GuestUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Guest ID cannot be empty")
	}
	if updates == nil {
		return apperrors.InvalidInput("Update payload cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Guest update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	fields := bson.M{}
	if updates.Name != nil {
		fields["name"] = sanitizer.NormalizeName(*updates.Name)
	}
	if updates.Email != nil {
		fields["email"] = sanitizer.NormalizeEmail(*updates.Email)
	}
	if updates.Phone != nil {
		fields["phone"] = sanitizer.TrimAndNormalize(*updates.Phone)
	}
	if updates.Relationship != nil {
		fields["relationship"] = sanitizer.NormalizeRelationship(*updates.Relationship)
	}
	if updates.Notes != nil {
		fields["notes"] = sanitizer.NormalizeNotes(*updates.Notes)
	}
	if updates.CanBook != nil {
		fields["can_book"] = *updates.CanBook
	}
	if updates.CanBeTagAlong != nil {
		fields["can_be_tag_along"] = *updates.CanBeTagAlong
	}

	if len(fields) == 0 {
		return apperrors.InvalidInput("Update payload cannot be empty")
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return s.translateLookupError(id, err)
	}

	s.cfg.Log.Info("Guest updated successfully", "id", id)
	return nil
}

func (s *guestService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Guest ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateLookupError(id, err)
	}

	s.cfg.Log.Info("Guest deleted", "id", id)
	return nil
}

func (s *guestService) ListForPage(ctx context.Context, pageID string, status model.VisitStatus) ([]*model.Guest, error) {
	if pageID == "" {
		return nil, apperrors.InvalidInput("Page ID cannot be empty")
	}
	switch status {
	case "", model.VisitNotBooked, model.VisitBooked, model.Visited:
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown visit status filter: %s", status))
	}

	guests, err := s.repo.FindByPage(ctx, pageID, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list guests for page", "baby_page_id", pageID, "error", err)
		return nil, apperrors.StoreFailure("Failed to list guests", err)
	}

	if guests == nil {
		guests = []*model.Guest{}
	}
	return guests, nil
}

func (s *guestService) GetByEmail(ctx context.Context, pageID, email string) (*model.Guest, error) {
	if pageID == "" {
		return nil, apperrors.InvalidInput("Page ID cannot be empty")
	}
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Email cannot be empty")
	}

	guest, err := s.repo.FindByEmail(ctx, pageID, email)
	if err != nil {
		if errors.Is(err, guesterrors.ErrNotFound) {
			return nil, apperrors.NotFound("Guest")
		}
		s.cfg.Log.Error("Failed to find guest by email", "baby_page_id", pageID, "error", err)
		return nil, apperrors.StoreFailure("Failed to retrieve guest", err)
	}

	return guest, nil
}

func (s *guestService) TagAlongOptions(ctx context.Context, pageID string) ([]*model.Guest, error) {
	if pageID == "" {
		return nil, apperrors.InvalidInput("Page ID cannot be empty")
	}

	guests, err := s.repo.FindTagAlongEligible(ctx, pageID)
	if err != nil {
		s.cfg.Log.Error("Failed to list tag-along options", "baby_page_id", pageID, "error", err)
		return nil, apperrors.StoreFailure("Failed to list tag-along options", err)
	}

	if guests == nil {
		guests = []*model.Guest{}
	}
	return guests, nil
}

func (s *guestService) LinkToUser(ctx context.Context, id string, userID string) error {
	if id == "" {
		return apperrors.InvalidInput("Guest ID cannot be empty")
	}
	userID = sanitizer.TrimAndNormalize(userID)
	if userID == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	if err := s.repo.LinkToUser(ctx, id, userID); err != nil {
		return s.translateLookupError(id, err)
	}

	s.cfg.Log.Info("Guest linked to user", "id", id, "user_id", userID)
	return nil
}

func (s *guestService) RecordVisit(ctx context.Context, id string, visitDate time.Time) error {
	if id == "" {
		return apperrors.InvalidInput("Guest ID cannot be empty")
	}
	if visitDate.IsZero() {
		return apperrors.InvalidInput("Visit date cannot be empty")
	}

	if err := s.repo.RecordVisitByID(ctx, id, visitDate.UTC()); err != nil {
		return s.translateLookupError(id, err)
	}

	s.cfg.Log.Info("Guest visit recorded", "id", id, "visit_date", visitDate)
	return nil
}

func (s *guestService) sanitize(guest *model.Guest) {
	guest.BabyPageID = sanitizer.TrimAndNormalize(guest.BabyPageID)
	guest.OwnerID = sanitizer.TrimAndNormalize(guest.OwnerID)
	guest.Name = sanitizer.NormalizeName(guest.Name)
	guest.Email = sanitizer.NormalizeEmail(guest.Email)
	guest.Phone = sanitizer.TrimAndNormalize(guest.Phone)
	guest.Relationship = sanitizer.NormalizeRelationship(guest.Relationship)
	guest.Notes = sanitizer.NormalizeNotes(guest.Notes)
	guest.LinkedUserID = sanitizer.TrimAndNormalize(guest.LinkedUserID)
}

// applyDefaults resets the ledger fields; a new contact starts with a clean
// visit history regardless of what the caller sent.
func applyDefaults(guest *model.Guest) {
	guest.VisitStatus = model.VisitNotBooked
	guest.TotalVisits = 0
	guest.LastVisitDate = nil
	guest.CanBook = true
	guest.CanBeTagAlong = true
}

func (s *guestService) translateLookupError(id string, err error) error {
	if errors.Is(err, guesterrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Guest", id)
	}
	if errors.Is(err, guesterrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid guest ID format")
	}
	s.cfg.Log.Error("Guest repository operation failed", "id", id, "error", err)
	return apperrors.StoreFailure("Failed to access guest", err)
}
