package validator

import (
	"nido/pkg/logger"
	"nido/pkg/model"
	"strings"
	"testing"
	"time"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func validSlot() *model.AvailabilitySlot {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	return &model.AvailabilitySlot{
		BabyPageID:           "page-1",
		OwnerID:              "owner-1",
		StartTime:            start,
		EndTime:              start.Add(2 * time.Hour),
		MaxGuests:            4,
		VisitDurationMin:     60,
		BookingMode:          model.AutoConfirm,
		MinimumLeadTimeHours: 2,
		Status:               model.SlotActive,
	}
}

func TestSlotValidator_Validate(t *testing.T) {
	v := NewSlotValidator(newTestLogger())

	tests := []struct {
		name      string
		mutate    func(*model.AvailabilitySlot)
		wantErr   bool
		errSubstr string
	}{
		{
			name:   "valid slot",
			mutate: func(s *model.AvailabilitySlot) {},
		},
		{
			name:      "missing page id",
			mutate:    func(s *model.AvailabilitySlot) { s.BabyPageID = "" },
			wantErr:   true,
			errSubstr: "BabyPageID is required",
		},
		{
			name:      "missing owner",
			mutate:    func(s *model.AvailabilitySlot) { s.OwnerID = "" },
			wantErr:   true,
			errSubstr: "OwnerID is required",
		},
		{
			name: "end before start",
			mutate: func(s *model.AvailabilitySlot) {
				s.EndTime = s.StartTime.Add(-time.Hour)
			},
			wantErr:   true,
			errSubstr: "end_time must be after start_time",
		},
		{
			name: "end equals start",
			mutate: func(s *model.AvailabilitySlot) {
				s.EndTime = s.StartTime
			},
			wantErr:   true,
			errSubstr: "end_time must be after start_time",
		},
		{
			name:      "zero max guests",
			mutate:    func(s *model.AvailabilitySlot) { s.MaxGuests = 0 },
			wantErr:   true,
			errSubstr: "MaxGuests is required",
		},
		{
			name:      "max guests over cap",
			mutate:    func(s *model.AvailabilitySlot) { s.MaxGuests = 51 },
			wantErr:   true,
			errSubstr: "MaxGuests must be at most 50",
		},
		{
			name:      "visit duration too short",
			mutate:    func(s *model.AvailabilitySlot) { s.VisitDurationMin = 3 },
			wantErr:   true,
			errSubstr: "VisitDurationMin must be at least 5",
		},
		{
			name:      "unknown booking mode",
			mutate:    func(s *model.AvailabilitySlot) { s.BookingMode = "walk_in" },
			wantErr:   true,
			errSubstr: "BookingMode must be one of",
		},
		{
			name:      "negative lead time",
			mutate:    func(s *model.AvailabilitySlot) { s.MinimumLeadTimeHours = -1 },
			wantErr:   true,
			errSubstr: "MinimumLeadTimeHours must be at least 0",
		},
		{
			name:      "unknown status",
			mutate:    func(s *model.AvailabilitySlot) { s.Status = "paused" },
			wantErr:   true,
			errSubstr: "Status must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := validSlot()
			tt.mutate(slot)

			err := v.Validate(slot)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSlotValidator_ValidateUpdate(t *testing.T) {
	v := NewSlotValidator(newTestLogger())

	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	goodEnd := start.Add(time.Hour)
	badGuests := 0

	tests := []struct {
		name    string
		update  *model.AvailabilitySlotUpdate
		wantErr bool
	}{
		{
			name:   "empty update",
			update: &model.AvailabilitySlotUpdate{},
		},
		{
			name:   "window valid",
			update: &model.AvailabilitySlotUpdate{StartTime: &start, EndTime: &goodEnd},
		},
		{
			name:    "window inverted",
			update:  &model.AvailabilitySlotUpdate{StartTime: &start, EndTime: &end},
			wantErr: true,
		},
		{
			name:    "zero max guests",
			update:  &model.AvailabilitySlotUpdate{MaxGuests: &badGuests},
			wantErr: true,
		},
		{
			name:    "unknown booking mode",
			update:  &model.AvailabilitySlotUpdate{BookingMode: "walk_in"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(tt.update)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
