package model

import (
	"time"
)

type SlotStatus string

const (
	SlotActive    SlotStatus = "active"
	SlotCancelled SlotStatus = "cancelled"
)

type BookingMode string

const (
	AutoConfirm    BookingMode = "auto_confirm"
	ManualApproval BookingMode = "manual_approval"
)

// AvailabilitySlot is a host-published, capacity-bounded time window during
// which visits may be booked. CurrentBookings is mutated exclusively by the
// booking engine; the slot update path never touches it.
type AvailabilitySlot struct {
	ID                   string      `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BabyPageID           string      `json:"baby_page_id" bson:"baby_page_id" validate:"required"`
	OwnerID              string      `json:"owner_id" bson:"owner_id" validate:"required"`
	StartTime            time.Time   `json:"start_time" bson:"start_time" validate:"required"`
	EndTime              time.Time   `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	MaxGuests            int         `json:"max_guests" bson:"max_guests" validate:"required,min=1,max=50"`
	VisitDurationMin     int         `json:"visit_duration_min" bson:"visit_duration_min" validate:"required,min=5,max=480"`
	MealAvailable        bool        `json:"meal_available" bson:"meal_available"`
	MealPreferences      string      `json:"meal_preferences,omitempty" bson:"meal_preferences,omitempty" validate:"omitempty,max=500"`
	BookingMode          BookingMode `json:"booking_mode" bson:"booking_mode" validate:"required,oneof=auto_confirm manual_approval"`
	MinimumLeadTimeHours int         `json:"minimum_lead_time_hours" bson:"minimum_lead_time_hours" validate:"min=0,max=720"`
	Status               SlotStatus  `json:"status" bson:"status" validate:"required,oneof=active cancelled"`
	CurrentBookings      int         `json:"current_bookings" bson:"current_bookings" validate:"min=0"`
	CreatedAt            time.Time   `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt            time.Time   `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// AvailabilitySlotUpdate carries a partial update. Nil or zero-valued fields
// are left untouched. Status and CurrentBookings are deliberately absent.
type AvailabilitySlotUpdate struct {
	StartTime            *time.Time  `json:"start_time,omitempty" validate:"omitempty"`
	EndTime              *time.Time  `json:"end_time,omitempty" validate:"omitempty"`
	MaxGuests            *int        `json:"max_guests,omitempty" validate:"omitempty,min=1,max=50"`
	VisitDurationMin     *int        `json:"visit_duration_min,omitempty" validate:"omitempty,min=5,max=480"`
	MealAvailable        *bool       `json:"meal_available,omitempty"`
	MealPreferences      *string     `json:"meal_preferences,omitempty" validate:"omitempty,max=500"`
	BookingMode          BookingMode `json:"booking_mode,omitempty" validate:"omitempty,oneof=auto_confirm manual_approval"`
	MinimumLeadTimeHours *int        `json:"minimum_lead_time_hours,omitempty" validate:"omitempty,min=0,max=720"`
}

// IsBookable reports whether the slot accepts a new booking at the given
// instant: active, capacity left, and the minimum lead time still satisfied.
func (s *AvailabilitySlot) IsBookable(now time.Time) bool {
	if s.Status != SlotActive {
		return false
	}
	if s.CurrentBookings >= s.MaxGuests {
		return false
	}
	leadTime := time.Duration(s.MinimumLeadTimeHours) * time.Hour
	return s.StartTime.Sub(now) >= leadTime
}

// RemainingCapacity returns how many guests still fit into the slot.
func (s *AvailabilitySlot) RemainingCapacity() int {
	return max(0, s.MaxGuests-s.CurrentBookings)
}

// WithinWindow reports whether t falls inside [StartTime, EndTime].
func (s *AvailabilitySlot) WithinWindow(t time.Time) bool {
	return !t.Before(s.StartTime) && !t.After(s.EndTime)
}
