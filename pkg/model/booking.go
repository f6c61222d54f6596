package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
)

// bookingTransitions is the single source of truth for the booking state
// machine. Every mutating operation consults it; validity is never re-derived
// at call sites.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingNoShow, BookingCancelled},
	BookingCancelled: {},
	BookingCompleted: {},
	BookingNoShow:    {},
}

// CanTransition reports whether the state machine allows moving from s to
// target. Cancelled, completed and no_show are terminal.
func (s BookingStatus) CanTransition(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// TagAlong is an additional attendee bundled into the same booking.
type TagAlong struct {
	GuestID string `json:"guest_id" bson:"guest_id" validate:"required"`
	Name    string `json:"name" bson:"name" validate:"required,min=1,max=100"`
}

// Booking is a visitor's reservation against an availability slot.
// TotalGuestCount (visitor plus tag-alongs) is fixed at creation; it is the
// amount reserved against the slot's capacity and later released on cancel.
type Booking struct {
	ID                 string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BabyPageID         string        `json:"baby_page_id" bson:"baby_page_id" validate:"required"`
	AvailabilitySlotID string        `json:"availability_slot_id" bson:"availability_slot_id" validate:"required"`
	VisitorID          string        `json:"visitor_id" bson:"visitor_id" validate:"required"`
	VisitorName        string        `json:"visitor_name" bson:"visitor_name" validate:"required,min=1,max=100"`
	VisitorEmail       string        `json:"visitor_email" bson:"visitor_email" validate:"required,email"`
	ArrivalTime        time.Time     `json:"arrival_time" bson:"arrival_time" validate:"required"`
	TagAlongs          []TagAlong    `json:"tag_alongs" bson:"tag_alongs" validate:"omitempty,max=49,tag_alongs"`
	TotalGuestCount    int           `json:"total_guest_count" bson:"total_guest_count" validate:"omitempty,min=1"`
	BringingMeal       bool          `json:"bringing_meal" bson:"bringing_meal"`
	MealDescription    string        `json:"meal_description,omitempty" bson:"meal_description,omitempty" validate:"omitempty,max=500"`
	Status             BookingStatus `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed cancelled completed no_show"`
	VisitorNotes       string        `json:"visitor_notes,omitempty" bson:"visitor_notes,omitempty" validate:"omitempty,max=1000"`
	ParentNotes        string        `json:"parent_notes,omitempty" bson:"parent_notes,omitempty" validate:"omitempty,max=1000"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt          time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
	ConfirmedAt        *time.Time    `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}
