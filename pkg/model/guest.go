package model

import (
	"time"
)

type VisitStatus string

const (
	VisitNotBooked VisitStatus = "not_booked"
	VisitBooked    VisitStatus = "booked"
	Visited        VisitStatus = "visited"
)

// Guest is a per-page contact the owner tracks, with a cumulative visit
// ledger. TotalVisits only ever grows; it increments by exactly one per
// completed booking attributed to this guest.
type Guest struct {
	ID            string      `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BabyPageID    string      `json:"baby_page_id" bson:"baby_page_id" validate:"required"`
	OwnerID       string      `json:"owner_id" bson:"owner_id" validate:"required"`
	Name          string      `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Email         string      `json:"email" bson:"email" validate:"required,email"`
	Phone         string      `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Relationship  string      `json:"relationship,omitempty" bson:"relationship,omitempty" validate:"omitempty,max=50"`
	VisitStatus   VisitStatus `json:"visit_status" bson:"visit_status" validate:"required,oneof=not_booked booked visited"`
	LastVisitDate *time.Time  `json:"last_visit_date,omitempty" bson:"last_visit_date,omitempty"`
	TotalVisits   int         `json:"total_visits" bson:"total_visits" validate:"min=0"`
	CanBook       bool        `json:"can_book" bson:"can_book"`
	CanBeTagAlong bool        `json:"can_be_tag_along" bson:"can_be_tag_along"`
	LinkedUserID  string      `json:"linked_user_id,omitempty" bson:"linked_user_id,omitempty"`
	Notes         string      `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt     time.Time   `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// GuestUpdate carries a partial update; nil fields are left untouched.
// The visit ledger fields (VisitStatus, TotalVisits, LastVisitDate) are
// absent on purpose: they change only through RecordVisit.
type GuestUpdate struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Relationship  *string `json:"relationship,omitempty" validate:"omitempty,max=50"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	CanBook       *bool   `json:"can_book,omitempty"`
	CanBeTagAlong *bool   `json:"can_be_tag_along,omitempty"`
}
