package events

import (
	"context"
	"nido/pkg/kafka"
	"nido/pkg/logger"
	"nido/pkg/model"
	"time"
)

// Event types published on the booking events topic.
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingCompleted = "booking.completed"
	TypeBookingNoShow    = "booking.no_show"

	schemaVersion = "1"
	source        = "bookings-service"
)

// BookingEvent is the payload published for every lifecycle change. Keyed by
// booking ID so consumers see each booking's events in order.
type BookingEvent struct {
	BookingID          string              `json:"booking_id"`
	BabyPageID         string              `json:"baby_page_id"`
	AvailabilitySlotID string              `json:"availability_slot_id"`
	VisitorID          string              `json:"visitor_id"`
	Status             model.BookingStatus `json:"status"`
	TotalGuestCount    int                 `json:"total_guest_count"`
	ArrivalTime        time.Time           `json:"arrival_time"`
	OccurredAt         time.Time           `json:"occurred_at"`
}

// Publisher emits booking lifecycle events. Delivery is best effort: a
// publish failure is logged and never fails the booking operation that
// triggered it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, booking *model.Booking)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) {
	event := BookingEvent{
		BookingID:          booking.ID,
		BabyPageID:         booking.BabyPageID,
		AvailabilitySlotID: booking.AvailabilitySlotID,
		VisitorID:          booking.VisitorID,
		Status:             booking.Status,
		TotalGuestCount:    booking.TotalGuestCount,
		ArrivalTime:        booking.ArrivalTime,
		OccurredAt:         time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

// NopPublisher drops all events. Used when Kafka is not configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) {}
