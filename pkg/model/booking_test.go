package model

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingPending, BookingNoShow, false},

		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingNoShow, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},

		{BookingCancelled, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingCancelled, false},

		{BookingCompleted, BookingCancelled, false},
		{BookingCompleted, BookingCompleted, false},

		{BookingNoShow, BookingConfirmed, false},
		{BookingNoShow, BookingCancelled, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	terminal := map[BookingStatus]bool{
		BookingPending:   false,
		BookingConfirmed: false,
		BookingCancelled: true,
		BookingCompleted: true,
		BookingNoShow:    true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}
