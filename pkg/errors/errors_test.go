package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "resource not found",
			},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	unwrapped := errors.Unwrap(appErr)
	if unwrapped != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAppError_StatusCode(t *testing.T) {
	err := New(CodeNotFound, "not found", http.StatusNotFound)
	if err.StatusCode() != http.StatusNotFound {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusNotFound)
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)
	details := map[string]any{
		"field": "arrival_time",
		"error": "outside slot window",
	}

	err = err.WithDetails(details)

	if err.Details["field"] != "arrival_time" {
		t.Errorf("expected field 'arrival_time', got %v", err.Details["field"])
	}
	if err.Details["error"] != "outside slot window" {
		t.Errorf("expected error 'outside slot window', got %v", err.Details["error"])
	}
}

func TestAppError_ToJSON(t *testing.T) {
	err := NotFoundWithID("Booking", "68b100000000000000000001")

	var response ErrorResponse
	if jsonErr := json.Unmarshal(err.ToJSON(), &response); jsonErr != nil {
		t.Fatalf("ToJSON() produced invalid JSON: %v", jsonErr)
	}
	if response.Code != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, response.Code)
	}
	if response.Details["id"] != "68b100000000000000000001" {
		t.Errorf("expected id detail, got %v", response.Details["id"])
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Slot", "12345")

	if err.Code != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Details["id"] != "12345" {
		t.Errorf("expected id detail '12345', got %v", err.Details["id"])
	}
}

func TestDomainConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"slot unavailable", SlotUnavailable("slot is cancelled"), CodeSlotUnavailable, http.StatusConflict},
		{"capacity exceeded", CapacityExceeded("not enough room", nil), CodeCapacityExceeded, http.StatusConflict},
		{"lead time violation", LeadTimeViolation("too close to start"), CodeLeadTimeViolation, http.StatusConflict},
		{"invalid arrival time", InvalidArrivalTime("arrival outside window"), CodeInvalidArrivalTime, http.StatusUnprocessableEntity},
		{"invalid transition", InvalidTransition("completed", "cancelled"), CodeInvalidTransition, http.StatusConflict},
		{"concurrency conflict", ConcurrencyConflict("slot is contended"), CodeConcurrencyConflict, http.StatusConflict},
		{"timeout", Timeout("store deadline exceeded"), CodeTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.HTTPStatus)
			}
		})
	}
}

func TestStoreFailure(t *testing.T) {
	deadline := fmt.Errorf("find failed: %w", context.DeadlineExceeded)
	err := StoreFailure("failed to load booking", deadline)
	if err.Code != CodeTimeout {
		t.Errorf("expected code %s for a deadline overrun, got %s", CodeTimeout, err.Code)
	}
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("expected status %d, got %d", http.StatusGatewayTimeout, err.HTTPStatus)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped error to retain the deadline cause")
	}

	err = StoreFailure("failed to load booking", errors.New("connection reset"))
	if err.Code != CodeInternal {
		t.Errorf("expected code %s for a plain store error, got %s", CodeInternal, err.Code)
	}
}

func TestInvalidTransition_Details(t *testing.T) {
	err := InvalidTransition("pending", "completed")

	if err.Details["from"] != "pending" || err.Details["to"] != "completed" {
		t.Errorf("expected from/to details, got %v", err.Details)
	}
	want := "cannot transition booking from pending to completed"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("duplicate guest")
	if got := AsAppError(appErr); got != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}

	plain := errors.New("boom")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected plain error converted to %s, got %s", CodeInternal, converted.Code)
	}
	if converted.Err != plain {
		t.Errorf("expected converted error to wrap the original")
	}
}

func TestIsCode(t *testing.T) {
	err := CapacityExceeded("full", nil)

	if !IsCode(err, CodeCapacityExceeded) {
		t.Errorf("IsCode() should match the error's code")
	}
	if IsCode(err, CodeNotFound) {
		t.Errorf("IsCode() should not match a different code")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Errorf("IsCode() should be false for non-AppError values")
	}
}
