package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeTimeout             = "TIMEOUT"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeSlotUnavailable     = "SLOT_UNAVAILABLE"
	CodeCapacityExceeded    = "CAPACITY_EXCEEDED"
	CodeLeadTimeViolation   = "LEAD_TIME_VIOLATION"
	CodeInvalidArrivalTime  = "INVALID_ARRIVAL_TIME"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

// StoreFailure classifies a repository error. Deadline overruns surface as
// timeouts: a timed-out write may or may not have landed, so the caller must
// re-query before retrying. Everything else is internal.
func StoreFailure(message string, err error) *AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:       CodeTimeout,
			Message:    message + ": store deadline exceeded",
			HTTPStatus: http.StatusGatewayTimeout,
			Err:        err,
		}
	}
	return Internal(message, err)
}

// SlotUnavailable reports a booking attempt against a slot that is not
// accepting bookings (cancelled or otherwise inactive).
func SlotUnavailable(message string) *AppError {
	return &AppError{
		Code:       CodeSlotUnavailable,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// CapacityExceeded reports a booking whose guest count does not fit in the
// slot's remaining capacity.
func CapacityExceeded(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeCapacityExceeded,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    details,
	}
}

// LeadTimeViolation reports a booking attempt closer to the slot start than
// the slot's minimum lead time allows.
func LeadTimeViolation(message string) *AppError {
	return &AppError{
		Code:       CodeLeadTimeViolation,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// InvalidArrivalTime reports an arrival time outside the slot's window.
func InvalidArrivalTime(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidArrivalTime,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// InvalidTransition reports a booking status change that the state machine
// does not allow from the booking's current status.
func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot transition booking from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}

// ConcurrencyConflict is returned after the internal retry budget for a
// contended slot is exhausted. The caller may retry the whole operation.
func ConcurrencyConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConcurrencyConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
