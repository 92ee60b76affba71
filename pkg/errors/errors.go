package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes returned to API clients. The first block is the booking
// engine's business-rule taxonomy; the second block is generic plumbing.
const (
	CodeInvalidRange       = "INVALID_RANGE"
	CodeVehicleNotApproved = "VEHICLE_NOT_APPROVED"
	CodePricingUnavailable = "PRICING_UNAVAILABLE"
	CodeVehicleUnavailable = "VEHICLE_UNAVAILABLE"
	CodeInvalidTransition  = "INVALID_TRANSITION"

	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"
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

// Retryable reports whether the caller may safely retry the operation.
// Only transport-level failures are retryable; business-rule violations
// are terminal for the call.
func (e *AppError) Retryable() bool {
	return e.Code == CodeTimeout || e.Code == CodeUnavailable
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
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

// InvalidRange signals end date not strictly after start date.
func InvalidRange(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidRange,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// VehicleNotApproved signals a booking attempt against an unapproved vehicle.
func VehicleNotApproved(vehicleID string) *AppError {
	return &AppError{
		Code:       CodeVehicleNotApproved,
		Message:    "Vehicle is not approved for booking",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"vehicle_id": vehicleID},
	}
}

// PricingUnavailable signals a vehicle with no defined daily rate.
func PricingUnavailable(vehicleID string) *AppError {
	return &AppError{
		Code:       CodePricingUnavailable,
		Message:    "Vehicle has no daily rate configured",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"vehicle_id": vehicleID},
	}
}

// VehicleUnavailable signals a date-range conflict; the blocking window
// is carried in the details for client-facing messaging.
func VehicleUnavailable(conflictStart, conflictEnd time.Time) *AppError {
	return &AppError{
		Code:       CodeVehicleUnavailable,
		Message: fmt.Sprintf("Vehicle is already booked from %s to %s",
			conflictStart.Format(time.RFC3339), conflictEnd.Format(time.RFC3339)),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"conflict_start": conflictStart.Format(time.RFC3339),
			"conflict_end":   conflictEnd.Format(time.RFC3339),
		},
	}
}

// InvalidTransition signals a status change not permitted from the
// booking's current state.
func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Booking cannot move from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
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

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
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

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// IsAppError reports whether err is, or wraps, an *AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError unwraps err to its *AppError, or folds anything else into
// an internal error so handlers never leak raw storage failures.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
