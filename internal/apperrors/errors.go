// Package apperrors defines the typed failure taxonomy surfaced by the
// booking core. Handlers translate Kinds to HTTP status codes; services and
// repositories never let business-rule violations escape untyped.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NotFound                  Kind = "not_found"
	Forbidden                 Kind = "forbidden"
	InactiveLocation          Kind = "inactive_location"
	NoCapacity                Kind = "no_capacity"
	InvalidDuration           Kind = "invalid_duration"
	PastDateTime              Kind = "past_date_time"
	InvalidTransition         Kind = "invalid_transition"
	TooEarly                  Kind = "too_early"
	UnknownToken              Kind = "unknown_token"
	InvalidTokenState         Kind = "invalid_token_state"
	CapacityReductionConflict Kind = "capacity_reduction_conflict"
	VehicleInUse              Kind = "vehicle_in_use"
	Conflict                  Kind = "conflict"
	Unauthorized              Kind = "unauthorized"
	OperationFailed           Kind = "operation_failed"
)

// Error carries a stable Kind, a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is match on Kind so callers can compare against the
// package-level sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Failed wraps an unexpected fault (storage error mid-transaction, etc.) as
// OperationFailed.
func Failed(message string, err error) *Error {
	return &Error{Kind: OperationFailed, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or OperationFailed when err is not a
// taxonomy error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return OperationFailed
}

// Sentinels for errors.Is comparisons in services and tests.
var (
	ErrNotFound                  = New(NotFound, "resource not found")
	ErrForbidden                 = New(Forbidden, "access denied")
	ErrInactiveLocation          = New(InactiveLocation, "parking location is not active")
	ErrNoCapacity                = New(NoCapacity, "no parking slots available")
	ErrInvalidDuration           = New(InvalidDuration, "invalid booking duration")
	ErrPastDateTime              = New(PastDateTime, "cannot book for past dates or times")
	ErrInvalidTransition         = New(InvalidTransition, "invalid booking status for this action")
	ErrTooEarly                  = New(TooEarly, "too early for check-in")
	ErrUnknownToken              = New(UnknownToken, "unknown check-in token")
	ErrInvalidTokenState         = New(InvalidTokenState, "booking is not in a checkable state")
	ErrCapacityReductionConflict = New(CapacityReductionConflict, "cannot reduce capacity below occupied slots")
	ErrVehicleInUse              = New(VehicleInUse, "vehicle has active bookings")
	ErrUnauthorized              = New(Unauthorized, "invalid credentials")
)
