/*
errors.go - Centralized error types for the work-hours engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Packages return these (or wrap them) so callers can branch with errors.Is
  and errors.As without depending on the package that produced them.

ERROR CATEGORIES:
  1. Input errors - Invalid intervals, bad event sequences, failed validation
  2. Calendar errors - Years outside the supported range
  3. Workflow errors - Duplicate, missing or already-decided requests
  4. Access errors - Caller lacks the capability for an operation

NOT AN ERROR:
  A blocked authorization decision is a normal gate.Decision with
  Allowed=false. Callers branch on it; it never travels as an error.

PERSISTENCE FAILURES:
  Errors from a store that are not listed here are returned to the caller
  unmodified. Core packages never wrap, retry or swallow them.

SEE ALSO:
  - api/handlers.go: statusFor maps these errors to HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInterval is returned when an interval ends before it starts or
	// a required clock-in is missing.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrUnsupportedYear is returned for holiday lookups outside the supported range.
	ErrUnsupportedYear = errors.New("unsupported year")

	// ErrDuplicateRequest is returned when a pending or approved request already
	// exists for the same employee and date.
	ErrDuplicateRequest = errors.New("duplicate overtime request")

	// ErrRequestNotFound is returned when a referenced request doesn't exist.
	ErrRequestNotFound = errors.New("overtime request not found")

	// ErrRequestNotPending is returned when deciding a request that was already decided.
	ErrRequestNotPending = errors.New("overtime request is not pending")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidRequest is returned when submitted fields fail validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrForbidden is returned when the caller lacks the required capability.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidEventSequence is returned when a clock event does not follow
	// from the employee's current status (e.g. clock-out while not working).
	ErrInvalidEventSequence = errors.New("invalid clock event sequence")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IntervalError describes a rejected work interval.
type IntervalError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *IntervalError) Error() string {
	if e.Start.IsZero() && e.End.IsZero() {
		return fmt.Sprintf("invalid interval: %s", e.Reason)
	}
	return fmt.Sprintf("invalid interval [%s, %s): %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

func (e *IntervalError) Unwrap() error {
	return ErrInvalidInterval
}

// UnsupportedYearError reports a year outside the calendar's range.
type UnsupportedYearError struct {
	Year    int
	MinYear int
	MaxYear int
}

func (e *UnsupportedYearError) Error() string {
	return fmt.Sprintf("unsupported year %d: holidays are computed for %d-%d",
		e.Year, e.MinYear, e.MaxYear)
}

func (e *UnsupportedYearError) Unwrap() error {
	return ErrUnsupportedYear
}

// DuplicateRequestError identifies the request that blocks a new submission.
// The message tells the caller whether to wait for review or go ahead and work.
type DuplicateRequestError struct {
	EmployeeID     EmployeeID
	Date           TimePoint
	ExistingID     RequestID
	ExistingStatus RequestStatus
}

func (e *DuplicateRequestError) Error() string {
	if e.ExistingStatus == RequestApproved {
		return fmt.Sprintf("an overtime request for %s is already approved (request %s)", e.Date, e.ExistingID)
	}
	return fmt.Sprintf("an overtime request for %s is already pending review (request %s)", e.Date, e.ExistingID)
}

func (e *DuplicateRequestError) Unwrap() error {
	return ErrDuplicateRequest
}

// ValidationError provides details about a field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// EventSequenceError explains why a clock event cannot be recorded now.
type EventSequenceError struct {
	Event  EventType
	Status WorkStatus
}

func (e *EventSequenceError) Error() string {
	return fmt.Sprintf("cannot record %s while %s", e.Event, e.Status)
}

func (e *EventSequenceError) Unwrap() error {
	return ErrInvalidEventSequence
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrUnsupportedYear) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidEventSequence)
}

// IsConflict returns true if the error reports a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrRequestNotPending)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

// IsDomainError is true for every error defined in this file. Anything else
// coming out of a store is a persistence failure.
func IsDomainError(err error) bool {
	return IsClientError(err) || IsConflict(err) || IsNotFound(err) ||
		errors.Is(err, ErrForbidden)
}
