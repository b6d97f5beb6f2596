/*
request.go - Overtime request lifecycle

PURPOSE:
  An overtime request asks a reviewer to authorize work that the gate would
  otherwise block: hours past the daily ordinary threshold, or any hours on a
  rest day or holiday.

REQUEST FLOW:
  ┌─────────────────────────────────────────────────────────────┐
  │                                                             │
  │  Employee submits  ──▶  pending  ──▶  approved  (terminal)  │
  │                            │                                │
  │                            └──────▶  rejected  (terminal)   │
  │                                                             │
  └─────────────────────────────────────────────────────────────┘

UNIQUENESS:
  At most one pending-or-approved request may exist per (employee, date).
  Rejected requests stay as audit history and do not block a new request
  for the same date. Stores enforce this; see store.go.

EFFECT:
  An approved request lifts the rest-day/holiday block and the daily
  ordinary-limit block for its date only. It never lifts the weekly ceiling
  and never changes the daily threshold itself.

SEE ALSO:
  - overtime/workflow.go: Submission validation and reviewer decisions
  - gate/gate.go: Where approvals are consumed
*/
package generic

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUEST STATUS
// =============================================================================

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Active statuses occupy the (employee, date) slot.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestApproved
}

func (s RequestStatus) Valid() bool {
	return s == RequestPending || s == RequestApproved || s == RequestRejected
}

// =============================================================================
// CLASSIFICATION - Why authorization is needed, stored for audit
// =============================================================================

type Classification string

const (
	ClassRestDay       Classification = "restday"
	ClassHoliday       Classification = "holiday"
	ClassOrdinaryExtra Classification = "ordinary_extra"
)

// ClassificationFor maps the day type of the target date to its tag.
func ClassificationFor(d DayType) Classification {
	switch d {
	case DayHoliday:
		return ClassHoliday
	case DayRestDay:
		return ClassRestDay
	default:
		return ClassOrdinaryExtra
	}
}

// =============================================================================
// OVERTIME REQUEST
// =============================================================================

type OvertimeRequest struct {
	ID             RequestID
	EmployeeID     EmployeeID
	Date           TimePoint
	EstimatedHours decimal.Decimal
	Motive         string
	Justification  string
	Classification Classification
	Status         RequestStatus

	// Decision tracking
	ReviewerID *EmployeeID
	DecidedAt  *time.Time
	Comments   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Approve transitions a pending request to approved.
func (r *OvertimeRequest) Approve(reviewer EmployeeID, at time.Time, comments string) error {
	if r.Status != RequestPending {
		return fmt.Errorf("%w: can only approve pending requests, current status: %s", ErrRequestNotPending, r.Status)
	}
	r.decide(RequestApproved, reviewer, at, comments)
	return nil
}

// Reject transitions a pending request to rejected. A rejection must say why.
func (r *OvertimeRequest) Reject(reviewer EmployeeID, at time.Time, comments string) error {
	if r.Status != RequestPending {
		return fmt.Errorf("%w: can only reject pending requests, current status: %s", ErrRequestNotPending, r.Status)
	}
	if strings.TrimSpace(comments) == "" {
		return &ValidationError{Field: "comments", Message: "a rejection requires a comment"}
	}
	r.decide(RequestRejected, reviewer, at, comments)
	return nil
}

func (r *OvertimeRequest) decide(status RequestStatus, reviewer EmployeeID, at time.Time, comments string) {
	r.Status = status
	r.ReviewerID = &reviewer
	r.DecidedAt = &at
	r.Comments = strings.TrimSpace(comments)
	r.UpdatedAt = at
}

// RequestFilter narrows ListRequests. Zero values match everything.
type RequestFilter struct {
	EmployeeID EmployeeID
	Status     RequestStatus
	From       TimePoint
	To         TimePoint
}

// Matches reports whether r passes the filter. Stores without query support
// (the in-memory store) filter with this.
func (f RequestFilter) Matches(r OvertimeRequest) bool {
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	return true
}
