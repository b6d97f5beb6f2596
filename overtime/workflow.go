/*
workflow.go - Overtime request submission and review

PURPOSE:
  Employees ask in advance for permission to work past the daily ordinary
  threshold or on a rest day/holiday. Reviewers approve or reject. An approved
  request is what gate.Gate reads as HasApprovedRequest.

STATE MACHINE:
  pending ──approve──▶ approved
     │
     └────reject────▶ rejected   (comment required)

  Only pending requests can be decided. The store writes the decision with a
  compare-and-set on the pending status, so two reviewers racing on the same
  request produce exactly one decision and one ErrRequestNotPending.

UNIQUENESS:
  Submit does not read-then-insert. It hands the request to the store, whose
  CreateRequest rejects a second pending-or-approved request for the same
  (employee, date) atomically. Concurrent retries of one submission create at
  most one row.

ACCESS:
  Every identity check goes through the access package. There is no
  hard-coded administrator.

ERRORS:
  Validation and access failures are domain errors from generic/errors.go.
  Store failures are returned exactly as the store produced them.

SEE ALSO:
  - generic/request.go: The request type and its transitions
  - access/capability.go: The capability resolver
  - gate/gate.go: Consumer of approvals
*/
package overtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/workhours/access"
	"github.com/warp/workhours/generic"
)

const (
	DefaultMinJustification = 20
	DefaultMaxEstimatedHrs  = 24
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Submission is what an employee fills in.
type Submission struct {
	EmployeeID     generic.EmployeeID
	Date           generic.TimePoint
	EstimatedHours decimal.Decimal
	Motive         string
	Justification  string
}

// Outcome is a reviewer's verdict.
type Outcome string

const (
	Approve Outcome = "approve"
	Reject  Outcome = "reject"
)

// Result is the caller-facing answer to a submission.
type Result struct {
	Accepted bool                     `json:"accepted"`
	Reason   string                   `json:"reason,omitempty"`
	Request  *generic.OvertimeRequest `json:"-"`
}

// =============================================================================
// WORKFLOW
// =============================================================================

type Workflow struct {
	Store    generic.Store
	Calendar generic.DayClassifier
	Log      zerolog.Logger

	MinJustification  int
	MaxEstimatedHours decimal.Decimal

	Now   func() time.Time
	NewID func(time.Time) generic.RequestID
}

func New(store generic.Store, cal generic.DayClassifier, log zerolog.Logger) *Workflow {
	return &Workflow{
		Store:             store,
		Calendar:          cal,
		Log:               log.With().Str("component", "overtime").Logger(),
		MinJustification:  DefaultMinJustification,
		MaxEstimatedHours: decimal.NewFromInt(DefaultMaxEstimatedHrs),
		Now:               time.Now,
		NewID:             generic.NewRequestID,
	}
}

// Submit validates and stores a new pending request. The classification tag
// is derived from the calendar day type of the target date.
func (w *Workflow) Submit(ctx context.Context, by access.Principal, s Submission) (*generic.OvertimeRequest, error) {
	if !access.Can(by, access.SubmitOvertime) || !access.CanActFor(by, s.EmployeeID, access.RecordAnyTime) {
		return nil, fmt.Errorf("%w: %s may not request overtime for %s", generic.ErrForbidden, by.EmployeeID, s.EmployeeID)
	}
	if err := w.validate(s); err != nil {
		return nil, err
	}
	if _, err := w.Store.GetEmployee(ctx, s.EmployeeID); err != nil {
		return nil, err
	}

	dayType, err := w.Calendar.DayType(s.Date)
	if err != nil {
		return nil, err
	}

	now := w.Now()
	req := generic.OvertimeRequest{
		ID:             w.NewID(now),
		EmployeeID:     s.EmployeeID,
		Date:           s.Date,
		EstimatedHours: s.EstimatedHours,
		Motive:         strings.TrimSpace(s.Motive),
		Justification:  strings.TrimSpace(s.Justification),
		Classification: generic.ClassificationFor(dayType),
		Status:         generic.RequestPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := w.Store.CreateRequest(ctx, req); err != nil {
		var dup *generic.DuplicateRequestError
		if errors.As(err, &dup) {
			w.Log.Info().
				Str("employee_id", string(s.EmployeeID)).
				Str("date", s.Date.String()).
				Str("existing_status", string(dup.ExistingStatus)).
				Msg("duplicate overtime request rejected")
		}
		return nil, err
	}

	w.Log.Info().
		Str("request_id", string(req.ID)).
		Str("employee_id", string(req.EmployeeID)).
		Str("date", req.Date.String()).
		Str("classification", string(req.Classification)).
		Msg("overtime request submitted")
	return &req, nil
}

func (w *Workflow) validate(s Submission) error {
	if s.EmployeeID == "" {
		return &generic.ValidationError{Field: "employee_id", Message: "is required"}
	}
	if s.Date.IsZero() {
		return &generic.ValidationError{Field: "date", Message: "is required"}
	}
	if !s.EstimatedHours.IsPositive() || s.EstimatedHours.GreaterThan(w.MaxEstimatedHours) {
		return &generic.ValidationError{
			Field:   "estimated_hours",
			Message: fmt.Sprintf("must be greater than 0 and at most %s", w.MaxEstimatedHours),
		}
	}
	if strings.TrimSpace(s.Motive) == "" {
		return &generic.ValidationError{Field: "motive", Message: "is required"}
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(s.Justification)); n < w.MinJustification {
		return &generic.ValidationError{
			Field:   "justification",
			Message: fmt.Sprintf("must be at least %d characters, got %d", w.MinJustification, n),
		}
	}
	return nil
}

// SubmitResult folds a Submit outcome into accepted/reason. Domain errors
// become a rejected Result; anything else is a persistence failure and is
// returned as the error.
func SubmitResult(req *generic.OvertimeRequest, err error) (Result, error) {
	if err == nil {
		return Result{Accepted: true, Request: req}, nil
	}
	if generic.IsDomainError(err) {
		return Result{Reason: err.Error()}, nil
	}
	return Result{}, err
}

// Decide records a reviewer's verdict on a pending request. Reviewers may not
// decide their own requests.
func (w *Workflow) Decide(ctx context.Context, id generic.RequestID, outcome Outcome, reviewer access.Principal, comments string) (*generic.OvertimeRequest, error) {
	if !access.Can(reviewer, access.ReviewOvertime) {
		return nil, fmt.Errorf("%w: %s may not review overtime requests", generic.ErrForbidden, reviewer.EmployeeID)
	}

	req, err := w.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID == reviewer.EmployeeID {
		return nil, fmt.Errorf("%w: reviewers may not decide their own requests", generic.ErrForbidden)
	}

	now := w.Now()
	switch outcome {
	case Approve:
		err = req.Approve(reviewer.EmployeeID, now, comments)
	case Reject:
		err = req.Reject(reviewer.EmployeeID, now, comments)
	default:
		err = &generic.ValidationError{Field: "outcome", Message: fmt.Sprintf("unknown outcome %q", outcome)}
	}
	if err != nil {
		return nil, err
	}

	if err := w.Store.SaveDecision(ctx, *req); err != nil {
		return nil, err
	}

	w.Log.Info().
		Str("request_id", string(req.ID)).
		Str("reviewer_id", string(reviewer.EmployeeID)).
		Str("status", string(req.Status)).
		Msg("overtime request decided")
	return req, nil
}

// HasApproval reports whether an approved request covers employee on date.
func (w *Workflow) HasApproval(ctx context.Context, employee generic.EmployeeID, date generic.TimePoint) (bool, error) {
	req, err := w.Store.FindActiveRequest(ctx, employee, date)
	if err != nil {
		return false, err
	}
	return req != nil && req.Status == generic.RequestApproved, nil
}

// Get returns a request visible to by.
func (w *Workflow) Get(ctx context.Context, by access.Principal, id generic.RequestID) (*generic.OvertimeRequest, error) {
	req, err := w.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanActFor(by, req.EmployeeID, access.ViewAllRequests) {
		return nil, fmt.Errorf("%w: request %s belongs to another employee", generic.ErrForbidden, id)
	}
	return req, nil
}

// List returns requests matching filter. Callers without ViewAllRequests only
// ever see their own.
func (w *Workflow) List(ctx context.Context, by access.Principal, filter generic.RequestFilter) ([]generic.OvertimeRequest, error) {
	if !access.Can(by, access.ViewAllRequests) {
		if filter.EmployeeID != "" && filter.EmployeeID != by.EmployeeID {
			return nil, fmt.Errorf("%w: cannot list requests of %s", generic.ErrForbidden, filter.EmployeeID)
		}
		filter.EmployeeID = by.EmployeeID
	}
	return w.Store.ListRequests(ctx, filter)
}
