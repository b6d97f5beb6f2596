/*
store.go - Persistence contracts for employees, clock events and requests

PURPOSE:
  Defines the interface between the engine and the database. The engine's
  computations are pure; everything it reads or writes goes through these
  contracts. Different implementations can use SQLite, PostgreSQL, or
  in-memory storage.

KEY INTERFACES:
  EmployeeStore:        Employees and their base hourly rate
  ClockEventStore:      Append-only clock events, read back in order
  OvertimeRequestStore: Requests plus the compare-and-set decision write
  Store:                All of the above

APPEND-ONLY CONTRACT:
  Clock events and requests are never deleted. Requests change exactly once,
  from pending to a terminal status, through SaveDecision.

UNIQUENESS CONTRACT:
  CreateRequest must reject a second pending-or-approved request for the same
  (employee, date) with *DuplicateRequestError, atomically. A read-then-insert
  in the caller is not enough under concurrent retries; SQL stores use a
  partial unique index, the memory store a single mutex.

ERRORS:
  Missing rows are reported with ErrEmployeeNotFound / ErrRequestNotFound.
  Any other failure is a persistence failure and is passed through the core
  unmodified.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Embedded SQLite
  - store/postgres/postgres.go: PostgreSQL via pgx
  - store/resilient/resilient.go: Circuit breaker + read retries around any Store
  - generic/store/memory.go: In-memory for testing
*/
package generic

import (
	"context"
	"time"
)

// EmployeeStore persists employees.
type EmployeeStore interface {
	// SaveEmployee inserts or updates an employee.
	SaveEmployee(ctx context.Context, emp Employee) error

	// GetEmployee returns ErrEmployeeNotFound if the employee doesn't exist.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	ListEmployees(ctx context.Context) ([]Employee, error)
}

// ClockEventStore persists clock events.
type ClockEventStore interface {
	AppendClockEvent(ctx context.Context, ev ClockEvent) error

	// ListClockEvents returns events with from <= At < to, ordered by At.
	ListClockEvents(ctx context.Context, employeeID EmployeeID, from, to time.Time) ([]ClockEvent, error)
}

// OvertimeRequestStore persists overtime requests.
type OvertimeRequestStore interface {
	// CreateRequest inserts a new pending request. Returns *DuplicateRequestError
	// if an active request exists for the same employee and date.
	CreateRequest(ctx context.Context, req OvertimeRequest) error

	// GetRequest returns ErrRequestNotFound if the request doesn't exist.
	GetRequest(ctx context.Context, id RequestID) (*OvertimeRequest, error)

	// FindActiveRequest returns the pending or approved request for the
	// employee and date, or nil if there is none.
	FindActiveRequest(ctx context.Context, employeeID EmployeeID, date TimePoint) (*OvertimeRequest, error)

	// ListRequests returns requests matching the filter, ordered by date then creation.
	ListRequests(ctx context.Context, filter RequestFilter) ([]OvertimeRequest, error)

	// SaveDecision persists a decided request only if it is still pending.
	// Returns ErrRequestNotPending when another reviewer got there first.
	SaveDecision(ctx context.Context, req OvertimeRequest) error
}

// Store is everything the engine needs from persistence.
type Store interface {
	EmployeeStore
	ClockEventStore
	OvertimeRequestStore
}
