/*
Package generic provides the shared vocabulary of the work-hours engine.

PURPOSE:
  This package contains the types every other package speaks: identifiers,
  calendar dates, day types, clock events, overtime requests, the error
  taxonomy and the persistence contracts. It has no knowledge of premiums,
  HTTP or SQL; those live in payroll, api and store respectively.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: durations converted to decimal hours without intermediate rounding
  - Employee: the person whose time is classified, with a base hourly rate
  - Role: coarse role used by the access package to resolve capabilities
  - Type-safe identifiers for employees, requests and clock events

DESIGN PRINCIPLES:
  1. Precision: hours and money use decimal.Decimal, never float64
  2. Type Safety: strong typing for IDs prevents mixing employee/request IDs
  3. Auditability: requests and events are never deleted

USAGE:
  worked := generic.HoursOf(7*time.Hour + 30*time.Minute) // 7.5
  emp := generic.Employee{ID: "emp-001", Role: generic.RoleEmployee,
      HourlyRate: decimal.NewFromInt(10000)}

SEE ALSO:
  - time.go: TimePoint, DayType, Holiday
  - request.go: OvertimeRequest lifecycle
  - store.go: Persistence contracts
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string
type EventID string

// =============================================================================
// HOURS - Decimal hours derived from exact durations
// =============================================================================

var hourNanos = decimal.NewFromInt(int64(time.Hour))

// HoursOf converts a duration to decimal hours.
func HoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(hourNanos)
}

// DurationOf converts decimal hours back to a duration, truncated to the nanosecond.
func DurationOf(hours decimal.Decimal) time.Duration {
	return time.Duration(hours.Mul(hourNanos).IntPart())
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// Employee is an hourly worker. HourlyRate is the base rate before premiums.
type Employee struct {
	ID         EmployeeID
	Name       string
	Email      string
	Role       Role
	HourlyRate decimal.Decimal
	CreatedAt  time.Time
}
