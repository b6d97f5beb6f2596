/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND HOURS:
  Always strings. Clients parse them with a decimal library; a float never
  carries a wage.

TYPES:
  Employee:     EmployeeDTO, CreateEmployeeRequest
  Calendar:     HolidayDTO, CalendarDayDTO
  Pay:          ClassifyRequest, BreakdownDTO, SegmentDTO, SummaryDTO
  Gate:         DecisionRequest, AuthorizationDTO
  Clock events: ClockEventRequest, ClockEventDTO, RecordResultDTO
  Overtime:     SubmitOvertimeRequest, DecideRequest, OvertimeRequestDTO, SubmitResultDTO
  Scenarios:    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and domain packages, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workhours/gate"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/payroll"
	"github.com/warp/workhours/timesheet"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	HourlyRate string `json:"hourly_rate"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest creates or updates an employee. ID is generated when empty.
type CreateEmployeeRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	HourlyRate string `json:"hourly_rate"`
}

func toEmployeeDTO(e generic.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:         string(e.ID),
		Name:       e.Name,
		Email:      e.Email,
		Role:       string(e.Role),
		HourlyRate: e.HourlyRate.String(),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// CALENDAR
// =============================================================================

type HolidayDTO struct {
	Date    string `json:"date"`
	Name    string `json:"name"`
	Movable bool   `json:"movable"`
}

type CalendarDayDTO struct {
	Date    string  `json:"date"`
	Weekday string  `json:"weekday"`
	DayType string  `json:"day_type"`
	Holiday *string `json:"holiday,omitempty"`
}

// =============================================================================
// PAY CLASSIFICATION
// =============================================================================

type IntervalDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ClassifyRequest is a work period to classify without touching the store.
type ClassifyRequest struct {
	Entry      time.Time     `json:"entry"`
	Exit       time.Time     `json:"exit"`
	Breaks     []IntervalDTO `json:"breaks"`
	HourlyRate string        `json:"hourly_rate"`
}

func (r ClassifyRequest) period() payroll.WorkPeriod {
	p := payroll.WorkPeriod{Entry: r.Entry, Exit: r.Exit}
	for _, b := range r.Breaks {
		p.Breaks = append(p.Breaks, payroll.Interval{Start: b.Start, End: b.End})
	}
	return p
}

type BucketDTO struct {
	Hours  string `json:"hours"`
	Amount string `json:"amount"`
}

// BreakdownDTO lists every category, zero or not, keyed by category name.
type BreakdownDTO struct {
	HourlyRate string               `json:"hourly_rate"`
	Buckets    map[string]BucketDTO `json:"buckets"`
	Total      BucketDTO            `json:"total"`
	BreakHours string               `json:"break_hours"`
	TotalPay   string               `json:"total_pay"`
}

func toBreakdownDTO(b payroll.HoursBreakdown, places int32) BreakdownDTO {
	rounded := b.Round(places)
	dto := BreakdownDTO{
		HourlyRate: b.HourlyRate.String(),
		Buckets:    make(map[string]BucketDTO, len(payroll.Categories())),
		Total:      BucketDTO{Hours: rounded.Total.Hours.String(), Amount: rounded.Total.Amount.StringFixed(places)},
		BreakHours: b.BreakHours.String(),
		TotalPay:   payroll.TotalPay(b).Round(places).StringFixed(places),
	}
	for _, c := range payroll.Categories() {
		bucket := rounded.Bucket(c)
		dto.Buckets[c.String()] = BucketDTO{Hours: bucket.Hours.String(), Amount: bucket.Amount.StringFixed(places)}
	}
	return dto
}

type SegmentDTO struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Date      string    `json:"date"`
	DayType   string    `json:"day_type"`
	TimeOfDay string    `json:"time_of_day"`
	HourType  string    `json:"hour_type"`
	Break     bool      `json:"break"`
	Category  string    `json:"category,omitempty"`
	Hours     string    `json:"hours"`
}

func toSegmentDTOs(segments []payroll.TimeSegment) []SegmentDTO {
	dtos := make([]SegmentDTO, len(segments))
	for i, s := range segments {
		dtos[i] = SegmentDTO{
			Start:     s.Start,
			End:       s.End,
			Date:      s.Date.String(),
			DayType:   string(s.DayType),
			TimeOfDay: s.TimeOfDay.String(),
			HourType:  s.HourType.String(),
			Break:     s.Break,
			Hours:     s.Hours().String(),
		}
		if !s.Break {
			dtos[i].Category = s.Category().String()
		}
	}
	return dtos
}

type ClassifyResponse struct {
	Segments  []SegmentDTO `json:"segments"`
	Breakdown BreakdownDTO `json:"breakdown"`
}

// =============================================================================
// DAILY SUMMARY
// =============================================================================

type SessionDTO struct {
	Date   string        `json:"date"`
	Entry  time.Time     `json:"entry"`
	Exit   time.Time     `json:"exit"`
	Breaks []IntervalDTO `json:"breaks"`
	Open      bool          `json:"open"`
	Abandoned bool          `json:"abandoned,omitempty"`
	Worked    string        `json:"worked_hours"`
}

type SummaryDTO struct {
	EmployeeID string       `json:"employee_id"`
	Date       string       `json:"date"`
	DayType    string       `json:"day_type"`
	Sessions   []SessionDTO `json:"sessions"`
	Breakdown  BreakdownDTO `json:"breakdown"`
}

func toSummaryDTO(s *timesheet.DailySummary, places int32) SummaryDTO {
	dto := SummaryDTO{
		EmployeeID: string(s.EmployeeID),
		Date:       s.Date.String(),
		DayType:    string(s.DayType),
		Sessions:   make([]SessionDTO, len(s.Sessions)),
		Breakdown:  toBreakdownDTO(s.Breakdown, places),
	}
	for i, sess := range s.Sessions {
		breaks := make([]IntervalDTO, len(sess.Period.Breaks))
		for j, b := range sess.Period.Breaks {
			breaks[j] = IntervalDTO{Start: b.Start, End: b.End}
		}
		dto.Sessions[i] = SessionDTO{
			Date:   sess.Date.String(),
			Entry:  sess.Period.Entry,
			Exit:   sess.Period.Exit,
			Breaks: breaks,
			Open:      sess.Open,
			Abandoned: sess.Abandoned,
			Worked:    generic.HoursOf(sess.Worked()).String(),
		}
	}
	return dto
}

// =============================================================================
// AUTHORIZATION GATE
// =============================================================================

// DecisionRequest runs the gate on a caller-supplied state.
type DecisionRequest struct {
	DayType            generic.DayType    `json:"day_type"`
	DailyHours         decimal.Decimal    `json:"daily_hours"`
	WeeklyHours        decimal.Decimal    `json:"weekly_hours"`
	Status             generic.WorkStatus `json:"status"`
	HasApprovedRequest bool               `json:"has_approved_request"`
}

type AuthorizationDTO struct {
	State    gate.EmployeeState `json:"state"`
	Decision gate.Decision      `json:"decision"`
}

// =============================================================================
// CLOCK EVENTS
// =============================================================================

// ClockEventRequest records an event. A missing At means now.
type ClockEventRequest struct {
	Type string     `json:"type"`
	At   *time.Time `json:"at,omitempty"`
}

type ClockEventDTO struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Type       string    `json:"type"`
	At         time.Time `json:"at"`
}

// RecordResultDTO reports a recorded or blocked event. Event is null when blocked.
type RecordResultDTO struct {
	Recorded bool               `json:"recorded"`
	Event    *ClockEventDTO     `json:"event"`
	Decision gate.Decision      `json:"decision"`
	State    gate.EmployeeState `json:"state"`
}

func toRecordResultDTO(r *timesheet.RecordResult) RecordResultDTO {
	dto := RecordResultDTO{Recorded: r.Event != nil, Decision: r.Decision, State: r.State}
	if r.Event != nil {
		dto.Event = &ClockEventDTO{
			ID:         string(r.Event.ID),
			EmployeeID: string(r.Event.EmployeeID),
			Type:       string(r.Event.Type),
			At:         r.Event.At,
		}
	}
	return dto
}

// =============================================================================
// OVERTIME REQUESTS
// =============================================================================

// SubmitOvertimeRequest asks for authorization. EmployeeID defaults to the caller.
type SubmitOvertimeRequest struct {
	EmployeeID     string          `json:"employee_id"`
	Date           string          `json:"date"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	Motive         string          `json:"motive"`
	Justification  string          `json:"justification"`
}

type DecideRequest struct {
	Comments string `json:"comments"`
}

type OvertimeRequestDTO struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	Date           string  `json:"date"`
	EstimatedHours string  `json:"estimated_hours"`
	Motive         string  `json:"motive"`
	Justification  string  `json:"justification"`
	Classification string  `json:"classification"`
	Status         string  `json:"status"`
	ReviewerID     *string `json:"reviewer_id,omitempty"`
	DecidedAt      *string `json:"decided_at,omitempty"`
	Comments       string  `json:"comments,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toOvertimeRequestDTO(r generic.OvertimeRequest) OvertimeRequestDTO {
	dto := OvertimeRequestDTO{
		ID:             string(r.ID),
		EmployeeID:     string(r.EmployeeID),
		Date:           r.Date.String(),
		EstimatedHours: r.EstimatedHours.String(),
		Motive:         r.Motive,
		Justification:  r.Justification,
		Classification: string(r.Classification),
		Status:         string(r.Status),
		Comments:       r.Comments,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReviewerID != nil {
		dto.ReviewerID = strPtr(string(*r.ReviewerID))
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = strPtr(r.DecidedAt.Format(time.RFC3339))
	}
	return dto
}

func toOvertimeRequestDTOs(reqs []generic.OvertimeRequest) []OvertimeRequestDTO {
	dtos := make([]OvertimeRequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toOvertimeRequestDTO(r)
	}
	return dtos
}

// SubmitResultDTO is {accepted, reason} plus the stored request when accepted.
type SubmitResultDTO struct {
	Accepted bool                `json:"accepted"`
	Reason   string              `json:"reason,omitempty"`
	Request  *OvertimeRequestDTO `json:"request,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func strPtr(s string) *string {
	return &s
}
