// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/workhours/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[generic.EmployeeID]generic.Employee
	events    map[generic.EmployeeID][]generic.ClockEvent
	requests  map[generic.RequestID]generic.OvertimeRequest
	active    map[slot]generic.RequestID
}

// slot is the uniqueness key for active requests.
type slot struct {
	EmployeeID generic.EmployeeID
	Date       string
}

var _ generic.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[generic.EmployeeID]generic.Employee),
		events:    make(map[generic.EmployeeID][]generic.ClockEvent),
		requests:  make(map[generic.RequestID]generic.OvertimeRequest),
		active:    make(map[slot]generic.RequestID),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp generic.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, generic.ErrEmployeeNotFound
	}
	return &emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]generic.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		result = append(result, emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// CLOCK EVENTS - Append-only
// =============================================================================

func (m *Memory) AppendClockEvent(_ context.Context, ev generic.ClockEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := append(m.events[ev.EmployeeID], ev)
	// Stable so that events with equal timestamps keep insertion order.
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	m.events[ev.EmployeeID] = events
	return nil
}

func (m *Memory) ListClockEvents(_ context.Context, employeeID generic.EmployeeID, from, to time.Time) ([]generic.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []generic.ClockEvent
	for _, ev := range m.events[employeeID] {
		if !ev.At.Before(from) && ev.At.Before(to) {
			result = append(result, ev)
		}
	}
	return result, nil
}

// =============================================================================
// OVERTIME REQUESTS
// =============================================================================

// CreateRequest checks and inserts under one lock, which gives the same
// guarantee as the SQL stores' partial unique index.
func (m *Memory) CreateRequest(_ context.Context, req generic.OvertimeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slot{EmployeeID: req.EmployeeID, Date: req.Date.String()}
	if existingID, ok := m.active[key]; ok {
		existing := m.requests[existingID]
		return &generic.DuplicateRequestError{
			EmployeeID:     req.EmployeeID,
			Date:           req.Date,
			ExistingID:     existing.ID,
			ExistingStatus: existing.Status,
		}
	}

	m.requests[req.ID] = req
	if req.Status.Active() {
		m.active[key] = req.ID
	}
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id generic.RequestID) (*generic.OvertimeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, generic.ErrRequestNotFound
	}
	return &req, nil
}

func (m *Memory) FindActiveRequest(_ context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.OvertimeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.active[slot{EmployeeID: employeeID, Date: date.String()}]
	if !ok {
		return nil, nil
	}
	req := m.requests[id]
	return &req, nil
}

func (m *Memory) ListRequests(_ context.Context, filter generic.RequestFilter) ([]generic.OvertimeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []generic.OvertimeRequest
	for _, req := range m.requests {
		if filter.Matches(req) {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) SaveDecision(_ context.Context, req generic.OvertimeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.requests[req.ID]
	if !ok {
		return generic.ErrRequestNotFound
	}
	if current.Status != generic.RequestPending {
		return generic.ErrRequestNotPending
	}

	m.requests[req.ID] = req
	if !req.Status.Active() {
		delete(m.active, slot{EmployeeID: req.EmployeeID, Date: req.Date.String()})
	}
	return nil
}

// Reset drops all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = make(map[generic.EmployeeID]generic.Employee)
	m.events = make(map[generic.EmployeeID][]generic.ClockEvent)
	m.requests = make(map[generic.RequestID]generic.OvertimeRequest)
	m.active = make(map[slot]generic.RequestID)
	return nil
}
