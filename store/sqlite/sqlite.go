/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.Store using SQLite, for single-node deployments and for
  tests. store/postgres is the same contract over PostgreSQL; only the
  dialect differs.

INTERFACES IMPLEMENTED:
  generic.EmployeeStore:        Employees and hourly rates
  generic.ClockEventStore:      Append-only clock events
  generic.OvertimeRequestStore: Requests with atomic uniqueness and CAS decisions

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE on clock_events
  - overtime_requests rows are updated exactly once, from 'pending', by
    SaveDecision's conditional UPDATE

KEY TABLES:
  employees:         Employee records with base hourly rate
  clock_events:      Immutable registration history
  overtime_requests: Requests and their decision

INDEXES:
  - idx_clock_events_employee_at: Ordered history per employee (hot path)
  - idx_overtime_active_slot: Partial UNIQUE index on (employee_id, work_date)
    WHERE status IN ('pending','approved'). This is what makes concurrent
    duplicate submissions safe; the check is not done in Go.

ENCODING:
  Instants are stored as fixed-width UTC text so that lexical order is time
  order. Dates are YYYY-MM-DD. Money and hours are decimal strings.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, plus a single connection for
  ":memory:" databases (each connection would otherwise see its own empty
  database).

TRACING:
  Opened through otelsql, so every query is a span when a tracer provider is
  installed and a no-op otherwise.

USAGE:
  store, err := sqlite.New("./data/workhours.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - store/postgres/postgres.go: PostgreSQL implementation
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/workhours/generic"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// timeLayout is fixed-width so that TEXT comparison orders instants.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements generic.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := otelsql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000",
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL DEFAULT 'employee',
		hourly_rate TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Clock events (append-only)
	CREATE TABLE IF NOT EXISTS clock_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		event_type TEXT NOT NULL,
		at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clock_events_employee_at
		ON clock_events(employee_id, at);

	-- Overtime requests
	CREATE TABLE IF NOT EXISTS overtime_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		work_date TEXT NOT NULL,
		estimated_hours TEXT NOT NULL,
		motive TEXT NOT NULL,
		justification TEXT NOT NULL,
		classification TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reviewer_id TEXT,
		decided_at TEXT,
		comments TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: at most one pending-or-approved request per employee and date.
	-- Rejected requests drop out of the index and do not block a new one.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_overtime_active_slot
		ON overtime_requests(employee_id, work_date)
		WHERE status IN ('pending', 'approved');

	CREATE INDEX IF NOT EXISTS idx_overtime_status
		ON overtime_requests(status);
	CREATE INDEX IF NOT EXISTS idx_overtime_employee_date
		ON overtime_requests(employee_id, work_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO employees (id, name, email, role, hourly_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			hourly_rate = excluded.hourly_rate
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, nullString(emp.Email), emp.Role,
		emp.HourlyRate.String(),
		formatTime(emp.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, role, hourly_rate, created_at FROM employees WHERE id = ?",
		id,
	)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, role, hourly_rate, created_at FROM employees ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []generic.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row interface{ Scan(...any) error }) (*generic.Employee, error) {
	var (
		emp                   generic.Employee
		email                 sql.NullString
		rate, createdAt, role string
	)
	if err := row.Scan(&emp.ID, &emp.Name, &email, &role, &rate, &createdAt); err != nil {
		return nil, err
	}
	emp.Email = email.String
	emp.Role = generic.Role(role)
	var err error
	if emp.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("invalid hourly_rate %q for employee %s: %w", rate, emp.ID, err)
	}
	if emp.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &emp, nil
}

// =============================================================================
// CLOCK EVENT STORE
// =============================================================================

// AppendClockEvent inserts an event. Events are never updated or deleted.
func (s *Store) AppendClockEvent(ctx context.Context, ev generic.ClockEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", string(ev.EmployeeID)))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clock_events (id, employee_id, event_type, at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ev.ID, ev.EmployeeID, ev.Type, formatTime(ev.At), formatTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append clock event: %w", err)
	}
	return nil
}

// ListClockEvents returns events with from <= at < to, oldest first.
func (s *Store) ListClockEvents(ctx context.Context, employeeID generic.EmployeeID, from, to time.Time) ([]generic.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, event_type, at, created_at
		FROM clock_events
		WHERE employee_id = ? AND at >= ? AND at < ?
		ORDER BY at ASC, created_at ASC
	`, employeeID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query clock events: %w", err)
	}
	defer rows.Close()

	var events []generic.ClockEvent
	for rows.Next() {
		var (
			ev            generic.ClockEvent
			typ           string
			at, createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &typ, &at, &createdAt); err != nil {
			return nil, err
		}
		ev.Type = generic.EventType(typ)
		if ev.At, err = parseTime(at); err != nil {
			return nil, err
		}
		if ev.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// OVERTIME REQUEST STORE
// =============================================================================

const requestColumns = `id, employee_id, work_date, estimated_hours, motive, justification,
	classification, status, reviewer_id, decided_at, comments, created_at, updated_at`

// CreateRequest inserts a pending request. The partial unique index rejects a
// second active request for the same slot; the existing one is then looked up
// to report whether it is pending or approved.
func (s *Store) CreateRequest(ctx context.Context, req generic.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", string(req.EmployeeID)))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overtime_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		req.ID, req.EmployeeID, req.Date.String(), req.EstimatedHours.String(),
		req.Motive, req.Justification, req.Classification, req.Status,
		nullEmployeeID(req.ReviewerID), nullTime(req.DecidedAt), req.Comments,
		formatTime(req.CreatedAt), formatTime(req.UpdatedAt),
	)
	if err == nil {
		return nil
	}
	if !isUniqueConstraintError(err) || !isActiveSlotError(err) {
		return fmt.Errorf("failed to create overtime request: %w", err)
	}

	existing, lookupErr := s.findActive(ctx, req.EmployeeID, req.Date)
	if lookupErr != nil {
		return lookupErr
	}
	dup := &generic.DuplicateRequestError{EmployeeID: req.EmployeeID, Date: req.Date, ExistingStatus: generic.RequestPending}
	if existing != nil {
		dup.ExistingID = existing.ID
		dup.ExistingStatus = existing.Status
	}
	return dup
}

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id generic.RequestID) (*generic.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, err := scanRequest(s.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM overtime_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrRequestNotFound
	}
	return req, err
}

// FindActiveRequest returns the pending or approved request for the slot, or nil.
func (s *Store) FindActiveRequest(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findActive(ctx, employeeID, date)
}

func (s *Store) findActive(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.OvertimeRequest, error) {
	req, err := scanRequest(s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM overtime_requests
		WHERE employee_id = ? AND work_date = ? AND status IN ('pending', 'approved')
	`, employeeID, date.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

// ListRequests returns requests matching the filter, ordered by date then creation.
func (s *Store) ListRequests(ctx context.Context, filter generic.RequestFilter) ([]generic.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		where = append(where, "work_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		where = append(where, "work_date <= ?")
		args = append(args, filter.To.String())
	}

	query := "SELECT " + requestColumns + " FROM overtime_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY work_date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overtime requests: %w", err)
	}
	defer rows.Close()

	requests := []generic.OvertimeRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// SaveDecision writes the decision only if the row is still pending.
func (s *Store) SaveDecision(ctx context.Context, req generic.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE overtime_requests
		SET status = ?, reviewer_id = ?, decided_at = ?, comments = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`,
		req.Status, nullEmployeeID(req.ReviewerID), nullTime(req.DecidedAt), req.Comments,
		formatTime(req.UpdatedAt), req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM overtime_requests WHERE id = ?", req.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return generic.ErrRequestNotFound
	}
	return generic.ErrRequestNotPending
}

func scanRequest(row interface{ Scan(...any) error }) (*generic.OvertimeRequest, error) {
	var (
		req                    generic.OvertimeRequest
		workDate, hours        string
		classification, status string
		reviewer, decidedAt    sql.NullString
		createdAt, updatedAt   string
	)
	err := row.Scan(
		&req.ID, &req.EmployeeID, &workDate, &hours, &req.Motive, &req.Justification,
		&classification, &status, &reviewer, &decidedAt, &req.Comments, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if req.Date, err = generic.ParseDate(workDate); err != nil {
		return nil, err
	}
	if req.EstimatedHours, err = decimal.NewFromString(hours); err != nil {
		return nil, fmt.Errorf("invalid estimated_hours %q: %w", hours, err)
	}
	req.Classification = generic.Classification(classification)
	req.Status = generic.RequestStatus(status)
	if reviewer.Valid {
		id := generic.EmployeeID(reviewer.String)
		req.ReviewerID = &id
	}
	if decidedAt.Valid {
		t, err := parseTime(decidedAt.String)
		if err != nil {
			return nil, err
		}
		req.DecidedAt = &t
	}
	if req.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if req.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"overtime_requests", "clock_events", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored instant %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullEmployeeID(id *generic.EmployeeID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return nullString(string(*id))
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isActiveSlotError tells the partial index apart from a primary-key clash.
// SQLite reports the indexed columns, not the index name.
func isActiveSlotError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "overtime_requests.employee_id")
}
