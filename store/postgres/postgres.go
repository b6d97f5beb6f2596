/*
Package postgres provides a PostgreSQL implementation of generic.Store.

PURPOSE:
  Multi-instance deployments share one PostgreSQL database. The contract is
  the one store/sqlite implements; this package differs in dialect only:
  native TIMESTAMPTZ, DATE and NUMERIC columns, $n placeholders, and
  unique violations detected by SQLSTATE instead of message text.

DRIVER:
  pgx through database/sql, opened by otelsql so every query becomes a span
  with the SQL commenter enabled.

SEE ALSO:
  - store/sqlite/sqlite.go: Embedded implementation and schema notes
  - generic/store.go: The contract
*/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/warp/workhours/generic"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	uniqueViolation = "23505"
	activeSlotIndex = "idx_overtime_active_slot"
)

type Store struct {
	db *sql.DB
}

var _ generic.Store = (*Store)(nil)

// New connects to dsn, verifies the connection and applies the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := otelsql.Open("pgx", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error                   { return s.db.Close() }
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL DEFAULT 'employee',
		hourly_rate NUMERIC NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clock_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		event_type TEXT NOT NULL,
		at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_clock_events_employee_at ON clock_events(employee_id, at);

	CREATE TABLE IF NOT EXISTS overtime_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		work_date DATE NOT NULL,
		estimated_hours NUMERIC NOT NULL,
		motive TEXT NOT NULL,
		justification TEXT NOT NULL,
		classification TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reviewer_id TEXT,
		decided_at TIMESTAMPTZ,
		comments TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_overtime_active_slot
		ON overtime_requests(employee_id, work_date)
		WHERE status IN ('pending', 'approved');
	CREATE INDEX IF NOT EXISTS idx_overtime_status ON overtime_requests(status);
	`)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = "id, name, email, role, hourly_rate::text, created_at"

func (s *Store) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, role, hourly_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			hourly_rate = EXCLUDED.hourly_rate
	`, emp.ID, emp.Name, nullString(emp.Email), emp.Role, emp.HourlyRate.String(), emp.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	emp, err := scanEmployee(s.db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, generic.ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
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
		emp        generic.Employee
		email      sql.NullString
		role, rate string
	)
	if err := row.Scan(&emp.ID, &emp.Name, &email, &role, &rate, &emp.CreatedAt); err != nil {
		return nil, err
	}
	emp.Email = email.String
	emp.Role = generic.Role(role)
	var err error
	if emp.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("invalid hourly_rate %q for employee %s: %w", rate, emp.ID, err)
	}
	return &emp, nil
}

// =============================================================================
// CLOCK EVENTS
// =============================================================================

func (s *Store) AppendClockEvent(ctx context.Context, ev generic.ClockEvent) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", string(ev.EmployeeID)))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clock_events (id, employee_id, event_type, at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.ID, ev.EmployeeID, ev.Type, ev.At.UTC(), ev.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append clock event: %w", err)
	}
	return nil
}

func (s *Store) ListClockEvents(ctx context.Context, employeeID generic.EmployeeID, from, to time.Time) ([]generic.ClockEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, event_type, at, created_at
		FROM clock_events
		WHERE employee_id = $1 AND at >= $2 AND at < $3
		ORDER BY at ASC, created_at ASC
	`, employeeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query clock events: %w", err)
	}
	defer rows.Close()

	var events []generic.ClockEvent
	for rows.Next() {
		var (
			ev  generic.ClockEvent
			typ string
		)
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &typ, &ev.At, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Type = generic.EventType(typ)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// OVERTIME REQUESTS
// =============================================================================

const requestColumns = `id, employee_id, work_date::text, estimated_hours::text, motive, justification,
	classification, status, reviewer_id, decided_at, comments, created_at, updated_at`

func (s *Store) CreateRequest(ctx context.Context, req generic.OvertimeRequest) error {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.employee_id", string(req.EmployeeID)),
		attribute.String("app.work_date", req.Date.String()),
	)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overtime_requests (id, employee_id, work_date, estimated_hours, motive, justification,
			classification, status, reviewer_id, decided_at, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		req.ID, req.EmployeeID, req.Date.String(), req.EstimatedHours.String(),
		req.Motive, req.Justification, req.Classification, req.Status,
		nullEmployeeID(req.ReviewerID), req.DecidedAt, req.Comments,
		req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation || pgErr.ConstraintName != activeSlotIndex {
		return fmt.Errorf("failed to create overtime request: %w", err)
	}

	existing, lookupErr := s.FindActiveRequest(ctx, req.EmployeeID, req.Date)
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

func (s *Store) GetRequest(ctx context.Context, id generic.RequestID) (*generic.OvertimeRequest, error) {
	req, err := scanRequest(s.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM overtime_requests WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, generic.ErrRequestNotFound
	}
	return req, err
}

func (s *Store) FindActiveRequest(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.OvertimeRequest, error) {
	req, err := scanRequest(s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM overtime_requests
		WHERE employee_id = $1 AND work_date = $2 AND status IN ('pending', 'approved')
	`, employeeID, date.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

func (s *Store) ListRequests(ctx context.Context, filter generic.RequestFilter) ([]generic.OvertimeRequest, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.EmployeeID != "" {
		add("employee_id = $%d", filter.EmployeeID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		add("work_date >= $%d", filter.From.String())
	}
	if !filter.To.IsZero() {
		add("work_date <= $%d", filter.To.String())
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

// SaveDecision is a compare-and-set on status = 'pending'.
func (s *Store) SaveDecision(ctx context.Context, req generic.OvertimeRequest) error {
	var id string
	err := s.db.QueryRowContext(ctx, `
		UPDATE overtime_requests
		SET status = $1, reviewer_id = $2, decided_at = $3, comments = $4, updated_at = $5
		WHERE id = $6 AND status = 'pending'
		RETURNING id
	`, req.Status, nullEmployeeID(req.ReviewerID), req.DecidedAt, req.Comments, req.UpdatedAt.UTC(), req.ID).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to save decision: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM overtime_requests WHERE id = $1)", req.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return generic.ErrRequestNotFound
	}
	return generic.ErrRequestNotPending
}

func scanRequest(row interface{ Scan(...any) error }) (*generic.OvertimeRequest, error) {
	var (
		req                    generic.OvertimeRequest
		workDate, hours        string
		classification, status string
		reviewer               sql.NullString
		decidedAt              sql.NullTime
	)
	err := row.Scan(
		&req.ID, &req.EmployeeID, &workDate, &hours, &req.Motive, &req.Justification,
		&classification, &status, &reviewer, &decidedAt, &req.Comments, &req.CreatedAt, &req.UpdatedAt,
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
		t := decidedAt.Time
		req.DecidedAt = &t
	}
	return &req, nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE overtime_requests, clock_events, employees")
	return err
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullEmployeeID(id *generic.EmployeeID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return nullString(string(*id))
}
