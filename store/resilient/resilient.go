/*
Package resilient wraps a generic.Store with a circuit breaker and read retries.

PURPOSE:
  A database that is down should fail requests fast instead of letting every
  handler wait for its own timeout. Every store call goes through one
  gobreaker.CircuitBreaker; while it is open, calls return
  gobreaker.ErrOpenState immediately.

RETRIES:
  Reads are retried up to ReadAttempts times with cenkalti/backoff: the delay
  starts at BaseDelay, doubles per retry up to MaxDelay, and is spread by
  Jitter. Writes are executed once: a clock event or a decision that may or
  may not have landed must not be written twice.

WHAT COUNTS AS FAILURE:
  Domain errors (not found, duplicate, not pending) are answers, not outages.
  They neither trip the breaker nor trigger a retry. Context cancellation is
  the caller giving up and is treated the same way.

SEE ALSO:
  - generic/errors.go: IsDomainError
  - cmd/server/main.go: Wiring
*/
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/warp/workhours/generic"
)

// Settings tunes the breaker and retry loop.
type Settings struct {
	Name         string
	MaxRequests  uint32        // trial requests allowed while half-open
	Interval     time.Duration // closed-state counter reset
	Timeout      time.Duration // open -> half-open
	MinRequests  uint32        // requests before the ratio is considered
	FailureRatio float64
	ReadAttempts int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Jitter       float64 // randomization factor in [0, 1)
}

func DefaultSettings() Settings {
	return Settings{
		Name:         "store",
		MaxRequests:  5,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.5,
		ReadAttempts: 3,
		BaseDelay:    50 * time.Millisecond,
		MaxDelay:     time.Second,
		Jitter:       0.2,
	}
}

type Store struct {
	next     generic.Store
	cb       *gobreaker.CircuitBreaker
	settings Settings
	log      zerolog.Logger
}

var _ generic.Store = (*Store)(nil)

func New(next generic.Store, settings Settings, log zerolog.Logger) *Store {
	s := &Store{
		next:     next,
		settings: settings,
		log:      log.With().Str("component", "resilient_store").Logger(),
	}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= settings.MinRequests && failureRatio >= settings.FailureRatio
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return s
}

// State reports the breaker state for health checks.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func isSuccessful(err error) bool {
	return err == nil ||
		generic.IsDomainError(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// EXECUTION
// =============================================================================

func (s *Store) write(fn func() error) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func read[T any](ctx context.Context, s *Store, op string, fn func() (T, error)) (T, error) {
	var last error
	out, err := backoff.Retry(ctx, func() (T, error) {
		v, err := s.cb.Execute(func() (interface{}, error) {
			return fn()
		})
		if err == nil {
			return v.(T), nil
		}
		last = err
		var zero T
		if isSuccessful(err) || errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(uint(max(s.settings.ReadAttempts, 1))),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			s.log.Debug().Err(err).Str("op", op).Dur("delay", delay).Msg("retrying store read")
		}),
	)
	if err == nil {
		return out, nil
	}
	// Report the store's error, not the wrapper or the caller's cancellation.
	if last != nil {
		return out, last
	}
	return out, err
}

func (s *Store) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.settings.BaseDelay
	b.MaxInterval = s.settings.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = s.settings.Jitter
	return b
}

// =============================================================================
// generic.Store
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	return s.write(func() error { return s.next.SaveEmployee(ctx, emp) })
}

func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*generic.Employee, error) {
	return read(ctx, s, "get_employee", func() (*generic.Employee, error) {
		return s.next.GetEmployee(ctx, id)
	})
}

func (s *Store) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	return read(ctx, s, "list_employees", func() ([]generic.Employee, error) {
		return s.next.ListEmployees(ctx)
	})
}

func (s *Store) AppendClockEvent(ctx context.Context, ev generic.ClockEvent) error {
	return s.write(func() error { return s.next.AppendClockEvent(ctx, ev) })
}

func (s *Store) ListClockEvents(ctx context.Context, employeeID generic.EmployeeID, from, to time.Time) ([]generic.ClockEvent, error) {
	return read(ctx, s, "list_clock_events", func() ([]generic.ClockEvent, error) {
		return s.next.ListClockEvents(ctx, employeeID, from, to)
	})
}

func (s *Store) CreateRequest(ctx context.Context, req generic.OvertimeRequest) error {
	return s.write(func() error { return s.next.CreateRequest(ctx, req) })
}

func (s *Store) GetRequest(ctx context.Context, id generic.RequestID) (*generic.OvertimeRequest, error) {
	return read(ctx, s, "get_request", func() (*generic.OvertimeRequest, error) {
		return s.next.GetRequest(ctx, id)
	})
}

func (s *Store) FindActiveRequest(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (*generic.OvertimeRequest, error) {
	return read(ctx, s, "find_active_request", func() (*generic.OvertimeRequest, error) {
		return s.next.FindActiveRequest(ctx, employeeID, date)
	})
}

func (s *Store) ListRequests(ctx context.Context, filter generic.RequestFilter) ([]generic.OvertimeRequest, error) {
	return read(ctx, s, "list_requests", func() ([]generic.OvertimeRequest, error) {
		return s.next.ListRequests(ctx, filter)
	})
}

func (s *Store) SaveDecision(ctx context.Context, req generic.OvertimeRequest) error {
	return s.write(func() error { return s.next.SaveDecision(ctx, req) })
}
