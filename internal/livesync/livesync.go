// Package livesync keeps an in-memory view of a dataset in step with its
// store. Each subscription periodically re-fetches its dataset, replaces the
// delivered view wholesale, and exposes a connection status the dashboard
// can render.
package livesync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Status is the connection state of a subscription.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Sentinel errors a fetch function can return to steer the state machine.
// Wrap them so errors.Is matches.
var (
	// ErrPermissionDenied is terminal: the subscription empties its view
	// and never retries.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnavailable marks a transient backend outage worth retrying.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrTimeout marks a fetch that ran out of time; treated like
	// ErrUnavailable.
	ErrTimeout = errors.New("fetch deadline exceeded")
)

// FetchFunc loads the full current dataset. The subscription replaces its
// view with whatever a successful fetch returns.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// DeliverFunc receives each new view. It is called from the subscription's
// goroutine and must not block; a nil or empty slice means the view was
// cleared.
type DeliverFunc[T any] func([]T)

// Subscription drives one dataset. The zero value is not usable; construct
// with NewSubscription and call Start.
type Subscription[T any] struct {
	name         string
	fetch        FetchFunc[T]
	deliver      DeliverFunc[T]
	pollInterval time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu               sync.Mutex
	status           Status
	timer            *time.Timer
	retriesScheduled int
	closed           bool
}

// NewSubscription creates a subscription in the connecting state. It does
// nothing until Start.
func NewSubscription[T any](name string, fetch FetchFunc[T], deliver DeliverFunc[T], pollInterval, retryDelay time.Duration, logger *slog.Logger) *Subscription[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscription[T]{
		name:         name,
		fetch:        fetch,
		deliver:      deliver,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		status:       StatusConnecting,
	}
}

// Start performs the initial fetch asynchronously. Further fetches are
// self-scheduling: a success books the next poll, a transient failure books
// exactly one retry.
func (s *Subscription[T]) Start() {
	go s.attempt()
}

// Status returns the current connection state.
func (s *Subscription[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RetriesScheduled reports how many transient-failure retries have been
// booked over the subscription's lifetime.
func (s *Subscription[T]) RetriesScheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retriesScheduled
}

// Close stops the subscription: the pending timer is cancelled and no
// further fetch or delivery happens. Close is idempotent.
func (s *Subscription[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.cancel()
}

// attempt runs one fetch and routes the outcome through the state machine.
func (s *Subscription[T]) attempt() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	data, err := s.fetch(s.ctx)

	switch {
	case err == nil:
		s.setStatus(StatusConnected)
		s.deliverLocked(data)
		s.schedule(s.pollInterval, false)

	case errors.Is(err, ErrPermissionDenied):
		s.logger.Warn("Subscription denied, giving up",
			slog.String("subscription", s.name))
		s.setStatus(StatusDisconnected)
		s.deliverLocked(nil)

	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		// Transient: the view keeps its last data, the status reads as
		// still connecting, and one retry replaces any pending timer.
		s.logger.Warn("Subscription fetch failed, retrying",
			slog.String("subscription", s.name),
			slog.Any("error", err))
		s.setStatus(StatusConnecting)
		s.schedule(s.retryDelay, true)

	default:
		s.logger.Error("Subscription fetch failed",
			slog.String("subscription", s.name),
			slog.Any("error", err))
		s.setStatus(StatusDisconnected)
		s.deliverLocked(nil)
	}
}

func (s *Subscription[T]) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.status = status
}

func (s *Subscription[T]) deliverLocked(data []T) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.deliver(data)
}

// schedule books the next attempt. There is a single timer slot: a new
// schedule always cancels whatever was pending, so overlapping failures
// never stack retries.
func (s *Subscription[T]) schedule(delay time.Duration, isRetry bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	if isRetry {
		s.retriesScheduled++
	}
	s.timer = time.AfterFunc(delay, s.attempt)
}
