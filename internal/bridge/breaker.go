package bridge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"causalbridge/api/schemas"
)

// Breaker trip defaults.
const (
	DefaultFailureThreshold = 3
	DefaultCooldownPeriod   = 60 * time.Second
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker wraps an EngineCaller and stops invoking it once it has
// failed failureThreshold times in a row, short-circuiting further calls for
// cooldown. This keeps a dead engine from turning every caller into a slow
// timeout. The breaker is an injectable value, not a singleton, so tests and
// independent facades can own separate instances.
type CircuitBreaker struct {
	inner     schemas.EngineCaller
	threshold int
	cooldown  time.Duration
	log       *zap.Logger

	// now is swapped out by tests to step through the cooldown window.
	now func() time.Time

	// mu guards only the state transition fields, never the engine call
	// itself; a slow subprocess must not serialize other callers' state
	// bookkeeping.
	mu           sync.Mutex
	state        State
	failureCount int
	lastFailure  time.Time
	probing      bool
}

var _ schemas.EngineCaller = (*CircuitBreaker)(nil)

// NewCircuitBreaker wraps inner. Non-positive threshold or cooldown select
// the defaults.
func NewCircuitBreaker(inner schemas.EngineCaller, threshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldownPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		inner:     inner,
		threshold: threshold,
		cooldown:  cooldown,
		log:       logger.Named("breaker"),
		now:       time.Now,
	}
}

// State returns the current breaker state.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call passes the request through unless the breaker is open. While open and
// inside the cooldown window it returns CircuitOpenError without touching
// the engine; once the window elapses a single probe call is admitted and
// its outcome decides whether the circuit closes again.
func (b *CircuitBreaker) Call(ctx context.Context, req *schemas.EngineRequest) (*schemas.EngineResponse, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	resp, err := b.inner.Call(ctx, req)
	b.record(err == nil)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed < b.cooldown {
			return &CircuitOpenError{RetryAfter: b.cooldown - elapsed}
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			// Exactly one probe at a time. Its verdict is pending, so the
			// advertised wait is zero, not a fresh cooldown.
			return &CircuitOpenError{}
		}
		b.probing = true
		return nil
	}
	return nil
}

func (b *CircuitBreaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if success {
		b.failureCount = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.lastFailure = b.now()
		b.transition(StateOpen)
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.threshold {
			b.lastFailure = b.now()
			b.transition(StateOpen)
		}
	case StateOpen:
		// A call admitted before the trip finished after it; the window
		// restarts from the most recent failure.
		b.lastFailure = b.now()
	}
}

// transition logs and applies a state change. Caller holds b.mu.
func (b *CircuitBreaker) transition(next State) {
	b.log.Info("Circuit breaker state change",
		zap.Stringer("from", b.state),
		zap.Stringer("to", next),
		zap.Int("failure_count", b.failureCount),
	)
	b.state = next
}
