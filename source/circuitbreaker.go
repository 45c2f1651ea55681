package source

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bittoy/reactive/ierrors"
)

// CircuitBreaker wraps a Source so a persistently failing Write stops
// being attempted for a cooldown period, rather than being hammered on
// every local-change batch between reconnect attempts. It is grounded on
// github.com/sony/gobreaker the way the jordigilh-kubernaut example repo
// uses it to guard an outbound call.
type CircuitBreaker struct {
	Source
	breaker *gobreaker.CircuitBreaker
}

// CircuitBreakerConfig configures the breaker wrapping a Source's Write.
type CircuitBreakerConfig struct {
	// MaxFailures trips the breaker open after this many consecutive
	// Write failures. Defaults to 5.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before allowing a
	// single trial request through. Defaults to 30s.
	OpenTimeout time.Duration
}

// NewCircuitBreaker wraps src with a gobreaker.CircuitBreaker configured
// from cfg.
func NewCircuitBreaker(src Source, cfg CircuitBreakerConfig) *CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "source." + src.Name(),
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
	return &CircuitBreaker{Source: src, breaker: breaker}
}

// Write implements Source, routing through the breaker. When the breaker
// is open, Write fails fast with a TransportError instead of calling the
// underlying Source.
func (c *CircuitBreaker) Write(ctx context.Context, updates []Outbound) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.Source.Write(ctx, updates)
	})
	if err != nil {
		return ierrors.NewTransportError(c.Source.Name(), err)
	}
	return nil
}

// State reports the breaker's current state (closed, open, half-open).
func (c *CircuitBreaker) State() gobreaker.State {
	return c.breaker.State()
}
