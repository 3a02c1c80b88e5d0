// Package compliance gates regulatory actions on transaction confirmation
// depth and assembles standard-specific compliance reports. The confirmation
// wait is polling-based by design; all sleeping goes through an injectable
// Sleeper and all timing through an injectable clock so the core stays
// synchronously testable.
package compliance

import (
	"context"
	"time"
)

// defaultCheckInterval is how long the gate waits between confirmation
// polls.
const defaultCheckInterval = 30 * time.Second

// Sleeper blocks for a duration or until the context is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// timerSleeper is the production Sleeper, honoring ctx cancellation.
type timerSleeper struct{}

var _ Sleeper = timerSleeper{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Service is the compliance gate's public contract.
type Service interface {
	// WaitForConfirmations blocks until the transaction reaches the
	// required confirmation depth, the timeout elapses, or ctx is
	// canceled. On timeout it returns a *ComplianceViolation carrying the
	// last observed confirmation count; provider failures surface as
	// ordinary wrapped errors, distinguishable via ErrConfirmationTimeout.
	WaitForConfirmations(ctx context.Context, txHash, network string, required int, timeout time.Duration) error

	// GenerateReport builds a fresh compliance report for the address
	// covering each requested standard. Custom generators registered for a
	// standard name take precedence over the built-ins; a standard with
	// neither fails the whole call with *UnsupportedStandard.
	GenerateReport(ctx context.Context, address string, standards []string) (Report, error)
}

type service struct {
	provider      Provider
	checkInterval time.Duration
	sleeper       Sleeper
	now           func() time.Time

	generators map[string]ReportGenerator
}

var _ Service = (*service)(nil)

type config struct {
	checkInterval time.Duration
	sleeper       Sleeper
	now           func() time.Time
	generators    map[string]ReportGenerator
}

// Option configures the compliance service.
type Option func(*config)

// WithCheckInterval overrides the delay between confirmation polls.
// Default: 30 seconds.
func WithCheckInterval(d time.Duration) Option {
	return func(c *config) {
		c.checkInterval = d
	}
}

// WithSleeper injects the sleeping implementation. Tests use a fake that
// advances a synthetic clock instead of blocking.
func WithSleeper(s Sleeper) Option {
	return func(c *config) {
		c.sleeper = s
	}
}

// WithClock injects the time source used for timeout accounting and report
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithReportGenerator registers a custom generator for the given standard
// name. It takes precedence over a built-in generator of the same name.
func WithReportGenerator(standard string, gen ReportGenerator) Option {
	return func(c *config) {
		c.generators[standard] = gen
	}
}

// New creates a compliance service backed by the given provider.
func New(provider Provider, opts ...Option) *service {
	cfg := config{
		checkInterval: defaultCheckInterval,
		sleeper:       timerSleeper{},
		now:           time.Now,
		generators:    make(map[string]ReportGenerator),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		provider:      provider,
		checkInterval: cfg.checkInterval,
		sleeper:       cfg.sleeper,
		now:           cfg.now,
		generators:    cfg.generators,
	}
}
