package source

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/bittoy/reactive/icontext"
)

// RetryScheduler periodically attempts to flush a Connector's retry queue
// on a cron-style schedule, an alternative to flushing only when a
// reconnect happens to succeed — useful for a Source whose Start never
// itself fails but whose Write keeps failing transiently. Grounded on
// github.com/robfig/cron/v3, adopted from the r3e-network-service_layer
// example for its periodic-task scheduling.
type RetryScheduler struct {
	cron   *cron.Cron
	logger icontext.Logger
}

// NewRetryScheduler builds a RetryScheduler using logger for flush-error
// reporting (NopLogger if nil).
func NewRetryScheduler(logger icontext.Logger) *RetryScheduler {
	if logger == nil {
		logger = icontext.NopLogger()
	}
	return &RetryScheduler{cron: cron.New(), logger: logger}
}

// Schedule adds c to the schedule: spec is a standard 5-field cron
// expression (e.g. "*/30 * * * * *" is not standard cron — use
// "@every 30s" for sub-minute intervals, as robfig/cron/v3 supports).
func (s *RetryScheduler) Schedule(spec string, c *Connector) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := c.flushRetryQueue(context.Background()); err != nil {
			s.logger.Warnf("source %s: scheduled retry flush failed: %v", c.name, err)
		}
	})
	return err
}

// Start begins running scheduled flushes in the background.
func (s *RetryScheduler) Start() { s.cron.Start() }

// Stop halts the scheduler; in-flight flushes are allowed to finish.
func (s *RetryScheduler) Stop() { <-s.cron.Stop().Done() }
