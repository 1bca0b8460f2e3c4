// Package trigger provides the scheduling surface for periodic sync and
// fan-out over workspaces, with per-workspace failure isolation and
// concurrency-key serialization.
package trigger

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler abstracts the external trigger system so coordinator logic is
// testable without a real cron runner.
type Scheduler interface {
	// Schedule registers a handler against a cron expression.
	Schedule(expr string, handler func()) error

	// Start begins firing scheduled handlers in the background.
	Start()

	// Stop stops firing handlers. Running handlers are not interrupted.
	Stop()
}

// cronScheduler is the production Scheduler backed by robfig/cron.
type cronScheduler struct {
	c *cron.Cron
}

// NewCronScheduler creates a Scheduler using standard 5-field cron
// expressions (minute granularity).
func NewCronScheduler() Scheduler {
	return &cronScheduler{c: cron.New()}
}

func (s *cronScheduler) Schedule(expr string, handler func()) error {
	if _, err := s.c.AddFunc(expr, handler); err != nil {
		return fmt.Errorf("failed to schedule %q: %w", expr, err)
	}
	return nil
}

func (s *cronScheduler) Start() {
	s.c.Start()
}

func (s *cronScheduler) Stop() {
	s.c.Stop()
}
