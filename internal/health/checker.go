// Package health provides periodic health checks over the lane scheduler,
// with optional auto-recovery actions.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tutu-network/tasklane/internal/infra/metrics"
	"github.com/tutu-network/tasklane/internal/lane"
)

// Check defines a single health check with an optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// SaturationThreshold is the queue-depth / concurrency percentage above
// which a tenant's lane is considered unhealthy.
const SaturationThreshold = 90.0

// StalenessThreshold is how long ago a tenant's last sweep may have been,
// while its Cron Lane holds a due schedule, before that tenant's cron check
// is unhealthy. A tenant with a due schedule and no recorded sweep is
// unhealthy at once.
const StalenessThreshold = 5 * time.Minute

// NewChecker builds the standard checks: per-tenant saturation of the Main
// Lane's queue depth and the Subagent Lane's concurrency (the Cron Lane is
// not checked for saturation), and cron sweep staleness. tenantIDs is the set of
// tenants to check; lastSweep reports when each tenant's Cron Lane was last
// swept (for staleness detection) — callers typically pass the daemon's
// sweep driver's own bookkeeping.
func NewChecker(mgr *lane.Manager, tenantIDs func() []string, lastSweep func(tenantID string) (time.Time, bool), now func() time.Time) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "queue-saturation",
				CheckFn: func(ctx context.Context) error {
					return checkSaturation(mgr, tenantIDs())
				},
			},
			{
				Name: "cron-sweep-staleness",
				CheckFn: func(ctx context.Context) error {
					return checkSweepStaleness(mgr, tenantIDs(), lastSweep, now())
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{Name: check.Name, CheckedAt: time.Now()}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
			if check.RecoverFn != nil {
				if rerr := check.RecoverFn(ctx); rerr == nil {
					metrics.HealthRecoveries.WithLabelValues(check.Name).Inc()
				}
			}
		} else {
			s.Healthy = true
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass (vacuously true before any run).
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

func checkSaturation(mgr *lane.Manager, tenantIDs []string) error {
	for _, tenantID := range tenantIDs {
		stats := mgr.Stats(tenantID)
		if stats.Main.QueueDepthPercent >= SaturationThreshold {
			return fmt.Errorf("tenant %s main lane at %.1f%% capacity", tenantID, stats.Main.QueueDepthPercent)
		}
		if stats.Subagent.ConcurrencyPercent >= SaturationThreshold {
			return fmt.Errorf("tenant %s subagent lane at %.1f%% concurrency", tenantID, stats.Subagent.ConcurrencyPercent)
		}
	}
	return nil
}

func checkSweepStaleness(mgr *lane.Manager, tenantIDs []string, lastSweep func(string) (time.Time, bool), now time.Time) error {
	for _, tenantID := range tenantIDs {
		l, ok := mgr.CronLaneFor(tenantID)
		if !ok {
			continue
		}
		next, hasNext := l.NextExecution()
		if !hasNext || !next.Before(now) {
			continue
		}
		swept, ok := lastSweep(tenantID)
		if !ok || now.Sub(swept) > StalenessThreshold {
			return fmt.Errorf("tenant %s has a due schedule at %v not yet swept", tenantID, next)
		}
	}
	return nil
}
