package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tutu-network/tasklane/internal/api"
	"github.com/tutu-network/tasklane/internal/domain"
	"github.com/tutu-network/tasklane/internal/health"
	"github.com/tutu-network/tasklane/internal/infra/clock"
	"github.com/tutu-network/tasklane/internal/infra/metrics"
	"github.com/tutu-network/tasklane/internal/infra/recur"
	"github.com/tutu-network/tasklane/internal/lane"
	"github.com/tutu-network/tasklane/internal/observability"
)

// Daemon is the tasklane runtime: a Lane Manager, its cron sweep driver,
// health checker, and the admin HTTP server fronting all three.
type Daemon struct {
	Config  Config
	Manager *lane.Manager
	Server  *api.Server
	Checker *health.Checker

	sweepMu   sync.Mutex
	lastSweep map[string]time.Time

	cancel context.CancelFunc
}

// New creates a Daemon using the on-disk config (or defaults).
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	policy := domain.LanePolicy{
		MaxQueueDepth:       cfg.Lanes.MaxQueueDepth,
		MaxConcurrency:      cfg.Lanes.MaxConcurrency,
		BackpressureTimeout: cfg.Lanes.BackpressureTimeoutDuration(),
		DedupWindow:         cfg.Lanes.DedupWindowDuration(),
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lane policy: %w", err)
	}

	realClock := clock.New()
	evaluator := recur.New()
	observer := observability.NewStdObserver(nil)

	mgr := lane.NewManager(policy, realClock, evaluator, observer)

	d := &Daemon{
		Config:    cfg,
		Manager:   mgr,
		lastSweep: make(map[string]time.Time),
	}

	if cfg.Telemetry.HealthChecks {
		d.Checker = health.NewChecker(mgr, mgr.CronTenantIDs, d.sweptAt, func() time.Time { return realClock.Now() })
	}

	srv := api.NewServer(mgr, d.Checker)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

func (d *Daemon) sweptAt(tenantID string) (time.Time, bool) {
	d.sweepMu.Lock()
	defer d.sweepMu.Unlock()
	t, ok := d.lastSweep[tenantID]
	return t, ok
}

func (d *Daemon) recordSweep(tenantID string, at time.Time) {
	d.sweepMu.Lock()
	defer d.sweepMu.Unlock()
	d.lastSweep[tenantID] = at
}

// runCronSweep periodically evaluates every tenant's Cron Lane and
// resubmits each due task into that tenant's Main Lane. The core never
// self-triggers this sweep (see Manager.CronTenantIDs) — the daemon is
// the driver.
func (d *Daemon) runCronSweep(ctx context.Context) {
	interval := d.Config.Lanes.CronSweepIntervalDuration()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepStart := time.Now()
			now := sweepStart
			for _, tenantID := range d.Manager.CronTenantIDs() {
				due, errs := d.Manager.SweepCron(tenantID, now)
				d.recordSweep(tenantID, now)
				for id, err := range errs {
					log.Printf("[daemon] cron recurrence evaluation failed tenant=%s schedule=%s: %v", tenantID, id, err)
				}
				for _, st := range due {
					if _, err := d.Manager.EnqueueMainTask(lane.MainSubmission{Task: st.Task, Priority: st.Priority}); err != nil {
						log.Printf("[daemon] failed to enqueue due cron task tenant=%s schedule=%s: %v", tenantID, st.ScheduleID, err)
					}
				}
			}
			metrics.CronSweepDuration.Observe(time.Since(sweepStart).Seconds())
		}
	}
}

// Serve starts the admin HTTP server and the cron sweep driver, and blocks
// until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.runCronSweep(ctx)
	if d.Checker != nil {
		go d.Checker.Run(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("tasklane serving on http://%s", addr)
	if d.Config.Telemetry.Prometheus {
		log.Printf("  metrics: http://%s/metrics", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
}
