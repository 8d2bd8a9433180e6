// Package metrics provides Prometheus metrics for the lane scheduler:
// counters and gauges for enqueue, dequeue, spawn, completion, and drop
// events across all three lanes, plus per-tenant saturation gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Enqueue / Dequeue ──────────────────────────────────────────────────────

// TasksEnqueued tracks successful admissions by lane and tenant.
var TasksEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tasklane",
	Name:      "enqueued_total",
	Help:      "Total tasks accepted into a lane.",
}, []string{"lane", "tenant"})

// TasksDequeued tracks successful dequeues by lane and tenant.
var TasksDequeued = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tasklane",
	Name:      "dequeued_total",
	Help:      "Total tasks served out of a lane.",
}, []string{"lane", "tenant"})

// TasksDropped tracks rejected admissions by lane, tenant, and reason.
var TasksDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tasklane",
	Name:      "dropped_total",
	Help:      "Total tasks rejected at admission, by reason.",
}, []string{"lane", "tenant", "reason"})

// DequeueLatency tracks time spent blocked in Dequeue before a task arrives.
var DequeueLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "tasklane",
	Name:      "dequeue_latency_seconds",
	Help:      "Time a dequeue call spent blocked before returning.",
	Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
}, []string{"lane", "tenant"})

// ─── Main Lane ──────────────────────────────────────────────────────────────

// MainQueueDepth tracks current Main Lane queue size by tenant.
var MainQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "tasklane",
	Name:      "main_queue_depth",
	Help:      "Current number of queued tasks in the Main Lane.",
}, []string{"tenant"})

// DedupHits tracks idempotent resubmissions served from the dedup cache.
var DedupHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tasklane",
	Name:      "dedup_hits_total",
	Help:      "Total submissions short-circuited by a cached idempotency key.",
}, []string{"tenant"})

// ─── Cron Lane ──────────────────────────────────────────────────────────────

// CronScheduledCount tracks the number of schedules currently held.
var CronScheduledCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "tasklane",
	Name:      "cron_scheduled_count",
	Help:      "Current number of schedules held in the Cron Lane.",
}, []string{"tenant"})

// CronSweepDuration tracks how long a sweep pass takes.
var CronSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "tasklane",
	Name:      "cron_sweep_duration_seconds",
	Help:      "Duration of one cron sweep pass across all tenants.",
	Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1},
})

// CronRecurrenceFailures tracks schedules dropped on a recurrence
// evaluation failure.
var CronRecurrenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tasklane",
	Name:      "cron_recurrence_failures_total",
	Help:      "Total recurring schedules dropped due to a recurrence evaluation failure.",
}, []string{"tenant"})

// ─── Subagent Lane ──────────────────────────────────────────────────────────

// SubagentLiveWorkers tracks currently spawned-but-not-completed workers.
var SubagentLiveWorkers = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "tasklane",
	Name:      "subagent_live_workers",
	Help:      "Number of spawned subagent workers not yet completed.",
}, []string{"tenant"})

// SubagentConcurrencyPercent tracks live worker count against policy cap.
var SubagentConcurrencyPercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "tasklane",
	Name:      "subagent_concurrency_percent",
	Help:      "Live worker count as a percentage of the configured concurrency cap.",
}, []string{"tenant"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "tasklane",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tasklane",
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})
