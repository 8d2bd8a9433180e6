// Package observability provides the production implementation of the
// lane package's Observer collaborator: structured stdlib logging plus
// Prometheus metrics for every lane event.
package observability

import (
	"log"

	"github.com/tutu-network/tasklane/internal/infra/metrics"
	"github.com/tutu-network/tasklane/internal/lane"
)

// StdObserver logs every lane event via the standard library logger and
// records it to Prometheus. It never blocks a lane operation — logging and
// metric recording are both synchronous but cheap, matching the daemon's
// existing stdlib-log convention.
type StdObserver struct {
	logger *log.Logger
}

// NewStdObserver returns a StdObserver writing through logger. A nil
// logger falls back to the standard logger.
func NewStdObserver(logger *log.Logger) *StdObserver {
	if logger == nil {
		logger = log.Default()
	}
	return &StdObserver{logger: logger}
}

func (o *StdObserver) OnEnqueue(e lane.Event) {
	metrics.TasksEnqueued.WithLabelValues(e.LaneType, e.TenantID).Inc()
	switch e.LaneType {
	case "main":
		metrics.MainQueueDepth.WithLabelValues(e.TenantID).Set(float64(e.QueueSize))
	case "cron":
		metrics.CronScheduledCount.WithLabelValues(e.TenantID).Set(float64(e.QueueSize))
	}
	o.logger.Printf("[lane] enqueue lane=%s tenant=%s id=%s priority=%d", e.LaneType, e.TenantID, e.ID, e.Priority)
}

func (o *StdObserver) OnDequeue(e lane.Event) {
	metrics.TasksDequeued.WithLabelValues(e.LaneType, e.TenantID).Inc()
	switch e.LaneType {
	case "main", "subagent":
		metrics.DequeueLatency.WithLabelValues(e.LaneType, e.TenantID).Observe(e.Latency.Seconds())
		if e.LaneType == "main" {
			metrics.MainQueueDepth.WithLabelValues(e.TenantID).Set(float64(e.QueueSize))
		}
	case "cron":
		metrics.CronScheduledCount.WithLabelValues(e.TenantID).Set(float64(e.QueueSize))
	}
	o.logger.Printf("[lane] dequeue lane=%s tenant=%s id=%s", e.LaneType, e.TenantID, e.ID)
}

func (o *StdObserver) OnSpawn(e lane.Event) {
	metrics.TasksEnqueued.WithLabelValues(e.LaneType, e.TenantID).Inc()
	metrics.SubagentLiveWorkers.WithLabelValues(e.TenantID).Set(float64(e.QueueSize))
	metrics.SubagentConcurrencyPercent.WithLabelValues(e.TenantID).Set(e.Percent)
	o.logger.Printf("[lane] spawn lane=%s tenant=%s id=%s priority=%d", e.LaneType, e.TenantID, e.ID, e.Priority)
}

func (o *StdObserver) OnComplete(e lane.Event) {
	metrics.SubagentLiveWorkers.WithLabelValues(e.TenantID).Set(float64(e.QueueSize))
	metrics.SubagentConcurrencyPercent.WithLabelValues(e.TenantID).Set(e.Percent)
	o.logger.Printf("[lane] complete lane=%s tenant=%s id=%s", e.LaneType, e.TenantID, e.ID)
}

func (o *StdObserver) OnDrop(e lane.Event) {
	metrics.TasksDropped.WithLabelValues(e.LaneType, e.TenantID, e.Reason).Inc()
	if e.LaneType == "cron" && e.Reason == "recurrence-evaluation-failed" {
		metrics.CronRecurrenceFailures.WithLabelValues(e.TenantID).Inc()
	}
	o.logger.Printf("[lane] drop lane=%s tenant=%s id=%s reason=%s", e.LaneType, e.TenantID, e.ID, e.Reason)
}

func (o *StdObserver) OnDedupHit(e lane.Event) {
	metrics.DedupHits.WithLabelValues(e.TenantID).Inc()
	o.logger.Printf("[lane] dedup-hit lane=%s tenant=%s id=%s", e.LaneType, e.TenantID, e.ID)
}
