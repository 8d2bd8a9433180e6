package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatherNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestEnqueueDequeueCounters(t *testing.T) {
	TasksEnqueued.WithLabelValues("main", "t1").Inc()
	TasksDequeued.WithLabelValues("main", "t1").Inc()
	TasksDropped.WithLabelValues("main", "t1", "capacity-exceeded").Inc()
	DequeueLatency.WithLabelValues("main", "t1").Observe(0.05)

	names := gatherNames(t)
	for _, name := range []string{
		"tasklane_enqueued_total",
		"tasklane_dequeued_total",
		"tasklane_dropped_total",
		"tasklane_dequeue_latency_seconds",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestMainLaneMetrics(t *testing.T) {
	MainQueueDepth.WithLabelValues("t1").Set(3)
	DedupHits.WithLabelValues("t1").Inc()

	names := gatherNames(t)
	if !names["tasklane_main_queue_depth"] {
		t.Error("tasklane_main_queue_depth not found")
	}
	if !names["tasklane_dedup_hits_total"] {
		t.Error("tasklane_dedup_hits_total not found")
	}
}

func TestCronLaneMetrics(t *testing.T) {
	CronScheduledCount.WithLabelValues("t1").Set(2)
	CronSweepDuration.Observe(0.002)
	CronRecurrenceFailures.WithLabelValues("t1").Inc()

	names := gatherNames(t)
	for _, name := range []string{
		"tasklane_cron_scheduled_count",
		"tasklane_cron_sweep_duration_seconds",
		"tasklane_cron_recurrence_failures_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestSubagentLaneMetrics(t *testing.T) {
	SubagentLiveWorkers.WithLabelValues("t1").Set(4)
	SubagentConcurrencyPercent.WithLabelValues("t1").Set(40)

	names := gatherNames(t)
	if !names["tasklane_subagent_live_workers"] {
		t.Error("tasklane_subagent_live_workers not found")
	}
	if !names["tasklane_subagent_concurrency_percent"] {
		t.Error("tasklane_subagent_concurrency_percent not found")
	}
}

func TestHealthMetrics(t *testing.T) {
	HealthCheckStatus.WithLabelValues("cron-sweep-staleness").Set(1)
	HealthCheckStatus.WithLabelValues("queue-saturation").Set(0)
	HealthRecoveries.WithLabelValues("cron-sweep-staleness").Inc()

	names := gatherNames(t)
	if !names["tasklane_health_check_status"] {
		t.Error("tasklane_health_check_status not found")
	}
	if !names["tasklane_health_recoveries_total"] {
		t.Error("tasklane_health_recoveries_total not found")
	}
}

func TestAllMetricsGatherable(t *testing.T) {
	names := gatherNames(t)
	tasklaneMetrics := 0
	for name := range names {
		if len(name) > len("tasklane_") && name[:len("tasklane_")] == "tasklane_" {
			tasklaneMetrics++
		}
	}
	if tasklaneMetrics < 10 {
		t.Errorf("expected at least 10 tasklane_ metrics, got %d", tasklaneMetrics)
	}
}
