package observability

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/tutu-network/tasklane/internal/infra/metrics"
	"github.com/tutu-network/tasklane/internal/lane"
)

func histogramSampleCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	h, ok := o.(prometheus.Histogram)
	if !ok {
		t.Fatal("observer is not a prometheus.Histogram")
	}
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestStdObserver_OnEnqueue_Logs(t *testing.T) {
	var buf bytes.Buffer
	o := NewStdObserver(log.New(&buf, "", 0))

	o.OnEnqueue(lane.Event{Kind: lane.EventEnqueue, TenantID: "t1", LaneType: "main", ID: "abc", Priority: 5, At: time.Now()})

	out := buf.String()
	if !strings.Contains(out, "enqueue") || !strings.Contains(out, "t1") || !strings.Contains(out, "abc") {
		t.Errorf("log output = %q, missing expected fields", out)
	}
}

func TestStdObserver_OnDrop_LogsReason(t *testing.T) {
	var buf bytes.Buffer
	o := NewStdObserver(log.New(&buf, "", 0))

	o.OnDrop(lane.Event{Kind: lane.EventDrop, TenantID: "t1", LaneType: "main", ID: "abc", Reason: "capacity-exceeded", At: time.Now()})

	out := buf.String()
	if !strings.Contains(out, "capacity-exceeded") {
		t.Errorf("log output = %q, want it to mention drop reason", out)
	}
}

func TestNewStdObserver_NilLoggerFallsBack(t *testing.T) {
	o := NewStdObserver(nil)
	if o.logger == nil {
		t.Fatal("expected fallback logger, got nil")
	}
}

func TestStdObserver_OnDedupHit_IncrementsMetric(t *testing.T) {
	o := NewStdObserver(log.New(&bytes.Buffer{}, "", 0))
	before := testutil.ToFloat64(metrics.DedupHits.WithLabelValues("t-dedup"))

	o.OnDedupHit(lane.Event{Kind: lane.EventDedupHit, TenantID: "t-dedup", LaneType: "main", ID: "abc", At: time.Now()})

	if got := testutil.ToFloat64(metrics.DedupHits.WithLabelValues("t-dedup")); got != before+1 {
		t.Errorf("DedupHits = %v, want %v", got, before+1)
	}
}

func TestStdObserver_OnDequeue_ObservesLatencyForBlockingLanes(t *testing.T) {
	o := NewStdObserver(log.New(&bytes.Buffer{}, "", 0))
	obs := metrics.DequeueLatency.WithLabelValues("main", "t-latency")
	before := histogramSampleCount(t, obs)

	o.OnDequeue(lane.Event{Kind: lane.EventDequeue, TenantID: "t-latency", LaneType: "main", ID: "abc", Latency: 50 * time.Millisecond, At: time.Now()})

	if after := histogramSampleCount(t, obs); after != before+1 {
		t.Errorf("DequeueLatency sample count = %v, want %v", after, before+1)
	}
}

func TestStdObserver_OnDequeue_CronLaneDoesNotObserveLatency(t *testing.T) {
	o := NewStdObserver(log.New(&bytes.Buffer{}, "", 0))
	obs := metrics.DequeueLatency.WithLabelValues("cron", "t-latency-cron")
	before := histogramSampleCount(t, obs)

	o.OnDequeue(lane.Event{Kind: lane.EventDequeue, TenantID: "t-latency-cron", LaneType: "cron", ID: "sched-1", QueueSize: 1, At: time.Now()})

	if after := histogramSampleCount(t, obs); after != before {
		t.Errorf("DequeueLatency sample count for cron = %v, want unchanged %v", after, before)
	}
}

func TestStdObserver_OnEnqueue_SetsLaneGauges(t *testing.T) {
	o := NewStdObserver(log.New(&bytes.Buffer{}, "", 0))

	o.OnEnqueue(lane.Event{Kind: lane.EventEnqueue, TenantID: "t-main", LaneType: "main", ID: "abc", QueueSize: 7, At: time.Now()})
	if got := testutil.ToFloat64(metrics.MainQueueDepth.WithLabelValues("t-main")); got != 7 {
		t.Errorf("MainQueueDepth = %v, want 7", got)
	}

	o.OnEnqueue(lane.Event{Kind: lane.EventEnqueue, TenantID: "t-cron", LaneType: "cron", ID: "sched-1", QueueSize: 3, At: time.Now()})
	if got := testutil.ToFloat64(metrics.CronScheduledCount.WithLabelValues("t-cron")); got != 3 {
		t.Errorf("CronScheduledCount = %v, want 3", got)
	}
}

func TestStdObserver_OnSpawnAndOnComplete_SetSubagentGauges(t *testing.T) {
	o := NewStdObserver(log.New(&bytes.Buffer{}, "", 0))

	o.OnSpawn(lane.Event{Kind: lane.EventSpawn, TenantID: "t-sub", LaneType: "subagent", ID: "exec-1", QueueSize: 2, Percent: 20, At: time.Now()})
	if got := testutil.ToFloat64(metrics.SubagentLiveWorkers.WithLabelValues("t-sub")); got != 2 {
		t.Errorf("SubagentLiveWorkers after spawn = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.SubagentConcurrencyPercent.WithLabelValues("t-sub")); got != 20 {
		t.Errorf("SubagentConcurrencyPercent after spawn = %v, want 20", got)
	}

	o.OnComplete(lane.Event{Kind: lane.EventComplete, TenantID: "t-sub", LaneType: "subagent", ID: "exec-1", QueueSize: 1, Percent: 10, At: time.Now()})
	if got := testutil.ToFloat64(metrics.SubagentLiveWorkers.WithLabelValues("t-sub")); got != 1 {
		t.Errorf("SubagentLiveWorkers after complete = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.SubagentConcurrencyPercent.WithLabelValues("t-sub")); got != 10 {
		t.Errorf("SubagentConcurrencyPercent after complete = %v, want 10", got)
	}
}

func TestStdObserver_OnDrop_RecurrenceFailureIncrementsDedicatedCounter(t *testing.T) {
	o := NewStdObserver(log.New(&bytes.Buffer{}, "", 0))
	before := testutil.ToFloat64(metrics.CronRecurrenceFailures.WithLabelValues("t-recur"))

	o.OnDrop(lane.Event{Kind: lane.EventDrop, TenantID: "t-recur", LaneType: "cron", ID: "sched-1", Reason: "recurrence-evaluation-failed", At: time.Now()})

	if got := testutil.ToFloat64(metrics.CronRecurrenceFailures.WithLabelValues("t-recur")); got != before+1 {
		t.Errorf("CronRecurrenceFailures = %v, want %v", got, before+1)
	}

	// A drop for an unrelated reason must not feed the dedicated counter.
	before = testutil.ToFloat64(metrics.CronRecurrenceFailures.WithLabelValues("t-other"))
	o.OnDrop(lane.Event{Kind: lane.EventDrop, TenantID: "t-other", LaneType: "cron", ID: "sched-2", Reason: "capacity-exceeded", At: time.Now()})
	if got := testutil.ToFloat64(metrics.CronRecurrenceFailures.WithLabelValues("t-other")); got != before {
		t.Errorf("CronRecurrenceFailures for unrelated reason = %v, want unchanged %v", got, before)
	}
}
