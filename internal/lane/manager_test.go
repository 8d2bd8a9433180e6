package lane

import (
	"testing"
	"time"

	"github.com/tutu-network/tasklane/internal/domain"
)

func TestManager_StatsForNonexistentLaneIsEmpty(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(domain.DefaultLanePolicy(), clock, nil, nil)

	stats := m.Stats("unknown-tenant")
	want := TenantStats{}
	if stats != want {
		t.Errorf("Stats() for unknown tenant = %+v, want zero value", stats)
	}
}

func TestManager_LazyLaneCreationIsolatesTenants(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(domain.DefaultLanePolicy(), clock, nil, nil)

	if _, err := m.EnqueueMainTask(MainSubmission{Task: taskWithKey("t1", "a"), Priority: 5}); err != nil {
		t.Fatal(err)
	}

	if _, ok := m.MainLaneFor("t1"); !ok {
		t.Fatal("expected t1's Main Lane to exist after enqueue")
	}
	if _, ok := m.MainLaneFor("t2"); ok {
		t.Fatal("t2's Main Lane should not exist until its own first submission")
	}

	stats1 := m.Stats("t1")
	if stats1.Main.QueueSize != 1 {
		t.Errorf("t1 Main.QueueSize = %d, want 1", stats1.Main.QueueSize)
	}
	stats2 := m.Stats("t2")
	if stats2.Main.QueueSize != 0 {
		t.Errorf("t2 Main.QueueSize = %d, want 0 (unaffected by t1)", stats2.Main.QueueSize)
	}
}

func TestManager_RequeueUsesOrdinaryEnqueueContract(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(domain.DefaultLanePolicy(), clock, nil, nil)

	id, err := m.Requeue(taskWithKey("t1", "retry-me"), 7)
	if err != nil {
		t.Fatal(err)
	}
	if id.String() == "" {
		t.Fatal("expected non-empty task id")
	}

	l, ok := m.MainLaneFor("t1")
	if !ok {
		t.Fatal("expected t1's Main Lane to exist after Requeue")
	}
	if got := l.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}

func TestManager_SweepCronOnTenantWithNoLaneIsNoop(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(domain.DefaultLanePolicy(), clock, nil, nil)

	due, errs := m.SweepCron("no-such-tenant", clock.Now())
	if due != nil || errs != nil {
		t.Errorf("SweepCron on tenant with no Cron Lane = %v, %v; want nil, nil", due, errs)
	}
}

func TestManager_SweepCronAcrossTenants(t *testing.T) {
	start := time.Now()
	clock := newFakeClock(start)
	eval := fixedIntervalEvaluator{interval: time.Hour}
	m := NewManager(domain.DefaultLanePolicy(), clock, eval, nil)

	if _, err := m.ScheduleCronTask(CronSubmission{ScheduledTask: scheduledTask("t1", start.Add(time.Minute), "")}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ScheduleCronTask(CronSubmission{ScheduledTask: scheduledTask("t2", start.Add(time.Minute), "")}); err != nil {
		t.Fatal(err)
	}

	ids := m.CronTenantIDs()
	if len(ids) != 2 {
		t.Fatalf("CronTenantIDs() = %v, want 2 entries", ids)
	}

	due, errs := m.SweepCron("t1", start.Add(5*time.Minute))
	if len(due) != 1 || len(errs) != 0 {
		t.Fatalf("SweepCron(t1) = %v, %v; want one due entry, no errors", due, errs)
	}

	// t2's schedule remains untouched by t1's sweep.
	t2Stats := m.Stats("t2")
	if t2Stats.Cron.ScheduledCount != 1 {
		t.Errorf("t2 Cron.ScheduledCount = %d, want 1 (unaffected by t1's sweep)", t2Stats.Cron.ScheduledCount)
	}
}

func TestManager_SpawnSubagentDelegatesByTenant(t *testing.T) {
	clock := newFakeClock(time.Now())
	m := NewManager(domain.DefaultLanePolicy(), clock, nil, nil)

	id, err := m.SpawnSubagent(SubagentSubmission{SubagentTask: subagentTask("t1"), Priority: 5})
	if err != nil {
		t.Fatal(err)
	}
	if id.String() == "" {
		t.Fatal("expected non-empty execution id")
	}

	stats := m.Stats("t1")
	if stats.Subagent.LiveWorkerCount != 1 {
		t.Errorf("Subagent.LiveWorkerCount = %d, want 1", stats.Subagent.LiveWorkerCount)
	}
}
