package lane

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutu-network/tasklane/internal/domain"
)

// laneKey identifies one (tenant, lane-type) lane.
type laneKey struct {
	tenantID string
	laneType domain.LaneType
}

// Manager is the single entry point: it routes submissions by
// (tenant, lane-type) to a lazily-created lane and exposes unified stats.
// Manager exclusively owns every Lane it creates.
type Manager struct {
	policy    domain.LanePolicy
	clock     Clock
	evaluator RecurrenceEvaluator
	observer  Observer

	mu    sync.RWMutex
	mains     map[string]*MainLane
	crons     map[string]*CronLane
	subagents map[string]*SubagentLane
}

// NewManager constructs a Lane Manager. evaluator and observer may be nil,
// in which case a no-op evaluator (every recurrence is treated as an
// evaluation failure) and NoopObserver are used — callers that use the
// Cron Lane's recurring schedules should always supply a real evaluator.
func NewManager(policy domain.LanePolicy, clock Clock, evaluator RecurrenceEvaluator, observer Observer) *Manager {
	if clock == nil {
		clock = SystemClock()
	}
	if evaluator == nil {
		evaluator = noRecurrenceEvaluator{}
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Manager{
		policy:    policy,
		clock:     clock,
		evaluator: evaluator,
		observer:  observer,
		mains:     make(map[string]*MainLane),
		crons:     make(map[string]*CronLane),
		subagents: make(map[string]*SubagentLane),
	}
}

type noRecurrenceEvaluator struct{}

func (noRecurrenceEvaluator) Next(string, time.Time) (time.Time, error) {
	return time.Time{}, domain.ErrRecurrenceEvaluationFailed
}

// mainLane returns the tenant's Main Lane, creating it on first use.
func (m *Manager) mainLane(tenantID string) *MainLane {
	m.mu.RLock()
	l, ok := m.mains[tenantID]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.mains[tenantID]; ok {
		return l
	}
	l = newMainLane(tenantID, m.policy, m.clock, m.observer)
	m.mains[tenantID] = l
	return l
}

// cronLane returns the tenant's Cron Lane, creating it on first use.
func (m *Manager) cronLane(tenantID string) *CronLane {
	m.mu.RLock()
	l, ok := m.crons[tenantID]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.crons[tenantID]; ok {
		return l
	}
	l = newCronLane(tenantID, m.policy, m.clock, m.evaluator, m.observer)
	m.crons[tenantID] = l
	return l
}

// subagentLane returns the tenant's Subagent Lane, creating it on first use.
func (m *Manager) subagentLane(tenantID string) *SubagentLane {
	m.mu.RLock()
	l, ok := m.subagents[tenantID]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.subagents[tenantID]; ok {
		return l
	}
	l = newSubagentLane(tenantID, m.policy, m.clock, m.observer)
	m.subagents[tenantID] = l
	return l
}

// EnqueueMainTask delegates to the tenant's Main Lane.
func (m *Manager) EnqueueMainTask(sub MainSubmission) (uuid.UUID, error) {
	return m.mainLane(sub.Task.TenantID).Enqueue(sub)
}

// Requeue resubmits task through the ordinary Main Lane enqueue contract.
// It exists only to document intent at call sites that retry a previously
// failed task — it is not a retry scheduler and applies no special
// treatment; the caller decides whether and when to retry, per the spec's
// "the core never retries on behalf of the submitter".
func (m *Manager) Requeue(task domain.Task, priority int) (uuid.UUID, error) {
	return m.EnqueueMainTask(MainSubmission{Task: task, Priority: priority})
}

// ScheduleCronTask delegates to the tenant's Cron Lane.
func (m *Manager) ScheduleCronTask(sub CronSubmission) (uuid.UUID, error) {
	return m.cronLane(sub.ScheduledTask.Task.TenantID).Schedule(sub)
}

// SpawnSubagent delegates to the tenant's Subagent Lane.
func (m *Manager) SpawnSubagent(sub SubagentSubmission) (uuid.UUID, error) {
	return m.subagentLane(sub.SubagentTask.TenantID).Spawn(sub)
}

// CronTenantIDs returns the tenant ids that currently hold a Cron Lane.
// Used by the sweep driver to iterate every tenant's due schedules — the
// core does not self-trigger the sweep (see spec §4.4).
func (m *Manager) CronTenantIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.crons))
	for id := range m.crons {
		ids = append(ids, id)
	}
	return ids
}

// SweepCron evaluates due schedules for one tenant's Cron Lane at ref. It
// is a no-op (no due tasks, no errors) if the tenant has no Cron Lane.
func (m *Manager) SweepCron(tenantID string, ref time.Time) ([]domain.ScheduledTask, map[uuid.UUID]error) {
	l, ok := m.CronLaneFor(tenantID)
	if !ok {
		return nil, nil
	}
	return l.EvaluateDue(ref)
}

// MainLaneFor returns the tenant's Main Lane if it has been created.
func (m *Manager) MainLaneFor(tenantID string) (*MainLane, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.mains[tenantID]
	return l, ok
}

// CronLaneFor returns the tenant's Cron Lane if it has been created.
func (m *Manager) CronLaneFor(tenantID string) (*CronLane, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.crons[tenantID]
	return l, ok
}

// SubagentLaneFor returns the tenant's Subagent Lane if it has been created.
func (m *Manager) SubagentLaneFor(tenantID string) (*SubagentLane, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.subagents[tenantID]
	return l, ok
}

// MainStats is the Main Lane's stats snapshot.
type MainStats struct {
	QueueSize        int
	QueueDepthPercent float64
}

// CronStats is the Cron Lane's stats snapshot.
type CronStats struct {
	ScheduledCount int
	NextExecution  time.Time
	HasNext        bool
}

// SubagentStats is the Subagent Lane's stats snapshot.
type SubagentStats struct {
	QueueSize          int
	LiveWorkerCount    int
	ConcurrencyPercent float64
}

// TenantStats is a per-tenant snapshot across all three lane types. A lane
// type that has never been created for the tenant is left at its zero
// value (reference behavior: stats for a non-existent lane are empty, not
// an error).
type TenantStats struct {
	Main     MainStats
	Cron     CronStats
	Subagent SubagentStats
}

// Stats returns a snapshot across all lane types for tenantID.
func (m *Manager) Stats(tenantID string) TenantStats {
	var out TenantStats

	if l, ok := m.MainLaneFor(tenantID); ok {
		out.Main = MainStats{QueueSize: l.Size(), QueueDepthPercent: l.DepthPercent()}
	}
	if l, ok := m.CronLaneFor(tenantID); ok {
		next, hasNext := l.NextExecution()
		out.Cron = CronStats{ScheduledCount: l.Size(), NextExecution: next, HasNext: hasNext}
	}
	if l, ok := m.SubagentLaneFor(tenantID); ok {
		out.Subagent = SubagentStats{
			QueueSize:          l.Size(),
			LiveWorkerCount:    l.LiveCount(),
			ConcurrencyPercent: l.ConcurrencyPercent(),
		}
	}
	return out
}
