package lane

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tutu-network/tasklane/internal/domain"
)

// CronSubmission is a request to schedule a future (and optionally
// recurring) task.
type CronSubmission struct {
	ScheduledTask domain.ScheduledTask
}

// cronIndexEntry is one (scheduled-time, schedule-id) pair in the sorted
// index. Kept as a slice sorted ascending by time rather than a heap —
// the sweep needs ordered iteration with an early stop, which a sorted
// slice gives directly via sort.Search.
type cronIndexEntry struct {
	at time.Time
	id uuid.UUID
}

// CronLane holds future-dated one-shot and recurring schedules. Two
// structures are kept consistent: a map for O(1) lookup by schedule id,
// and an ascending-by-time index the sweep walks.
type CronLane struct {
	tenantID  string
	policy    domain.LanePolicy
	clock     Clock
	evaluator RecurrenceEvaluator
	observer  Observer

	mu    sync.Mutex
	byID  map[uuid.UUID]*domain.ScheduledTask
	index []cronIndexEntry
}

func newCronLane(tenantID string, policy domain.LanePolicy, clock Clock, evaluator RecurrenceEvaluator, observer Observer) *CronLane {
	return &CronLane{
		tenantID:  tenantID,
		policy:    policy,
		clock:     clock,
		evaluator: evaluator,
		observer:  observer,
		byID:      make(map[uuid.UUID]*domain.ScheduledTask),
	}
}

// Schedule admits a ScheduledTask per the Cron Lane's schedule contract.
func (c *CronLane) Schedule(sub CronSubmission) (uuid.UUID, error) {
	now := c.clock.Now()
	st := sub.ScheduledTask

	if !st.ScheduledTime.After(now) {
		return uuid.Nil, domain.ErrInvalidSchedule
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if st.ScheduleID != uuid.Nil {
		if _, exists := c.byID[st.ScheduleID]; exists {
			c.observer.OnDrop(Event{
				Kind: EventDrop, TenantID: st.Task.TenantID, LaneType: string(domain.LaneCron),
				ID: st.ScheduleID.String(), Reason: "schedule-id-reused", At: now,
			})
			return uuid.Nil, domain.ErrInvalidSchedule
		}
	}

	if len(c.byID) >= c.policy.MaxQueueDepth {
		c.observer.OnDrop(Event{
			Kind: EventDrop, TenantID: st.Task.TenantID, LaneType: string(domain.LaneCron),
			Reason: "capacity-exceeded", At: now,
		})
		return uuid.Nil, domain.ErrCapacityExceeded
	}

	if st.ScheduleID == uuid.Nil {
		st.ScheduleID = uuid.New()
	}
	st.NextExecution = st.ScheduledTime

	stored := st
	c.byID[st.ScheduleID] = &stored
	c.insertIndex(cronIndexEntry{at: st.ScheduledTime, id: st.ScheduleID})

	c.observer.OnEnqueue(Event{
		Kind: EventEnqueue, TenantID: st.Task.TenantID, LaneType: string(domain.LaneCron),
		ID: st.ScheduleID.String(), QueueSize: len(c.byID), At: now,
	})
	return st.ScheduleID, nil
}

// EvaluateDue walks the index ascending, collecting every schedule whose
// scheduled time is <= ref. One-shot schedules are removed; recurring
// schedules are re-armed via the recurrence evaluator and reinserted at
// their new position. A per-schedule evaluator failure drops that schedule
// (as if one-shot) and is reported in errs, keyed by schedule id, without
// failing the sweep as a whole.
func (c *CronLane) EvaluateDue(ref time.Time) (due []domain.ScheduledTask, errs map[uuid.UUID]error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs = make(map[uuid.UUID]error)

	stop := sort.Search(len(c.index), func(i int) bool {
		return c.index[i].at.After(ref)
	})
	if stop == 0 {
		return nil, errs
	}

	dueEntries := append([]cronIndexEntry(nil), c.index[:stop]...)
	c.index = c.index[stop:]

	due = make([]domain.ScheduledTask, 0, len(dueEntries))
	for _, entry := range dueEntries {
		stored, ok := c.byID[entry.id]
		if !ok {
			continue
		}
		fired := *stored
		due = append(due, fired)

		if !fired.Recurring() {
			delete(c.byID, entry.id)
			c.observer.OnDequeue(Event{
				Kind: EventDequeue, TenantID: fired.Task.TenantID, LaneType: string(domain.LaneCron),
				ID: entry.id.String(), QueueSize: len(c.byID), At: ref,
			})
			continue
		}

		next, err := c.evaluator.Next(fired.Recurrence, ref)
		if err != nil {
			delete(c.byID, entry.id)
			errs[entry.id] = domain.ErrRecurrenceEvaluationFailed
			c.observer.OnDrop(Event{
				Kind: EventDrop, TenantID: fired.Task.TenantID, LaneType: string(domain.LaneCron),
				ID: entry.id.String(), Reason: "recurrence-evaluation-failed", QueueSize: len(c.byID), At: ref,
			})
			continue
		}

		stored.ScheduledTime = next
		stored.NextExecution = next
		c.insertIndex(cronIndexEntry{at: next, id: entry.id})
		c.observer.OnDequeue(Event{
			Kind: EventDequeue, TenantID: fired.Task.TenantID, LaneType: string(domain.LaneCron),
			ID: entry.id.String(), QueueSize: len(c.byID), At: ref,
		})
	}
	return due, errs
}

// NextExecution returns the scheduled time of the index head, or the zero
// time if the index is empty. This is an upper-bound hint for sleep-until;
// callers must re-evaluate after waking since new schedules may appear.
func (c *CronLane) NextExecution() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.index) == 0 {
		return time.Time{}, false
	}
	return c.index[0].at, true
}

// Size returns the number of schedules currently held.
func (c *CronLane) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

// insertIndex inserts entry into the ascending-by-time index, keeping it
// sorted. Caller must hold c.mu.
func (c *CronLane) insertIndex(entry cronIndexEntry) {
	i := sort.Search(len(c.index), func(i int) bool {
		return c.index[i].at.After(entry.at)
	})
	c.index = append(c.index, cronIndexEntry{})
	copy(c.index[i+1:], c.index[i:])
	c.index[i] = entry
}
