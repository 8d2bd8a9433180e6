package lane

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tutu-network/tasklane/internal/domain"
)

// SubagentSubmission is a request to spawn a parallel subagent worker.
type SubagentSubmission struct {
	SubagentTask domain.SubagentTask
	Priority     int
}

// SubagentLane governs parallel workers with an observational concurrency
// cap. The spawn gate is the per-level queue-depth check; max-concurrency
// is exposed to upstream admission controllers but never itself blocks a
// spawn (see spec §4.5 "Capacity semantics").
type SubagentLane struct {
	tenantID string
	policy   domain.LanePolicy
	clock    Clock
	observer Observer

	mu      sync.Mutex
	queue   *priorityQueue[domain.SubagentTask]
	active  map[uuid.UUID]domain.SubagentTask
	live    int
	waiters waiterSet
}

func newSubagentLane(tenantID string, policy domain.LanePolicy, clock Clock, observer Observer) *SubagentLane {
	return &SubagentLane{
		tenantID: tenantID,
		policy:   policy,
		clock:    clock,
		observer: observer,
		queue:    newPriorityQueue[domain.SubagentTask](policy.MaxQueueDepth),
		active:   make(map[uuid.UUID]domain.SubagentTask),
	}
}

// Spawn admits a subagent task per the spawn contract.
func (s *SubagentLane) Spawn(sub SubagentSubmission) (uuid.UUID, error) {
	now := s.clock.Now()
	task := sub.SubagentTask

	if task.Expired(now) {
		s.emitDrop(task.TenantID, "deadline-expired", sub.Priority, task.SubagentExecutionID.String())
		return uuid.Nil, domain.ErrDeadlineExpired
	}

	priority := domain.ClampPriority(sub.Priority)

	s.mu.Lock()
	if s.queue.levelFull(priority) {
		s.mu.Unlock()
		s.emitDrop(task.TenantID, "capacity-exceeded", priority, task.SubagentExecutionID.String())
		return uuid.Nil, domain.ErrCapacityExceeded
	}

	if task.SubagentExecutionID == uuid.Nil {
		task.SubagentExecutionID = uuid.New()
	}
	s.queue.push(priority, task)
	s.active[task.SubagentExecutionID] = task
	s.live++
	live := s.live
	s.mu.Unlock()

	s.waiters.wake()
	s.observer.OnSpawn(Event{
		Kind: EventSpawn, TenantID: task.TenantID, LaneType: string(domain.LaneSubagent),
		ID: task.SubagentExecutionID.String(), Priority: priority,
		QueueSize: live, Percent: s.percentOf(live), At: now,
	})
	return task.SubagentExecutionID, nil
}

// Dequeue blocks until the highest-priority non-empty level yields a task,
// or ctx is cancelled. Dequeuing does not release a concurrency slot —
// only Complete does.
func (s *SubagentLane) Dequeue(ctx context.Context) (domain.SubagentTask, error) {
	start := s.clock.Now()
	for {
		s.mu.Lock()
		if task, ok := s.queue.popHighest(); ok {
			s.mu.Unlock()
			now := s.clock.Now()
			s.observer.OnDequeue(Event{
				Kind: EventDequeue, TenantID: task.TenantID, LaneType: string(domain.LaneSubagent),
				ID: task.SubagentExecutionID.String(), Latency: now.Sub(start), At: now,
			})
			return task, nil
		}
		ch := s.waiters.register()
		s.mu.Unlock()

		select {
		case <-ch:
			continue
		case <-ctx.Done():
			s.waiters.remove(ch)
			return domain.SubagentTask{}, domain.ErrCancelled
		}
	}
}

// Complete releases a concurrency slot. Idempotent: completing an unknown
// or already-completed execution id is a no-op.
func (s *SubagentLane) Complete(executionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[executionID]; !ok {
		return
	}
	delete(s.active, executionID)
	if s.live > 0 {
		s.live--
	}
	live := s.live
	s.observer.OnComplete(Event{
		Kind: EventComplete, TenantID: s.tenantID, LaneType: string(domain.LaneSubagent),
		ID: executionID.String(), QueueSize: live, Percent: s.percentOf(live), At: s.clock.Now(),
	})
}

// LiveCount returns the number of spawned-but-not-completed executions.
func (s *SubagentLane) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Size returns the total number of subagent tasks queued across all levels.
func (s *SubagentLane) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.size()
}

// ConcurrencyPercent returns live worker count as a percentage of the
// policy's max concurrency. Observational only — never gates Spawn.
func (s *SubagentLane) ConcurrencyPercent() float64 {
	s.mu.Lock()
	live := s.live
	s.mu.Unlock()
	return s.percentOf(live)
}

// percentOf expresses live as a percentage of the policy's max concurrency.
// live is passed in rather than read from s.live so callers already holding
// s.mu (or who just released it) don't need a second lock acquisition.
func (s *SubagentLane) percentOf(live int) float64 {
	if s.policy.MaxConcurrency == 0 {
		return 0
	}
	return (float64(live) / float64(s.policy.MaxConcurrency)) * 100.0
}

func (s *SubagentLane) emitDrop(tenantID, reason string, priority int, id string) {
	s.observer.OnDrop(Event{
		Kind: EventDrop, TenantID: tenantID, LaneType: string(domain.LaneSubagent),
		ID: id, Priority: priority, Reason: reason, At: s.clock.Now(),
	})
}
