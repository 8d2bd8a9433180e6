package lane

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tutu-network/tasklane/internal/domain"
)

// MainSubmission is a request to enqueue a user-submitted task.
type MainSubmission struct {
	Task     domain.Task
	Priority int
}

// MainLane accepts user-submitted tasks and serves them to the downstream
// executor in priority order, with idempotent resubmission.
type MainLane struct {
	tenantID string
	policy   domain.LanePolicy
	clock    Clock
	observer Observer

	mu      sync.Mutex
	queue   *priorityQueue[domain.Task]
	dedup   *dedupCache
	waiters waiterSet
}

func newMainLane(tenantID string, policy domain.LanePolicy, clock Clock, observer Observer) *MainLane {
	return &MainLane{
		tenantID: tenantID,
		policy:   policy,
		clock:    clock,
		observer: observer,
		queue:    newPriorityQueue[domain.Task](policy.MaxQueueDepth),
		dedup:    newDedupCache(policy.DedupWindow),
	}
}

// Enqueue admits a task per the Main Lane's enqueue contract: reject expired
// tasks, short-circuit on a cached idempotency key, else enqueue at the
// clamped priority level and record the dedup entry on success.
func (m *MainLane) Enqueue(sub MainSubmission) (uuid.UUID, error) {
	now := m.clock.Now()
	task := sub.Task

	if task.Expired(now) {
		m.emitDrop(task.TenantID, "deadline-expired", sub.Priority, task.ID.String())
		return uuid.Nil, domain.ErrDeadlineExpired
	}

	priority := domain.ClampPriority(sub.Priority)

	m.mu.Lock()

	if cachedID, hit := m.dedup.lookup(task.IdempotencyKey, now); hit {
		m.mu.Unlock()
		m.observer.OnDedupHit(Event{
			Kind: EventDedupHit, TenantID: task.TenantID, LaneType: string(domain.LaneMain),
			ID: cachedID.String(), At: now,
		})
		return cachedID, nil
	}

	if m.queue.levelFull(priority) {
		m.mu.Unlock()
		m.emitDrop(task.TenantID, "capacity-exceeded", priority, task.ID.String())
		return uuid.Nil, domain.ErrCapacityExceeded
	}

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	m.queue.push(priority, task)
	m.dedup.insert(task.IdempotencyKey, task.ID, now)
	sizeAfter := m.queue.size()
	m.mu.Unlock()

	m.waiters.wake()
	m.observer.OnEnqueue(Event{
		Kind: EventEnqueue, TenantID: task.TenantID, LaneType: string(domain.LaneMain),
		ID: task.ID.String(), Priority: priority, QueueSize: sizeAfter, At: now,
	})
	return task.ID, nil
}

// Dequeue blocks until the highest-priority non-empty level yields a task,
// or ctx is cancelled.
func (m *MainLane) Dequeue(ctx context.Context) (domain.Task, error) {
	start := m.clock.Now()
	for {
		m.mu.Lock()
		if task, ok := m.queue.popHighest(); ok {
			sizeAfter := m.queue.size()
			m.mu.Unlock()
			now := m.clock.Now()
			m.observer.OnDequeue(Event{
				Kind: EventDequeue, TenantID: task.TenantID, LaneType: string(domain.LaneMain),
				ID: task.ID.String(), QueueSize: sizeAfter, Latency: now.Sub(start), At: now,
			})
			return task, nil
		}
		ch := m.waiters.register()
		m.mu.Unlock()

		select {
		case <-ch:
			continue
		case <-ctx.Done():
			m.waiters.remove(ch)
			return domain.Task{}, domain.ErrCancelled
		}
	}
}

// Size returns the total number of tasks queued across all levels.
func (m *MainLane) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.size()
}

// DepthPercent returns the total queue size as a percentage of the policy's
// max queue depth. Items at several levels can push it past 100.
func (m *MainLane) DepthPercent() float64 {
	m.mu.Lock()
	size := m.queue.size()
	m.mu.Unlock()
	total := m.policy.MaxQueueDepth
	if total == 0 {
		return 0
	}
	return (float64(size) / float64(total)) * 100.0
}

func (m *MainLane) emitDrop(tenantID, reason string, priority int, id string) {
	m.observer.OnDrop(Event{
		Kind: EventDrop, TenantID: tenantID, LaneType: string(domain.LaneMain),
		ID: id, Priority: priority, Reason: reason, At: m.clock.Now(),
	})
}
