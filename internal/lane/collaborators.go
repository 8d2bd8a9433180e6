package lane

import "time"

// Clock abstracts "now" so deadline and scheduled-time comparisons are
// deterministic in tests. All lane code reads time through this interface,
// never through time.Now() directly.
type Clock interface {
	Now() time.Time
}

// RecurrenceEvaluator computes the next occurrence of an opaque recurrence
// expression strictly after ref. The Cron Lane treats expr as opaque and
// never parses it itself. A recurrence error causes the owning schedule to
// be dropped as if it were one-shot (ErrRecurrenceEvaluationFailed).
type RecurrenceEvaluator interface {
	Next(expr string, ref time.Time) (time.Time, error)
}

// EventKind tags the lane event reported to an Observer.
type EventKind string

const (
	EventEnqueue  EventKind = "enqueue"
	EventDequeue  EventKind = "dequeue"
	EventSpawn    EventKind = "spawn"
	EventComplete EventKind = "complete"
	EventDrop     EventKind = "drop"
	EventDedupHit EventKind = "dedup-hit"
)

// Event is a structured observability record. The core never owns the
// logging infrastructure — it only ever constructs and emits Events.
type Event struct {
	Kind      EventKind
	TenantID  string
	LaneType  string // "main", "cron", "subagent"
	ID        string // task/schedule/subagent execution id, stringified
	Priority  int
	Reason    string        // set on EventDrop
	QueueSize int           // lane's current depth/schedule/live-worker count after this event
	Percent   float64       // current capacity percentage after this event, where applicable
	Latency   time.Duration // set on EventDequeue for a blocking Dequeue call
	At        time.Time
}

// Observer receives structured lane events. The core imports no concrete
// implementation — one is injected at LaneManager construction.
type Observer interface {
	OnEnqueue(Event)
	OnDequeue(Event)
	OnSpawn(Event)
	OnComplete(Event)
	OnDrop(Event)
	OnDedupHit(Event)
}

// NoopObserver discards every event. Useful as a zero-value default and in
// tests that don't care about observability output.
type NoopObserver struct{}

func (NoopObserver) OnEnqueue(Event)  {}
func (NoopObserver) OnDequeue(Event)  {}
func (NoopObserver) OnSpawn(Event)    {}
func (NoopObserver) OnComplete(Event) {}
func (NoopObserver) OnDrop(Event)     {}
func (NoopObserver) OnDedupHit(Event) {}

// systemClock is the default Clock, backed by time.Now().
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the real wall clock.
func SystemClock() Clock { return systemClock{} }
