// Package domain holds the task-lane data model shared by the Main, Cron,
// and Subagent lanes. The core never mutates a Task, ScheduledTask, or
// SubagentTask once it has been handed to a lane.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task is the Main Lane's unit of work. Goal, ResourceBudget, and Context
// are opaque to the core — it never branches on their contents.
type Task struct {
	ID             uuid.UUID
	Goal           map[string]any
	SubmitterID    string
	TenantID       string
	Deadline       time.Time // zero value means no deadline
	IdempotencyKey string
	ResourceBudget map[string]any
	MCPTools       []string
	Context        map[string]any
	TraceID        string
}

// Expired reports whether the task's deadline has passed as of now.
// A zero Deadline never expires. A deadline exactly equal to now counts
// as expired (see the boundary behavior in the spec's testable properties).
func (t Task) Expired(now time.Time) bool {
	if t.Deadline.IsZero() {
		return false
	}
	return !now.Before(t.Deadline)
}

// ScheduledTask is the Cron Lane's unit: a Task bound to a future time,
// optionally recurring.
type ScheduledTask struct {
	Task          Task
	ScheduledTime time.Time
	Recurrence    string // opaque recurrence expression; "" means one-shot
	MaxRetries    int
	Priority      int // carried into the Main Lane submission when the schedule fires
	ScheduleID    uuid.UUID
	NextExecution time.Time
}

// Due reports whether the schedule's time has arrived as of now.
func (s ScheduledTask) Due(now time.Time) bool {
	return !now.Before(s.ScheduledTime)
}

// Recurring reports whether the schedule re-arms after firing.
func (s ScheduledTask) Recurring() bool {
	return s.Recurrence != ""
}

// SubagentTask is the Subagent Lane's unit: a parallel-worker invocation.
type SubagentTask struct {
	AgentBinding        map[string]any
	Goals               []map[string]any
	ParentExecutionID   uuid.UUID
	SubmitterID         string
	TenantID            string
	Deadline            time.Time
	MessageQueueHandle  string
	SubagentExecutionID uuid.UUID
	TraceID             string
}

// Expired reports whether the subagent task's deadline has passed.
// A deadline exactly equal to now counts as expired.
func (s SubagentTask) Expired(now time.Time) bool {
	if s.Deadline.IsZero() {
		return false
	}
	return !now.Before(s.Deadline)
}
