package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Lane errors are pure — no infrastructure dependency. Compare with errors.Is.

var (
	// ErrCapacityExceeded is returned when a priority sub-queue, the cron
	// schedule map, or a subagent priority sub-queue is at its configured
	// max queue depth.
	ErrCapacityExceeded = errors.New("lane: capacity exceeded")

	// ErrDeadlineExpired is returned when a Task or SubagentTask's deadline
	// has already passed at the instant of submission.
	ErrDeadlineExpired = errors.New("lane: deadline expired")

	// ErrInvalidSchedule is returned when a ScheduledTask's scheduled time
	// is not strictly in the future at submission.
	ErrInvalidSchedule = errors.New("lane: scheduled time must be strictly in the future")

	// ErrCancelled is returned by a blocking dequeue terminated by the
	// caller's cancellation signal.
	ErrCancelled = errors.New("lane: dequeue cancelled")

	// ErrRecurrenceEvaluationFailed is recorded against a due schedule when
	// its recurrence evaluator returns an error; the schedule is dropped
	// as if it were one-shot.
	ErrRecurrenceEvaluationFailed = errors.New("lane: recurrence evaluation failed")

	// ErrLaneNotFound names a (tenant, lane-type) pair that has never been
	// created. The Manager's own lookups (MainLaneFor, CronLaneFor,
	// SubagentLaneFor) do not return it; they report a missing lane with
	// ok == false.
	ErrLaneNotFound = errors.New("lane: not found")

	// ErrInvalidPolicy is returned at construction when a LanePolicy field
	// violates its minimum bound.
	ErrInvalidPolicy = errors.New("lane: invalid policy")
)
