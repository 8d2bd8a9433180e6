// Package recur provides the production implementation of the lane
// package's RecurrenceEvaluator collaborator, backed by standard cron
// expressions.
package recur

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tutu-network/tasklane/internal/domain"
)

// CronEvaluator parses standard five-field cron expressions (minute hour
// dom month dow) and answers the next occurrence after a reference time.
// Parsed schedules are cached since the same recurrence expression is
// re-evaluated on every sweep of a recurring schedule.
type CronEvaluator struct {
	parser cron.Parser

	mu    sync.Mutex
	cache map[string]cron.Schedule
}

// New returns a CronEvaluator using the standard five-field cron format.
func New() *CronEvaluator {
	return &CronEvaluator{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		cache:  make(map[string]cron.Schedule),
	}
}

// Next implements lane.RecurrenceEvaluator. expr is also accepted in the
// descriptor form ("@hourly", "@every 1h30m") that robfig/cron's standard
// parser understands.
func (e *CronEvaluator) Next(expr string, ref time.Time) (time.Time, error) {
	schedule, err := e.schedule(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrRecurrenceEvaluationFailed, err)
	}
	return schedule.Next(ref), nil
}

func (e *CronEvaluator) schedule(expr string) (cron.Schedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.cache[expr]; ok {
		return s, nil
	}
	s, err := e.parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	e.cache[expr] = s
	return s, nil
}
