package orchestrator

import (
	"time"

	"go.uber.org/multierr"

	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/planner"
)

// JobResult is the outcome of one job in one invocation.
type JobResult struct {
	Job     *job.Job
	Mode    Mode
	Intents []planner.Intent
	// Results is nil when the plan was only reported.
	Results []planner.Executed
	// Err is an *InventoryError, the combined *ExecutionErrors of the job,
	// or the context error when the job never started.
	Err       error
	PlannedAt time.Time
	Duration  time.Duration
}

// Executed reports whether the plan was handed to the backend.
func (r JobResult) Executed() bool {
	return r.Results != nil
}

// Count returns the number of intents with action a.
func (r JobResult) Count(a planner.Action) int {
	n := 0
	for _, in := range r.Intents {
		if in.Action == a {
			n++
		}
	}
	return n
}

// Summary collects the results of every selected job in configuration order.
type Summary struct {
	Jobs []JobResult
}

// Err combines every failure of the invocation, nil when all jobs succeeded.
func (s *Summary) Err() error {
	var err error
	for _, r := range s.Jobs {
		err = multierr.Append(err, r.Err)
	}
	return err
}

// Failed returns the number of jobs with at least one failure.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Jobs {
		if r.Err != nil {
			n++
		}
	}
	return n
}
