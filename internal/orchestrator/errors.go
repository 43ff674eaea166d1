package orchestrator

import (
	"fmt"

	"github.com/raoulx24/ghee/internal/planner"
)

// InventoryError means the existing snapshots of a job could not be
// enumerated. The job is skipped.
type InventoryError struct {
	Job string
	Err error
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("job %s: list snapshots: %v", e.Job, e.Err)
}

func (e *InventoryError) Unwrap() error { return e.Err }

// ExecutionError is a failed create or delete of one snapshot.
type ExecutionError struct {
	Job      string
	Action   planner.Action
	Snapshot string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("job %s: %s %s: %v", e.Job, e.Action, e.Snapshot, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
