package planner

import (
	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/snapshot"
)

// Action is what a run does with a snapshot.
type Action int

const (
	Create Action = iota
	Keep
	Delete
)

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Keep:
		return "keep"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Marker is the symbol shown for the action in reports.
func (a Action) Marker() string {
	switch a {
	case Create:
		return "++++++"
	case Keep:
		return "======"
	case Delete:
		return "------"
	}
	return "??????"
}

// Intent is a planned action on one snapshot. For Create the snapshot is the
// pending one.
type Intent struct {
	Job      *job.Job
	Snapshot snapshot.Snapshot
	Action   Action
	Reason   string
}

// Executed is an intent after the execution backend handled it.
type Executed struct {
	Intent
	Err error
}

// Ok reports whether the intent succeeded.
func (e Executed) Ok() bool {
	return e.Err == nil
}
