// Package report renders plans and execution results as text tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/docker/go-units"
	"github.com/gosuri/uitable"

	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/planner"
)

const maxColWidth = 60

// Table writes one table per job.
type Table struct{}

func (Table) Plan(w io.Writer, j *job.Job, intents []planner.Intent, now time.Time) error {
	tbl := newTable("ACTION", "SUBVOLUME", "TARGET", "NAME", "AGE", "REASON")
	for _, in := range intents {
		tbl.AddRow(in.Action.Marker(), j.Subvolume, j.Target, in.Snapshot.Name, age(in, now), in.Reason)
	}
	return write(w, heading(j, intents), tbl)
}

func (Table) Executed(w io.Writer, j *job.Job, results []planner.Executed, now time.Time) error {
	intents := make([]planner.Intent, len(results))
	tbl := newTable("ACTION", "SUBVOLUME", "TARGET", "NAME", "AGE", "REASON", "RESULT")
	for i, r := range results {
		intents[i] = r.Intent
		tbl.AddRow(r.Action.Marker(), j.Subvolume, j.Target, r.Snapshot.Name, age(r.Intent, now), r.Reason, result(r))
	}
	return write(w, heading(j, intents), tbl)
}

func newTable(header ...interface{}) *uitable.Table {
	tbl := uitable.New()
	tbl.MaxColWidth = maxColWidth
	tbl.Wrap = true
	tbl.AddRow(header...)
	return tbl
}

func write(w io.Writer, head string, tbl *uitable.Table) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n\n", head, tbl)
	return err
}

func heading(j *job.Job, intents []planner.Intent) string {
	var counts [3]int
	for _, in := range intents {
		counts[in.Action]++
	}
	return fmt.Sprintf("# %s: %d create, %d keep, %d delete",
		j, counts[planner.Create], counts[planner.Keep], counts[planner.Delete])
}

func age(in planner.Intent, now time.Time) string {
	if in.Action == planner.Create {
		return "-"
	}
	return units.HumanDuration(now.Sub(in.Snapshot.Timestamp)) + " ago"
}

func result(r planner.Executed) string {
	if r.Ok() {
		return "ok"
	}
	return "failed: " + r.Err.Error()
}
