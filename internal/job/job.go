// Package job defines a configured backup unit and the group filter that
// decides which jobs an invocation touches.
package job

import (
	"fmt"

	"github.com/raoulx24/ghee/internal/retention"
)

// Job identifies one backup unit: a subvolume snapshotted into a target
// directory under a retention policy.
type Job struct {
	// Name prefixes every snapshot of this job inside Target.
	Name      string
	Subvolume string
	Target    string
	Backend   string
	Groups    []string

	// Retention is ordered by ascending granularity. Empty means only Min
	// applies.
	Retention []retention.Rule
	Min       retention.MinPolicy
}

func (j *Job) String() string {
	return fmt.Sprintf("%s (%s -> %s)", j.Name, j.Subvolume, j.Target)
}

// RetainsNothing reports whether the job keeps no snapshot beyond the
// current run. Such a configuration is legal.
func (j *Job) RetainsNothing() bool {
	if len(j.Retention) > 0 {
		return false
	}
	switch j.Min.(type) {
	case nil, retention.MinNone:
		return true
	}
	return false
}

// Select filters jobs by the requested groups. With no groups every job is
// selected; otherwise only jobs sharing at least one group. A job without
// groups therefore only runs in the unfiltered invocation. Order is kept.
func Select(jobs []Job, groups []string) []Job {
	if len(groups) == 0 {
		return append([]Job(nil), jobs...)
	}

	requested := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		requested[g] = struct{}{}
	}

	var out []Job
	for _, j := range jobs {
		for _, g := range j.Groups {
			if _, ok := requested[g]; ok {
				out = append(out, j)
				break
			}
		}
	}
	return out
}
