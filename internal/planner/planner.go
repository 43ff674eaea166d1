// Package planner turns a job's retention policy and its snapshot inventory
// into an ordered list of create/keep/delete intents.
package planner

import (
	"sort"
	"strings"
	"time"

	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/retention"
	"github.com/raoulx24/ghee/internal/snapshot"
)

const (
	reasonCreate      = "new snapshot"
	reasonNotRetained = "not retained"
)

// Planner computes intents. It holds no state besides the calendar, so a
// single Planner may be shared by concurrent jobs.
type Planner struct {
	cal retention.Calendar
}

// New creates a planner aligning buckets in cal.
func New(cal retention.Calendar) *Planner {
	return &Planner{cal: cal}
}

// Plan returns the intents for j: a Create first when createsPending is set,
// then one Keep or Delete for every existing snapshot, newest first.
//
// The pending snapshot takes part in bucketing as a candidate at now, so it
// becomes the representative of the current periods. The minimum policy
// only counts existing snapshots: it is a floor on what is already on disk.
func (p *Planner) Plan(j *job.Job, existing []snapshot.Snapshot, createsPending bool, now time.Time) []Intent {
	now = now.In(p.cal.Location())

	ordered := append([]snapshot.Snapshot(nil), existing...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return retention.Newer(candidate(ordered[a]), candidate(ordered[b]))
	})

	existingCandidates := make([]retention.Candidate, 0, len(ordered))
	for _, s := range ordered {
		existingCandidates = append(existingCandidates, candidate(s))
	}

	candidates := existingCandidates
	var pending snapshot.Snapshot
	if createsPending {
		pending = snapshot.New(j.Target, j.Name, now)
		candidates = append(append([]retention.Candidate(nil), existingCandidates...), candidate(pending))
	}

	keep := p.cal.Evaluate(j.Retention, candidates, now).
		Union(p.cal.Overlay(j.Min, existingCandidates, now))

	intents := make([]Intent, 0, len(candidates))
	if createsPending {
		intents = append(intents, Intent{Job: j, Snapshot: pending, Action: Create, Reason: reasonCreate})
	}

	for _, s := range ordered {
		in := Intent{Job: j, Snapshot: s, Action: Delete, Reason: reasonNotRetained}
		if reasons, ok := keep[s.Name]; ok {
			in.Action = Keep
			in.Reason = strings.Join(reasons, ", ")
		}
		intents = append(intents, in)
	}
	return intents
}

func candidate(s snapshot.Snapshot) retention.Candidate {
	return retention.Candidate{ID: s.Name, Time: s.Timestamp}
}
