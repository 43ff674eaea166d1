// Package orchestrator runs the selected jobs of one invocation: it reads
// each job's inventory, plans, then executes or reports the plan.
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/raoulx24/ghee/internal/backend"
	"github.com/raoulx24/ghee/internal/inventory"
	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/planner"
	"github.com/raoulx24/ghee/internal/snapshot"
)

const reasonCreateFailed = "new snapshot failed"

type Mode int

const (
	// Run creates a new snapshot and prunes.
	Run Mode = iota
	// DryRun plans like Run and only reports.
	DryRun
	// Prune deletes what the policy no longer retains without creating.
	Prune
)

func (m Mode) String() string {
	switch m {
	case Run:
		return "run"
	case DryRun:
		return "dryrun"
	case Prune:
		return "prune"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a command name to its mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Run, DryRun, Prune} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

type Options struct {
	Mode Mode
	// DryRun downgrades execution to reporting without changing the plan.
	DryRun bool
	// Workers bounds the number of jobs processed at once. Values below 1
	// mean sequential processing.
	Workers int
	// Quiet suppresses the report tables.
	Quiet bool
}

func (o Options) createsPending() bool {
	return o.Mode != Prune
}

func (o Options) executes() bool {
	return o.Mode != DryRun && !o.DryRun
}

// Reporter renders plans and results of one job.
type Reporter interface {
	Plan(w io.Writer, j *job.Job, intents []planner.Intent, now time.Time) error
	Executed(w io.Writer, j *job.Job, results []planner.Executed, now time.Time) error
}

// Recorder observes finished jobs, e.g. to export metrics.
type Recorder interface {
	ObserveJob(r JobResult)
}

type Orchestrator struct {
	planner  *planner.Planner
	inv      inventory.Reader
	backends backend.Set
	reporter Reporter
	recorder Recorder
	out      io.Writer
	log      logging.Logger
}

type Option func(*Orchestrator)

func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an orchestrator writing reports to out. A reporter must be
// supplied with WithReporter unless every run is quiet.
func New(p *planner.Planner, inv inventory.Reader, backends backend.Set, out io.Writer, log logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		planner:  p,
		inv:      inv,
		backends: backends,
		out:      out,
		log:      log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type outcome struct {
	index  int
	result JobResult
	output []byte
}

// Run processes jobs and returns their results in the given order. Reports
// are buffered per job and written in that order too, whatever the number
// of workers. A canceled context stops jobs that have not started yet.
func (o *Orchestrator) Run(ctx context.Context, jobs []job.Job, opts Options, now time.Time) *Summary {
	now = now.Truncate(time.Second)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	o.log.Info("invocation started", "mode", opts.Mode, "jobs", len(jobs), "workers", workers, "dryrun", !opts.executes())

	q := newQueue(jobs)
	outcomes := make(chan outcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				t, ok := q.pop()
				if !ok {
					return
				}
				var buf bytes.Buffer
				res := o.process(ctx, t.job, opts, now, &buf)
				outcomes <- outcome{index: t.index, result: res, output: buf.Bytes()}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	summary := &Summary{Jobs: make([]JobResult, len(jobs))}
	pending := make(map[int]outcome)
	next := 0
	for oc := range outcomes {
		pending[oc.index] = oc
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			o.flush(ready)
			summary.Jobs[next] = ready.result
			next++
		}
	}

	if err := summary.Err(); err != nil {
		o.log.Error("invocation finished with failures", "failedJobs", summary.Failed(), "errors", len(multierr.Errors(err)))
	} else {
		o.log.Info("invocation finished")
	}
	return summary
}

func (o *Orchestrator) flush(oc outcome) {
	if len(oc.output) > 0 {
		if _, err := o.out.Write(oc.output); err != nil {
			o.log.Warn("writing report failed", "job", oc.result.Job.Name, "error", err)
		}
	}
	if o.recorder != nil {
		o.recorder.ObserveJob(oc.result)
	}
}

func (o *Orchestrator) process(ctx context.Context, j *job.Job, opts Options, now time.Time, w io.Writer) (res JobResult) {
	start := time.Now()
	log := o.log.With("job", j.Name)
	res = JobResult{Job: j, Mode: opts.Mode, PlannedAt: now}
	defer func() { res.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		log.Warn("job skipped", "error", err)
		res.Err = fmt.Errorf("job %s: %w", j.Name, err)
		return res
	}

	existing, err := o.inv.List(ctx, j)
	if err != nil {
		res.Err = &InventoryError{Job: j.Name, Err: err}
		log.Error("job skipped", "error", res.Err)
		return res
	}

	res.Intents = o.planner.Plan(j, existing, opts.createsPending(), now)
	log.Info("job planned",
		"existing", len(existing),
		"create", res.Count(planner.Create),
		"keep", res.Count(planner.Keep),
		"delete", res.Count(planner.Delete))

	if !opts.executes() {
		o.report(log, w, opts, func() error { return o.reporter.Plan(w, j, res.Intents, now) })
		return res
	}

	res.Results, res.Err = o.execute(ctx, log, j, res.Intents, now)
	o.report(log, w, opts, func() error { return o.reporter.Executed(w, j, res.Results, now) })
	return res
}

func (o *Orchestrator) report(log logging.Logger, w io.Writer, opts Options, fn func() error) {
	if opts.Quiet || o.reporter == nil {
		return
	}
	if err := fn(); err != nil {
		log.Warn("rendering report failed", "error", err)
	}
}

// execute handles intents in plan order: the Create first, then deletes
// newest to oldest. A failure never stops the remaining intents. Once the
// Create has failed, a delete becomes a keep when the plan without the new
// snapshot retains that snapshot.
func (o *Orchestrator) execute(ctx context.Context, log logging.Logger, j *job.Job, intents []planner.Intent, now time.Time) ([]planner.Executed, error) {
	be, beErr := o.backends.For(j)

	results := make([]planner.Executed, 0, len(intents))
	var errs error
	var fallback map[string]planner.Intent
	for _, in := range intents {
		if kept, ok := fallback[in.Snapshot.Name]; ok && in.Action == planner.Delete {
			in.Action = planner.Keep
			in.Reason = reasonCreateFailed + ", " + kept.Reason
			log.Warn("delete skipped, new snapshot missing", "snapshot", in.Snapshot.Name)
		}
		if in.Action == planner.Keep {
			results = append(results, planner.Executed{Intent: in})
			continue
		}

		err := beErr
		if err == nil {
			err = ctx.Err()
		}
		if err == nil {
			err = o.apply(ctx, be, j, in)
		}

		if err != nil {
			err = &ExecutionError{Job: j.Name, Action: in.Action, Snapshot: in.Snapshot.Name, Err: err}
			errs = multierr.Append(errs, err)
			log.Error("action failed", "action", in.Action, "snapshot", in.Snapshot.Name, "error", err)
			if in.Action == planner.Create {
				fallback = o.keptWithoutPending(j, intents, now)
			}
		} else {
			log.Info("action done", "action", in.Action, "snapshot", in.Snapshot.Name)
		}
		results = append(results, planner.Executed{Intent: in, Err: err})
	}
	return results, errs
}

// keptWithoutPending replans the existing snapshots as if nothing were
// being created and returns the ones that plan keeps, by name.
func (o *Orchestrator) keptWithoutPending(j *job.Job, intents []planner.Intent, now time.Time) map[string]planner.Intent {
	existing := make([]snapshot.Snapshot, 0, len(intents))
	for _, in := range intents {
		if in.Action != planner.Create {
			existing = append(existing, in.Snapshot)
		}
	}
	kept := make(map[string]planner.Intent)
	for _, in := range o.planner.Plan(j, existing, false, now) {
		if in.Action == planner.Keep {
			kept[in.Snapshot.Name] = in
		}
	}
	return kept
}

func (o *Orchestrator) apply(ctx context.Context, be backend.Backend, j *job.Job, in planner.Intent) error {
	switch in.Action {
	case planner.Create:
		name, err := be.Create(ctx, j, in.Snapshot.Timestamp)
		if err != nil {
			return err
		}
		if name != in.Snapshot.Name {
			return fmt.Errorf("backend created %q, planned %q", name, in.Snapshot.Name)
		}
		return nil
	case planner.Delete:
		return be.Delete(ctx, j, in.Snapshot.Name)
	}
	return nil
}
