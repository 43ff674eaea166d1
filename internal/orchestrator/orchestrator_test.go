package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/raoulx24/ghee/internal/backend"
	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/planner"
	"github.com/raoulx24/ghee/internal/report"
	"github.com/raoulx24/ghee/internal/retention"
	"github.com/raoulx24/ghee/internal/snapshot"
)

var now = time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)

type fakeInventory struct {
	snaps map[string][]snapshot.Snapshot
	fail  map[string]error
	delay map[string]time.Duration
}

func (f *fakeInventory) List(ctx context.Context, j *job.Job) ([]snapshot.Snapshot, error) {
	if d := f.delay[j.Name]; d > 0 {
		time.Sleep(d)
	}
	if err := f.fail[j.Name]; err != nil {
		return nil, err
	}
	return f.snaps[j.Name], nil
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeBackend) record(call, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call+" "+name)
	return f.fail[name]
}

func (f *fakeBackend) Create(_ context.Context, j *job.Job, ts time.Time) (string, error) {
	name := snapshot.Name(j.Name, ts)
	if err := f.record("create", name); err != nil {
		return "", err
	}
	return name, nil
}

func (f *fakeBackend) Delete(_ context.Context, _ *job.Job, name string) error {
	return f.record("delete", name)
}

type recorderFunc func(JobResult)

func (f recorderFunc) ObserveJob(r JobResult) { f(r) }

func snaps(name string, ages ...time.Duration) []snapshot.Snapshot {
	out := make([]snapshot.Snapshot, len(ages))
	for i, a := range ages {
		s := snapshot.New("/snap", name, now.Add(-a))
		s.Origin = snapshot.Existing
		out[i] = s
	}
	return out
}

func testJob(name string) job.Job {
	return job.Job{
		Name:      name,
		Subvolume: "/" + name,
		Target:    "/snap",
		Backend:   "fake",
		Retention: []retention.Rule{{Granularity: retention.Hour, Count: 48}},
		Min:       retention.MinNone{},
	}
}

func setup(inv *fakeInventory, be *fakeBackend, out *bytes.Buffer, opts ...Option) *Orchestrator {
	opts = append([]Option{WithReporter(report.Table{})}, opts...)
	return New(planner.New(retention.NewCalendar(time.UTC)), inv, backend.Set{"fake": be}, out, logging.Nop(), opts...)
}

func TestRunExecutesPlan(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{
		"etc": snaps("etc", time.Hour, 72*time.Hour, 96*time.Hour),
	}}
	be := &fakeBackend{}
	var out bytes.Buffer

	s := setup(inv, be, &out).Run(context.Background(), []job.Job{testJob("etc")}, Options{Mode: Run}, now)

	require.NoError(t, s.Err())
	require.Len(t, s.Jobs, 1)
	assert.True(t, s.Jobs[0].Executed())
	assert.Equal(t, []string{
		"create etc.2025-06-10T12:30:00Z",
		"delete " + snapshot.Name("etc", now.Add(-72*time.Hour)),
		"delete " + snapshot.Name("etc", now.Add(-96*time.Hour)),
	}, be.calls)
	assert.Contains(t, out.String(), "RESULT")
}

func TestDryRunNeverExecutes(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{
		"etc": snaps("etc", time.Hour, 72*time.Hour),
	}}

	for _, opts := range []Options{{Mode: DryRun}, {Mode: Run, DryRun: true}, {Mode: Prune, DryRun: true}} {
		t.Run(fmt.Sprintf("%s/%v", opts.Mode, opts.DryRun), func(t *testing.T) {
			be := &fakeBackend{}
			var out bytes.Buffer
			s := setup(inv, be, &out).Run(context.Background(), []job.Job{testJob("etc")}, opts, now)

			require.NoError(t, s.Err())
			assert.Empty(t, be.calls)
			assert.False(t, s.Jobs[0].Executed())
			assert.NotContains(t, out.String(), "RESULT")
			assert.Contains(t, out.String(), "------")
		})
	}
}

func TestDryRunFlagKeepsPlan(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{
		"etc": snaps("etc", time.Hour, 72*time.Hour),
	}}
	jobs := []job.Job{testJob("etc")}

	run := setup(inv, &fakeBackend{}, &bytes.Buffer{}).Run(context.Background(), jobs, Options{Mode: Run}, now)
	dry := setup(inv, &fakeBackend{}, &bytes.Buffer{}).Run(context.Background(), jobs, Options{Mode: Run, DryRun: true}, now)

	assert.Equal(t, run.Jobs[0].Intents, dry.Jobs[0].Intents)
}

func TestPruneDoesNotCreate(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{
		"etc": snaps("etc", time.Hour, 72*time.Hour),
	}}
	be := &fakeBackend{}

	s := setup(inv, be, &bytes.Buffer{}).Run(context.Background(), []job.Job{testJob("etc")}, Options{Mode: Prune}, now)

	require.NoError(t, s.Err())
	assert.Zero(t, s.Jobs[0].Count(planner.Create))
	assert.Equal(t, []string{"delete " + snapshot.Name("etc", now.Add(-72*time.Hour))}, be.calls)
}

func TestInventoryErrorSkipsOnlyThatJob(t *testing.T) {
	inv := &fakeInventory{
		snaps: map[string][]snapshot.Snapshot{"home": nil},
		fail:  map[string]error{"etc": errors.New("no such directory")},
	}
	be := &fakeBackend{}

	s := setup(inv, be, &bytes.Buffer{}).Run(context.Background(), []job.Job{testJob("etc"), testJob("home")}, Options{Mode: Run}, now)

	require.Error(t, s.Err())
	assert.Equal(t, 1, s.Failed())

	var invErr *InventoryError
	require.ErrorAs(t, s.Jobs[0].Err, &invErr)
	assert.Equal(t, "etc", invErr.Job)
	assert.Empty(t, s.Jobs[0].Intents)

	assert.NoError(t, s.Jobs[1].Err)
	assert.Equal(t, []string{"create home.2025-06-10T12:30:00Z"}, be.calls)
}

func TestExecutionErrorDoesNotStopSiblings(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{
		"etc": snaps("etc", 72*time.Hour, 96*time.Hour, 120*time.Hour),
	}}
	broken := snapshot.Name("etc", now.Add(-96*time.Hour))
	be := &fakeBackend{fail: map[string]error{broken: errors.New("device busy")}}

	s := setup(inv, be, &bytes.Buffer{}).Run(context.Background(), []job.Job{testJob("etc")}, Options{Mode: Run}, now)

	assert.Len(t, be.calls, 4)
	errs := multierr.Errors(s.Err())
	require.Len(t, errs, 1)

	var execErr *ExecutionError
	require.ErrorAs(t, errs[0], &execErr)
	assert.Equal(t, planner.Delete, execErr.Action)
	assert.Equal(t, broken, execErr.Snapshot)

	failed := 0
	for _, r := range s.Jobs[0].Results {
		if !r.Ok() {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestFailedCreateKeepsDisplacedSnapshot(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{
		"etc": snaps("etc", 10*time.Minute, 96*time.Hour),
	}}
	pending := snapshot.Name("etc", now)
	recent := snapshot.Name("etc", now.Add(-10*time.Minute))
	old := snapshot.Name("etc", now.Add(-96*time.Hour))
	be := &fakeBackend{fail: map[string]error{pending: errors.New("no space left on device")}}

	s := setup(inv, be, &bytes.Buffer{}).Run(context.Background(), []job.Job{testJob("etc")}, Options{Mode: Run}, now)

	assert.Equal(t, []string{"create " + pending, "delete " + old}, be.calls)
	require.Len(t, multierr.Errors(s.Err()), 1)

	results := s.Jobs[0].Results
	require.Len(t, results, 3)
	assert.False(t, results[0].Ok())
	assert.Equal(t, recent, results[1].Snapshot.Name)
	assert.Equal(t, planner.Keep, results[1].Action)
	assert.Equal(t, "new snapshot failed, hourly 48h", results[1].Reason)
	assert.True(t, results[1].Ok())
	assert.Equal(t, planner.Delete, results[2].Action)
}

func TestUnknownBackendFailsActions(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{"etc": snaps("etc", time.Hour)}}
	j := testJob("etc")
	j.Backend = "zfs"

	s := setup(inv, &fakeBackend{}, &bytes.Buffer{}).Run(context.Background(), []job.Job{j}, Options{Mode: Run}, now)

	errs := multierr.Errors(s.Err())
	require.Len(t, errs, 1, "create fails, keep is a no-op")
	assert.Contains(t, errs[0].Error(), "zfs")
}

func TestOutputFollowsConfigOrder(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{}, delay: map[string]time.Duration{}}
	var jobs []job.Job
	for i, n := range names {
		inv.snaps[n] = snaps(n, time.Hour)
		inv.delay[n] = time.Duration(len(names)-i) * 10 * time.Millisecond
		jobs = append(jobs, testJob(n))
	}

	var observed []string
	rec := recorderFunc(func(r JobResult) { observed = append(observed, r.Job.Name) })

	var out bytes.Buffer
	s := setup(inv, &fakeBackend{}, &out, WithRecorder(rec)).Run(context.Background(), jobs, Options{Mode: DryRun, Workers: 4}, now)
	require.NoError(t, s.Err())

	assert.Equal(t, names, observed)

	var headings []string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "# ") {
			headings = append(headings, strings.Fields(line)[1])
		}
	}
	assert.Equal(t, names, headings)
	for i, r := range s.Jobs {
		assert.Equal(t, names[i], r.Job.Name)
	}
}

func TestCanceledContextSkipsJobs(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{}}
	be := &fakeBackend{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := setup(inv, be, &bytes.Buffer{}).Run(ctx, []job.Job{testJob("etc"), testJob("home")}, Options{Mode: Run}, now)

	assert.Equal(t, 2, s.Failed())
	assert.ErrorIs(t, s.Jobs[0].Err, context.Canceled)
	assert.Empty(t, be.calls)
}

func TestQuietAndTruncation(t *testing.T) {
	inv := &fakeInventory{snaps: map[string][]snapshot.Snapshot{}}
	var out bytes.Buffer

	s := setup(inv, &fakeBackend{}, &out).Run(context.Background(), []job.Job{testJob("etc")},
		Options{Mode: DryRun, Quiet: true}, now.Add(750*time.Millisecond))

	assert.Empty(t, out.String())
	assert.Equal(t, now, s.Jobs[0].PlannedAt)
	require.Len(t, s.Jobs[0].Intents, 1)
	assert.Equal(t, "etc.2025-06-10T12:30:00Z", s.Jobs[0].Intents[0].Snapshot.Name)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("prune")
	require.NoError(t, err)
	assert.Equal(t, Prune, m)

	_, err = ParseMode("backup")
	assert.Error(t, err)
}
