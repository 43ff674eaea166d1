// Package inventory enumerates the existing snapshots of a job.
package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/raoulx24/ghee/internal/fs"
	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/retention"
	"github.com/raoulx24/ghee/internal/snapshot"
)

type Reader interface {
	List(ctx context.Context, j *job.Job) ([]snapshot.Snapshot, error)
}

// Dir reads snapshots as directories directly under the job's target.
type Dir struct {
	fs fs.FS
}

func NewDir(f fs.FS) *Dir {
	return &Dir{fs: f}
}

// List returns the job's snapshots newest first. Entries not named after
// the job are ignored, including in-progress copies.
func (d *Dir) List(ctx context.Context, j *job.Job) ([]snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := d.fs.ReadDir(j.Target)
	if err != nil {
		return nil, fmt.Errorf("read target %s: %w", j.Target, err)
	}

	var out []snapshot.Snapshot
	for _, e := range entries {
		if s, ok := snapshot.FromFileInfo(j.Target, j.Name, e); ok {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return retention.Newer(
			retention.Candidate{ID: out[a].Name, Time: out[a].Timestamp},
			retention.Candidate{ID: out[b].Name, Time: out[b].Timestamp},
		)
	})
	return out, nil
}
