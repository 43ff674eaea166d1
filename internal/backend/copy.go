package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/raoulx24/ghee/internal/fs"
	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/snapshot"
)

const tmpPrefix = ".tmp-"

// Copy snapshots a directory tree by copying it. The copy is written under a
// hidden temporary name and renamed into place once complete, so the
// inventory never sees a partial snapshot. A target inside the subvolume is
// left out of the copy.
type Copy struct {
	fs  fs.FS
	log logging.Logger
}

func NewCopy(f fs.FS, log logging.Logger) *Copy {
	return &Copy{fs: f, log: log}
}

func (c *Copy) Create(ctx context.Context, j *job.Job, ts time.Time) (string, error) {
	st, err := c.fs.Stat(j.Subvolume)
	if err != nil {
		return "", err
	}
	if !st.Mode.IsDir() {
		return "", fmt.Errorf("%s is not a directory", j.Subvolume)
	}
	if err := c.fs.MkdirAll(j.Target); err != nil {
		return "", err
	}

	name := snapshot.Name(j.Name, ts)
	final := filepath.Join(j.Target, name)
	if _, err := c.fs.Stat(final); err == nil {
		return "", fmt.Errorf("snapshot %s already exists", final)
	}

	tmp := filepath.Join(j.Target, tmpPrefix+name)
	if err := c.fs.RemoveAll(tmp); err != nil {
		return "", err
	}

	if err := c.fs.CopyTree(ctx, j.Subvolume, tmp, j.Target); err != nil {
		_ = c.fs.RemoveAll(tmp)
		return "", err
	}
	if err := c.fs.Rename(ctx, tmp, final); err != nil {
		_ = c.fs.RemoveAll(tmp)
		return "", err
	}

	c.log.Debug("copy snapshot created", "job", j.Name, "path", final)
	return name, nil
}

func (c *Copy) Delete(ctx context.Context, j *job.Job, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := snapshotPath(j, name)
	if err != nil {
		return err
	}
	if _, err := c.fs.Stat(path); err != nil {
		return err
	}
	if err := c.fs.RemoveAll(path); err != nil {
		return err
	}
	c.log.Debug("copy snapshot deleted", "job", j.Name, "path", path)
	return nil
}
