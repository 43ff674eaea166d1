// Package backend executes create and delete intents against storage.
package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/raoulx24/ghee/internal/job"
)

const (
	KindBtrfs = "btrfs"
	KindCopy  = "copy"
)

// Backend creates and deletes snapshots of a job.
type Backend interface {
	// Create takes a snapshot of the job's subvolume stamped ts and returns
	// its name inside the target.
	Create(ctx context.Context, j *job.Job, ts time.Time) (string, error)
	// Delete removes the named snapshot from the job's target.
	Delete(ctx context.Context, j *job.Job, name string) error
}

// Set maps a backend kind to its implementation.
type Set map[string]Backend

// For returns the backend configured for j.
func (s Set) For(j *job.Job) (Backend, error) {
	b, ok := s[j.Backend]
	if !ok {
		return nil, fmt.Errorf("job %s: unknown backend %q", j.Name, j.Backend)
	}
	return b, nil
}

// snapshotPath joins a snapshot name to the target, refusing anything that
// is not a plain entry of the target directory.
func snapshotPath(j *job.Job, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(j.Target, name), nil
}
