package backend

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/snapshot"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Btrfs creates read-only subvolume snapshots with the btrfs tool.
type Btrfs struct {
	bin string
	run Runner
	log logging.Logger
}

type BtrfsOption func(*Btrfs)

// WithBinary overrides the btrfs executable.
func WithBinary(path string) BtrfsOption {
	return func(b *Btrfs) { b.bin = path }
}

// WithRunner replaces command execution.
func WithRunner(r Runner) BtrfsOption {
	return func(b *Btrfs) { b.run = r }
}

func NewBtrfs(log logging.Logger, opts ...BtrfsOption) *Btrfs {
	b := &Btrfs{bin: "btrfs", run: execRunner, log: log}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Btrfs) Create(ctx context.Context, j *job.Job, ts time.Time) (string, error) {
	if _, err := b.exec(ctx, "subvolume", "show", j.Subvolume); err != nil {
		return "", fmt.Errorf("%s is not a btrfs subvolume: %w", j.Subvolume, err)
	}

	name := snapshot.Name(j.Name, ts)
	dst := filepath.Join(j.Target, name)
	if _, err := b.exec(ctx, "subvolume", "snapshot", "-r", j.Subvolume, dst); err != nil {
		return "", err
	}
	b.log.Debug("btrfs snapshot created", "job", j.Name, "path", dst)
	return name, nil
}

func (b *Btrfs) Delete(ctx context.Context, j *job.Job, name string) error {
	path, err := snapshotPath(j, name)
	if err != nil {
		return err
	}
	if _, err := b.exec(ctx, "subvolume", "delete", path); err != nil {
		return err
	}
	b.log.Debug("btrfs snapshot deleted", "job", j.Name, "path", path)
	return nil
}

func (b *Btrfs) exec(ctx context.Context, args ...string) ([]byte, error) {
	out, err := b.run(ctx, b.bin, args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return out, fmt.Errorf("%s %s: %w", b.bin, strings.Join(args, " "), err)
		}
		return out, fmt.Errorf("%s %s: %w: %s", b.bin, strings.Join(args, " "), err, msg)
	}
	return out, nil
}
