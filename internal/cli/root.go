// Package cli implements the ghee command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/raoulx24/ghee/internal/backend"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/orchestrator"
)

// env carries what commands need from the outside world.
type env struct {
	stdout, stderr io.Writer
	now            func() time.Time
	fs             afero.Fs
	backends       func(fs afero.Fs, log logging.Logger) backend.Set
}

type Option func(*env)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

// WithFs replaces the filesystem used for snapshot targets and the copy
// backend.
func WithFs(fs afero.Fs) Option {
	return func(e *env) { e.fs = fs }
}

// WithBackends replaces the execution backends.
func WithBackends(fn func(fs afero.Fs, log logging.Logger) backend.Set) Option {
	return func(e *env) { e.backends = fn }
}

// NewRootCmd returns the root cobra command for the ghee CLI.
func NewRootCmd(stdout, stderr io.Writer, opts ...Option) *cobra.Command {
	e := &env{
		stdout:   stdout,
		stderr:   stderr,
		now:      time.Now,
		fs:       afero.NewOsFs(),
		backends: defaultBackends,
	}
	for _, o := range opts {
		o(e)
	}

	cmd := &cobra.Command{
		Use:           "ghee",
		Short:         "Take btrfs snapshots and prune them with a grandfather-father-son policy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newInvokeCmd(e, orchestrator.Run, "Take a new snapshot of every selected job and prune old ones"))
	cmd.AddCommand(newInvokeCmd(e, orchestrator.DryRun, "Show what run would do without changing anything"))
	cmd.AddCommand(newInvokeCmd(e, orchestrator.Prune, "Delete snapshots no longer retained, without taking a new one"))
	cmd.AddCommand(newValidateCmd(e))
	cmd.AddCommand(newDaemonCmd(e))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ghee:", err)
		return 1
	}
	return 0
}
