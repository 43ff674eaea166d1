package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/raoulx24/ghee/internal/backend"
	"github.com/raoulx24/ghee/internal/config"
	"github.com/raoulx24/ghee/internal/fs"
	"github.com/raoulx24/ghee/internal/inventory"
	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/metrics"
	"github.com/raoulx24/ghee/internal/orchestrator"
	"github.com/raoulx24/ghee/internal/planner"
	"github.com/raoulx24/ghee/internal/report"
	"github.com/raoulx24/ghee/internal/retention"
)

func defaultBackends(base afero.Fs, log logging.Logger) backend.Set {
	return backend.Set{
		backend.KindBtrfs: backend.NewBtrfs(log.With("backend", backend.KindBtrfs)),
		backend.KindCopy:  backend.NewCopy(fs.New(base), log.With("backend", backend.KindCopy)),
	}
}

// loadConfig reads the config file and builds the logger it asks for.
// Flags take precedence over the file's logging level.
func (e *env) loadConfig(g globalOptions) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := e.newLogger(g, cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}
	return cfg, log, nil
}

func (e *env) newLogger(g globalOptions, lc config.LoggingConfig) (logging.Logger, error) {
	level := lc.Level
	switch {
	case g.Verbose:
		level = logging.LevelDebug
	case g.Quiet:
		level = logging.LevelError
	}
	return logging.New(e.stderr, level, lc.Format)
}

// invoke runs one invocation of mode over the jobs selected by groups.
func (e *env) invoke(ctx context.Context, g globalOptions, cfg *config.Config, log logging.Logger, m *metrics.Metrics, mode orchestrator.Mode, groups []string) error {
	log = log.With("run", uuid.NewString())

	jobs := job.Select(cfg.ResolvedJobs(), groups)
	if len(jobs) == 0 {
		log.Warn("no job selected", "groups", groups)
	}

	workers := cfg.Workers
	if g.Workers > 0 {
		workers = g.Workers
	}

	orch := orchestrator.New(
		planner.New(retention.NewCalendar(cfg.Location())),
		inventory.NewDir(fs.New(e.fs)),
		e.backends(e.fs, log),
		e.stdout,
		log,
		orchestrator.WithReporter(report.Table{}),
		orchestrator.WithRecorder(m),
	)

	summary := orch.Run(ctx, jobs, orchestrator.Options{
		Mode:    mode,
		DryRun:  g.DryRun,
		Workers: workers,
		Quiet:   g.Quiet,
	}, e.now())

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("writing metrics textfile failed", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	if !g.Quiet {
		e.status(summary)
	}
	return summary.Err()
}

func (e *env) status(s *orchestrator.Summary) {
	total := len(s.Jobs)
	if failed := s.Failed(); failed > 0 {
		color.New(color.FgRed).Fprintf(e.stderr, "%d of %s failed\n", failed, plural(total, "job"))
		return
	}
	color.New(color.FgGreen).Fprintf(e.stderr, "%s done\n", plural(total, "job"))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
