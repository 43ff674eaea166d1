// Package daemon runs invocations on cron schedules and reloads the
// configuration on SIGHUP or when the file changes.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/ghee/internal/config"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/mailbox"
	"github.com/raoulx24/ghee/internal/orchestrator"
	"github.com/raoulx24/ghee/internal/watcher"
)

// Trigger is one firing of a schedule.
type Trigger struct {
	Schedule int
	Spec     string
	Mode     orchestrator.Mode
	Groups   []string
	At       time.Time
}

// LoadFunc reads and validates the configuration.
type LoadFunc func() (*config.Config, error)

// RunFunc executes one invocation against cfg.
type RunFunc func(ctx context.Context, cfg *config.Config, t Trigger) error

// schedule owns a latest-wins mailbox, so repeated firings of the same
// schedule while an invocation is running collapse into one.
type schedule struct {
	index  int
	spec   string
	mode   orchestrator.Mode
	groups []string
	box    *mailbox.Mailbox[Trigger]
}

type Daemon struct {
	path string
	load LoadFunc
	run  RunFunc
	log  logging.Logger

	mu        sync.Mutex
	cfg       *config.Config
	cron      *cron.Cron
	schedules []*schedule

	wake    *mailbox.Mailbox[struct{}]
	reloads *mailbox.Mailbox[watcher.Change]
	watcher *watcher.Watcher
}

// New creates a daemon for the configuration file at path.
func New(path string, load LoadFunc, run RunFunc, log logging.Logger) *Daemon {
	return &Daemon{
		path:    path,
		load:    load,
		run:     run,
		log:     log,
		wake:    mailbox.New[struct{}](),
		reloads: mailbox.New[watcher.Change](),
	}
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Reload requests a configuration reload from the daemon loop.
func (d *Daemon) Reload() {
	d.reloads.Put(watcher.Change{Path: d.path, ModTime: time.Now()})
}

// Run blocks until ctx is done. Triggers are executed one at a time; a
// trigger in progress when ctx is canceled completes before Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	cfg, err := d.load()
	if err != nil {
		return err
	}
	if err := d.apply(cfg); err != nil {
		return err
	}
	defer d.stopCron()

	if cfg.Daemon.Reload.Enabled {
		w := watcher.New(d.path, cfg.Daemon.Reload, d.log.With("component", "watcher"), d.reloads)
		d.watcher = w
		go func() {
			if err := w.Start(ctx); err != nil {
				d.log.Error("config watcher stopped", "error", err)
			}
		}()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	d.log.Info("daemon started", "schedules", len(cfg.Daemon.Schedules), "jobs", len(cfg.Jobs))
	for {
		select {
		case <-ctx.Done():
			d.log.Info("daemon stopping")
			return nil

		case <-hup:
			d.log.Info("SIGHUP received")
			d.Reload()

		case <-d.reloads.Ready():
			if c := d.reloads.TryTake(); c != nil {
				d.reload()
			}

		case <-d.wake.Ready():
			d.wake.TryTake()
			d.drain(ctx)
		}
	}
}

// drain executes pending triggers in schedule order. A trigger that has
// started runs to completion even if ctx is canceled meanwhile; only the
// triggers after it are dropped.
func (d *Daemon) drain(ctx context.Context) {
	d.mu.Lock()
	cfg := d.cfg
	schedules := d.schedules
	d.mu.Unlock()

	for _, s := range schedules {
		if ctx.Err() != nil {
			return
		}
		t := s.box.TryTake()
		if t == nil {
			continue
		}

		log := d.log.With("schedule", t.Spec, "mode", t.Mode.String())
		log.Info("schedule fired", "at", t.At)
		if err := d.run(context.WithoutCancel(ctx), cfg, *t); err != nil {
			log.Error("scheduled invocation failed", "error", err)
		}
	}
}

func (d *Daemon) reload() {
	cfg, err := d.load()
	if err != nil {
		d.log.Error("config reload failed, keeping previous configuration", "error", err)
		return
	}
	if err := d.apply(cfg); err != nil {
		d.log.Error("config reload failed, keeping previous configuration", "error", err)
		return
	}
	if d.watcher != nil {
		d.watcher.UpdateConfig(cfg.Daemon.Reload)
	}
	d.log.Info("config reloaded", "schedules", len(cfg.Daemon.Schedules), "jobs", len(cfg.Jobs))
}

// apply builds the schedules of cfg and swaps them in. On error the
// previous configuration stays in effect.
func (d *Daemon) apply(cfg *config.Config) error {
	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(cronLogger{d.log.With("component", "cron")}),
	)

	schedules := make([]*schedule, 0, len(cfg.Daemon.Schedules))
	for i, sc := range cfg.Daemon.Schedules {
		mode, err := orchestrator.ParseMode(sc.Command)
		if err != nil {
			return fmt.Errorf("daemon.schedules[%d]: %w", i, err)
		}
		s := &schedule{
			index:  i,
			spec:   sc.Cron,
			mode:   mode,
			groups: append([]string(nil), sc.Groups...),
			box:    mailbox.New[Trigger](),
		}
		if _, err := c.AddFunc(sc.Cron, func() { d.fire(s) }); err != nil {
			return fmt.Errorf("daemon.schedules[%d]: %w", i, err)
		}
		schedules = append(schedules, s)
	}

	d.stopCron()

	d.mu.Lock()
	d.cfg = cfg
	d.cron = c
	d.schedules = schedules
	d.mu.Unlock()

	c.Start()
	return nil
}

func (d *Daemon) fire(s *schedule) {
	s.box.Put(Trigger{
		Schedule: s.index,
		Spec:     s.spec,
		Mode:     s.mode,
		Groups:   s.groups,
		At:       time.Now(),
	})
	d.wake.Put(struct{}{})
}

func (d *Daemon) stopCron() {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// cronLogger routes cron's own logging into ours.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error(msg, append(kv, "error", err)...)
}
