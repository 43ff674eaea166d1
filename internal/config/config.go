package config

import (
	"time"

	"github.com/raoulx24/ghee/internal/job"
)

type Config struct {
	Timezone string        `yaml:"timezone"`
	Workers  int           `yaml:"workers"`
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Daemon   DaemonConfig  `yaml:"daemon"`
	Jobs     []JobConfig   `yaml:"jobs"`

	location *time.Location
	jobs     []job.Job
	warnings []string
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error", "none"
	Format string `yaml:"format"` // "console", "json"
}

type MetricsConfig struct {
	// Textfile receives the registry after every invocation, for the
	// node_exporter textfile collector.
	Textfile string `yaml:"textfile"`
	// Listen is the address serving /metrics in daemon mode.
	Listen string `yaml:"listen"`
}

type DaemonConfig struct {
	Schedules []ScheduleConfig `yaml:"schedules"`
	Reload    ReloadConfig     `yaml:"reload"`
}

type ScheduleConfig struct {
	Cron    string   `yaml:"cron"`
	Command string   `yaml:"command"` // "run", "dryrun", "prune"
	Groups  []string `yaml:"groups"`
}

type ReloadConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Mode            string        `yaml:"mode"`         // "auto", "poll", "fsnotify"
	PollInterval    time.Duration `yaml:"pollInterval"` // e.g. 5s
	Debounce        time.Duration `yaml:"debounce"`     // e.g. 500ms
	StabilityWindow time.Duration `yaml:"stabilityWindow"`
}

type JobConfig struct {
	Subvolume string         `yaml:"subvolume"`
	Target    string         `yaml:"target"`
	Name      string         `yaml:"name"`
	Backend   string         `yaml:"backend"`
	Groups    []string       `yaml:"groups"`
	Preserve  PreserveConfig `yaml:"preserve"`
}

type PreserveConfig struct {
	Retention string  `yaml:"retention"` // e.g. "48h 14d 4w"
	Min       MinSpec `yaml:"min"`
}

// Location is the time zone in which retention buckets are aligned.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// ResolvedJobs returns the validated jobs in configuration order.
func (c *Config) ResolvedJobs() []job.Job {
	return append([]job.Job(nil), c.jobs...)
}

// Warnings lists legal but suspicious settings found while loading.
func (c *Config) Warnings() []string {
	return c.warnings
}
