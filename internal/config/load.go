// Package config loads the ghee configuration file and turns its job
// definitions into validated jobs.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/raoulx24/ghee/internal/backend"
	"github.com/raoulx24/ghee/internal/job"
	"github.com/raoulx24/ghee/internal/retention"
)

const DefaultPath = "/etc/ghee/ghee.yaml"

const (
	defaultPollInterval = 5 * time.Second
	defaultDebounce     = 500 * time.Millisecond
)

//go:embed schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("ghee.schema.json", schemaSource)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands $(VAR) placeholders, validates the document against the
// schema and resolves the jobs. Every returned error is an *Error.
func Parse(data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	if err := validateSchema(expanded); err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &Error{Job: -1, Err: fmt.Errorf("unmarshalling yaml: %w", err)}
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &Error{Job: -1, Err: fmt.Errorf("parsing yaml: %w", err)}
	}
	if doc == nil {
		return &Error{Job: -1, Err: errors.New("empty document")}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return &Error{Job: -1, Err: fmt.Errorf("converting to json: %w", err)}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return &Error{Job: -1, Err: err}
	}

	if err := schema.Validate(v); err != nil {
		return &Error{Job: -1, Err: err}
	}
	return nil
}

func (c *Config) resolve() error {
	switch c.Timezone {
	case "", "Local":
		c.location = time.Local
	default:
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return topLevel("timezone", err)
		}
		c.location = loc
	}

	if c.Workers == 0 {
		c.Workers = 1
	}

	r := &c.Daemon.Reload
	if r.Mode == "" {
		r.Mode = "auto"
	}
	if r.PollInterval <= 0 {
		r.PollInterval = defaultPollInterval
	}
	if r.Debounce <= 0 {
		r.Debounce = defaultDebounce
	}

	for i := range c.Daemon.Schedules {
		s := &c.Daemon.Schedules[i]
		if s.Command == "" {
			s.Command = "run"
		}
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			return topLevel(fmt.Sprintf("daemon.schedules[%d].cron", i), err)
		}
	}

	type key struct{ target, name string }
	seen := make(map[key]int, len(c.Jobs))
	c.jobs = make([]job.Job, 0, len(c.Jobs))

	for i, jc := range c.Jobs {
		j, err := jc.resolve(i)
		if err != nil {
			return err
		}

		k := key{filepath.Clean(j.Target), j.Name}
		if prev, ok := seen[k]; ok {
			return jobError(i, "name", fmt.Errorf("snapshots named %q in %s already belong to jobs[%d]", j.Name, j.Target, prev))
		}
		seen[k] = i

		if j.RetainsNothing() {
			c.warnings = append(c.warnings, fmt.Sprintf("jobs[%d] (%s) has no retention and no minimum: every existing snapshot will be deleted", i, j.Name))
		}
		c.jobs = append(c.jobs, j)
	}
	return nil
}

func (jc JobConfig) resolve(i int) (job.Job, error) {
	name := jc.Name
	if name == "" {
		name = defaultName(jc.Subvolume)
	}
	if strings.ContainsRune(name, '/') || strings.HasPrefix(name, ".") {
		return job.Job{}, jobError(i, "name", fmt.Errorf("%q must not contain '/' or start with '.'", name))
	}

	subvolume, target := filepath.Clean(jc.Subvolume), filepath.Clean(jc.Target)
	if subvolume == target {
		return job.Job{}, jobError(i, "target", fmt.Errorf("%s must differ from the subvolume", target))
	}
	kind := jc.Backend
	if kind == "" {
		kind = backend.KindBtrfs
	}

	rules, err := retention.ParseRules(jc.Preserve.Retention)
	if err != nil {
		return job.Job{}, jobError(i, "preserve.retention", err)
	}

	floor := jc.Preserve.Min.Policy
	if floor == nil {
		floor = retention.MinNone{}
	}

	return job.Job{
		Name:      name,
		Subvolume: subvolume,
		Target:    target,
		Backend:   kind,
		Groups:    append([]string(nil), jc.Groups...),
		Retention: rules,
		Min:       floor,
	}, nil
}

// defaultName derives a snapshot prefix from the subvolume path.
func defaultName(subvolume string) string {
	clean := filepath.Clean(subvolume)
	if clean == "/" || clean == "." {
		return "root"
	}
	return filepath.Base(clean)
}
