package snapshot

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Origin tells whether a snapshot was found on disk or is about to be
// created by the current run.
type Origin int

const (
	Existing Origin = iota
	Pending
)

func (o Origin) String() string {
	if o == Pending {
		return "pending"
	}
	return "existing"
}

// Snapshot represents a single snapshot of a job's subvolume.
type Snapshot struct {
	Name      string
	Path      string
	Timestamp time.Time
	Origin    Origin
}

// matches the RFC 3339 suffix of a snapshot name, seconds precision
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(Z|[+-]\d{2}:\d{2})$`)

// Name returns the directory name of the snapshot of prefix taken at ts,
// e.g. "etc.2025-06-10T12:00:00+02:00".
func Name(prefix string, ts time.Time) string {
	return prefix + "." + ts.Format(time.RFC3339)
}

// Parse extracts the timestamp from a snapshot name belonging to prefix.
func Parse(prefix, name string) (time.Time, bool) {
	if !strings.HasPrefix(name, prefix+".") {
		return time.Time{}, false
	}
	ts := strings.TrimPrefix(name, prefix+".")
	if !timestampPattern.MatchString(ts) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// New builds the pending snapshot of prefix taken at ts inside target.
func New(target, prefix string, ts time.Time) Snapshot {
	name := Name(prefix, ts)
	return Snapshot{
		Name:      name,
		Path:      filepath.Join(target, name),
		Timestamp: ts,
		Origin:    Pending,
	}
}

// FromFileInfo constructs an existing Snapshot from a directory found in
// target. It reports false when the entry is not a snapshot of prefix.
func FromFileInfo(target, prefix string, info os.FileInfo) (Snapshot, bool) {
	if !info.IsDir() {
		return Snapshot{}, false
	}
	ts, ok := Parse(prefix, info.Name())
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		Name:      info.Name(),
		Path:      filepath.Join(target, info.Name()),
		Timestamp: ts,
		Origin:    Existing,
	}, true
}
