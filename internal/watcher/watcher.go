// Package watcher monitors the configuration file and reports changes so the
// daemon can reload it.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/ghee/internal/config"
	"github.com/raoulx24/ghee/internal/fsprobe"
	"github.com/raoulx24/ghee/internal/logging"
	"github.com/raoulx24/ghee/internal/mailbox"
)

const (
	ModeAuto     = "auto"
	ModePoll     = "poll"
	ModeFsnotify = "fsnotify"
)

// Change is a detected modification of the watched file.
type Change struct {
	Path    string
	ModTime time.Time
}

// Watcher observes one file and puts a Change into the mailbox whenever it
// is rewritten.
type Watcher struct {
	mu sync.RWMutex

	path      string
	interval  time.Duration
	mode      string
	debounce  time.Duration
	stability time.Duration

	log logging.Logger

	lastModTime time.Time
	lastSize    int64

	mb *mailbox.Mailbox[Change]
}

// New creates a watcher for path. The file's current state is the baseline,
// so only later modifications are reported.
func New(path string, cfg config.ReloadConfig, log logging.Logger, mb *mailbox.Mailbox[Change]) *Watcher {
	w := &Watcher{
		path:      path,
		interval:  cfg.PollInterval,
		mode:      cfg.Mode,
		debounce:  cfg.Debounce,
		stability: cfg.StabilityWindow,
		log:       log,
		mb:        mb,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
	}
	return w
}

// Start chooses the watching strategy and blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	dir := filepath.Dir(w.path)
	w.mu.RUnlock()

	switch mode {
	case ModeFsnotify:
		return w.StartFsNotify(ctx)

	case ModePoll:
		w.StartPolling(ctx)
		return nil

	case ModeAuto, "":
		res := fsprobe.Probe(dir)
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, polling", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}
