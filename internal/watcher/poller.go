package watcher

import (
	"context"
	"time"
)

const minPollInterval = time.Second

// StartPolling checks the file once right away, catching edits made between
// New and Start, then on every poll interval until ctx is done.
func (w *Watcher) StartPolling(ctx context.Context) {
	w.mu.RLock()
	interval := w.interval
	w.mu.RUnlock()
	if interval <= 0 {
		interval = minPollInterval
	}

	w.detect()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.detect()
		}
	}
}
