package watcher

import (
	"os"
	"time"
)

// isStable waits for the stability window and reports whether the file kept
// its size and modification time in the meantime.
func (w *Watcher) isStable(before os.FileInfo) bool {
	w.mu.RLock()
	path := w.path
	stability := w.stability
	w.mu.RUnlock()

	if stability <= 0 {
		return true
	}

	time.Sleep(stability)

	after, err := os.Stat(path)
	if err != nil {
		return false
	}
	return after.Size() == before.Size() && after.ModTime().Equal(before.ModTime())
}
