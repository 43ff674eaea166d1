package watcher

import (
	"os"
)

// detect reports a Change if the file was modified since the last report
// and has stopped changing.
func (w *Watcher) detect() {
	w.mu.RLock()
	path := w.path
	last := w.lastModTime
	lastSize := w.lastSize
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		w.log.Debug("config file not readable", "path", path, "error", err)
		return
	}

	mod := info.ModTime()
	if mod.Equal(last) && info.Size() == lastSize {
		return
	}

	if !w.isStable(info) {
		w.log.Debug("config file still changing", "path", path)
		return
	}

	w.mu.Lock()
	w.lastModTime = mod
	w.lastSize = info.Size()
	w.mu.Unlock()

	w.log.Info("config file changed", "path", path)
	w.mb.Put(Change{Path: path, ModTime: mod})
}
