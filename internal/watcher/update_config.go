package watcher

import (
	"github.com/raoulx24/ghee/internal/config"
)

// UpdateConfig applies reloaded watch settings. The strategy and intervals
// take effect on the next Start; debounce and stability apply immediately.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.interval = cfg.PollInterval
	w.mode = cfg.Mode
	w.debounce = cfg.Debounce
	w.stability = cfg.StabilityWindow
}
