package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"dipper/internal/logger"
)

// ChangeListener is called with the freshly validated config after the file on
// disk changes.
type ChangeListener func(*Config)

// Watcher reloads the config file on filesystem events and fans the new
// snapshot out to subscribers. An edit that fails validation is logged and
// dropped; the previous snapshot stays in effect.
type Watcher struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  *Config
	listeners []ChangeListener
}

// Watch starts watching path. The initial load must succeed; later reload
// failures are tolerated.
func Watch(path string) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config watcher requires a path")
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	w := &Watcher{path: path, v: v, snapshot: cfg}
	v.OnConfigChange(func(evt fsnotify.Event) {
		next, err := Load(w.path)
		if err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		w.mu.Lock()
		w.snapshot = next
		listeners := append([]ChangeListener(nil), w.listeners...)
		w.mu.Unlock()
		logger.Infof("config reloaded from %s", w.path)
		for _, fn := range listeners {
			notify(fn, next)
		}
	})
	v.WatchConfig()
	return w, nil
}

// Snapshot returns the most recently loaded config.
func (w *Watcher) Snapshot() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// Subscribe registers fn and immediately delivers the current snapshot.
func (w *Watcher) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	snap := w.snapshot
	w.mu.Unlock()
	notify(fn, snap)
}

func notify(fn ChangeListener, cfg *Config) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("config listener panic: %v", r)
			}
		}()
		fn(cfg)
	}()
}
