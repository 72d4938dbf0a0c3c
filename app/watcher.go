package app

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kilianp07/splan/infra/logger"
)

// ConfigWatcher calls onChange after the config file was written, created
// or renamed into place. Bursts of events are debounced.
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()
	log      logger.Logger

	mu      sync.Mutex
	pending bool
	last    time.Time
}

// NewConfigWatcher watches the directory holding path, which keeps working
// when editors replace the file instead of writing it in place.
func NewConfigWatcher(path string, debounce time.Duration, onChange func(), log logger.Logger) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &ConfigWatcher{watcher: w, path: abs, debounce: debounce, onChange: onChange, log: log}, nil
}

// Run processes events until ctx is canceled, then closes the watcher.
func (cw *ConfigWatcher) Run(ctx context.Context) {
	defer func() {
		if err := cw.watcher.Close(); err != nil {
			cw.log.Errorf("close config watcher: %v", err)
		}
	}()
	tick := time.NewTicker(cw.debounce / 2)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handle(ev)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Errorf("config watcher: %v", err)
		case <-tick.C:
			cw.flush()
		}
	}
}

func (cw *ConfigWatcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != cw.path {
		return
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	cw.mu.Lock()
	cw.pending = true
	cw.last = time.Now()
	cw.mu.Unlock()
}

func (cw *ConfigWatcher) flush() {
	cw.mu.Lock()
	fire := cw.pending && time.Since(cw.last) >= cw.debounce
	if fire {
		cw.pending = false
	}
	cw.mu.Unlock()
	if fire {
		cw.log.Infof("config file %s changed", cw.path)
		cw.onChange()
	}
}
