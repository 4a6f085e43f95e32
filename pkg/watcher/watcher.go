// Package watcher requests an index rebuild when supported files in the
// docs directory change on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wine-concierge-be/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// TriggerFunc is called once per burst of relevant changes.
type TriggerFunc func(ctx context.Context, reason string) error

type Watcher struct {
	dir       string
	debounce  time.Duration
	supported func(name string) bool
	trigger   TriggerFunc
	log       logger.ILogger

	mu    sync.Mutex
	timer *time.Timer
}

func New(dir string, debounce time.Duration, supported func(string) bool, trigger TriggerFunc, log logger.ILogger) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		dir:       dir,
		debounce:  debounce,
		supported: supported,
		trigger:   trigger,
		log:       log,
	}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("WATCHER", "watching docs directory", map[string]interface{}{"dir": w.dir})

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.schedule(ctx, filepath.Base(event.Name))
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("WATCHER", "watch error", map[string]interface{}{"error": err.Error()})
		}
	}
}

// relevant ignores chmod, directories, hidden and unsupported files.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return false
	}
	return w.supported == nil || w.supported(base)
}

func (w *Watcher) schedule(ctx context.Context, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.trigger(ctx, "watch:"+name); err != nil {
			w.log.Warn("WATCHER", "rebuild request failed", map[string]interface{}{"error": err.Error()})
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
