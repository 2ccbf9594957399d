package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/nguyentantai21042004/demozone/internal/logger"
)

// New creates a Watcher over cfg.Dir and all of its subdirectories.
func New(cfg Config, handler EventHandler, log logger.Logger) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &implWatcher{
		cfg:     cfg,
		exts:    normalizeExts(cfg.Extensions),
		handler: handler,
		logger:  log,
		watcher: watcher,
	}

	if err := w.addTree(cfg.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if cfg.RescanSchedule != "" {
		w.cron = cron.New()
		if _, err := w.cron.AddFunc(cfg.RescanSchedule, w.rescan); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("parse rescan schedule %q: %w", cfg.RescanSchedule, err)
		}
	}

	// Default to 2 concurrent if not specified
	if w.cfg.MaxConcurrent <= 0 {
		w.cfg.MaxConcurrent = 2
	}
	if w.cfg.Name == "" {
		w.cfg.Name = filepath.Base(cfg.Dir)
	}
	w.semaphore = make(chan struct{}, w.cfg.MaxConcurrent)

	return w, nil
}

// normalizeExts lowercases extensions and makes sure each has a leading dot.
func normalizeExts(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

func (w *implWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
