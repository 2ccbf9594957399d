package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/nguyentantai21042004/demozone/internal/logger"
)

type implWatcher struct {
	cfg       Config
	exts      map[string]struct{}
	handler   EventHandler
	logger    logger.Logger
	watcher   *fsnotify.Watcher
	semaphore chan struct{}
	wg        sync.WaitGroup

	cron *cron.Cron
	// runCtx is the Start context, read by scheduled rescans
	runCtx context.Context
}

// Start begins monitoring the directory for new files with an allowed extension
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher [%s] started (max concurrent: %d). Monitoring: %s", w.cfg.Name, w.cfg.MaxConcurrent, w.cfg.Dir)
	w.logger.Info(ctx, "File watcher [%s] supported formats: %s", w.cfg.Name, strings.Join(w.cfg.Extensions, ", "))

	if w.cron != nil {
		w.runCtx = ctx
		w.scanDir(ctx, w.cfg.Dir)
		w.cron.Start()
		w.logger.Info(ctx, "File watcher [%s] rescans on schedule %q", w.cfg.Name, w.cfg.RescanSchedule)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "File watcher [%s] waiting for ongoing processing to complete...", w.cfg.Name)
			w.stopCron()
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher [%s] stopped", w.cfg.Name)
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.stopCron()
				w.wg.Wait()
				return fmt.Errorf("watcher events channel closed")
			}

			// Only process CREATE events; a rename into the directory arrives as CREATE too
			if !event.Has(fsnotify.Create) {
				continue
			}
			w.handleCreate(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.stopCron()
				w.wg.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "File watcher [%s] error: %v", w.cfg.Name, err)
		}
	}
}

func (w *implWatcher) handleCreate(ctx context.Context, path string) {
	if isHidden(path) {
		w.logger.Debug(ctx, "Ignoring hidden file: %s", path)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// removed or renamed again before we looked
		w.logger.Debug(ctx, "Ignoring vanished file %s: %v", path, err)
		return
	}

	if info.IsDir() {
		if err := w.addTree(path); err != nil {
			w.logger.Warn(ctx, "Failed to watch new directory %s: %v", path, err)
			return
		}
		w.logger.Info(ctx, "Watching new directory: %s", path)
		w.scanDir(ctx, path)
		return
	}

	if !w.accepts(path) {
		w.logger.Debug(ctx, "Ignoring file with unsupported extension: %s", path)
		return
	}

	w.logger.Info(ctx, "New %s file detected: %s", w.cfg.Name, path)
	w.dispatch(ctx, path)
}

// scanDir dispatches matching files already present under dir: files that
// landed in a new directory before its watch was in place, or everything on a
// rescan.
func (w *implWatcher) scanDir(ctx context.Context, dir string) {
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) || !w.accepts(path) {
			return nil
		}
		w.logger.Info(ctx, "New %s file detected: %s", w.cfg.Name, path)
		w.dispatch(ctx, path)
		return nil
	})
}

// rescan is the scheduled job: it re-dispatches every matching file under Dir.
// Handlers are expected to skip files they already processed.
func (w *implWatcher) rescan() {
	ctx := w.runCtx
	if ctx.Err() != nil {
		return
	}
	w.logger.Debug(ctx, "File watcher [%s] rescanning %s", w.cfg.Name, w.cfg.Dir)
	w.scanDir(ctx, w.cfg.Dir)
}

// stopCron stops scheduling rescans and waits for a running one to finish,
// so no dispatch races the final WaitGroup drain.
func (w *implWatcher) stopCron() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// dispatch runs the handler in its own goroutine after the settle delay,
// bounded by the watcher's semaphore.
func (w *implWatcher) dispatch(ctx context.Context, path string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		// Small delay to ensure file is fully written
		if w.cfg.SettleDelay > 0 {
			timer := time.NewTimer(w.cfg.SettleDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		// Acquire semaphore slot (blocks if max concurrent reached)
		select {
		case w.semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-w.semaphore }()

		if err := w.handler(ctx, path); err != nil {
			w.logger.Error(ctx, "Failed to process %s: %v", path, err)
		}
	}()
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) accepts(path string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// isHidden reports dot-files, which also covers in-progress ".name.part" uploads.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
