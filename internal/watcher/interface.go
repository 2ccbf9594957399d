package watcher

import (
	"context"
	"time"
)

// Watcher defines the interface for file system monitoring
type Watcher interface {
	// Start blocks until ctx is cancelled, then waits for in-flight handlers.
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is a function that handles file events
type EventHandler func(ctx context.Context, filePath string) error

// Config describes one watched directory.
type Config struct {
	// Name labels log lines, e.g. "audio".
	Name          string
	Dir           string
	Extensions    []string
	SettleDelay   time.Duration
	MaxConcurrent int

	// RescanSchedule is a cron spec (e.g. "@every 10m") for walking Dir and
	// re-dispatching every matching file. Empty disables rescans.
	RescanSchedule string
}
