package watcher

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Run starts every watcher in its own goroutine and blocks until ctx is
// cancelled or one of them fails. All watchers are stopped and drained before
// Run returns. Cancellation is not reported as an error.
func Run(ctx context.Context, watchers ...Watcher) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range watchers {
		g.Go(func() error {
			defer w.Stop()
			if err := w.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
