package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nguyentantai21042004/demozone/internal/httpapi"
	"github.com/nguyentantai21042004/demozone/internal/ledger"
	"github.com/nguyentantai21042004/demozone/internal/watcher"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the upload API and the directory watchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	audioWatcher, err := watcher.New(watcher.Config{
		Name:           ledger.KindAudio,
		Dir:            cfg.Paths.Audio,
		Extensions:     cfg.Watcher.AudioExts,
		SettleDelay:    cfg.Watcher.SettleDelay,
		MaxConcurrent:  cfg.Performance.MaxConcurrent,
		RescanSchedule: cfg.Watcher.RescanSchedule,
	}, a.proc.Handler(ledger.KindAudio), a.log)
	if err != nil {
		return err
	}

	imageWatcher, err := watcher.New(watcher.Config{
		Name:           ledger.KindImage,
		Dir:            cfg.Paths.Images,
		Extensions:     cfg.Watcher.ImageExts,
		SettleDelay:    cfg.Watcher.SettleDelay,
		MaxConcurrent:  cfg.Performance.MaxConcurrent,
		RescanSchedule: cfg.Watcher.RescanSchedule,
	}, a.proc.Handler(ledger.KindImage), a.log)
	if err != nil {
		audioWatcher.Stop()
		return err
	}

	api := httpapi.New(cfg, a.ledger, a.log)

	a.log.Info(ctx, "========================================")
	a.log.Info(ctx, "demozone is ready!")
	a.log.Info(ctx, "Upload API: %s", cfg.Server.Addr)
	a.log.Info(ctx, "Watching audio: %s", cfg.Paths.Audio)
	a.log.Info(ctx, "Watching images: %s", cfg.Paths.Images)
	a.log.Info(ctx, "Transcriber: %s, blob: %s", cfg.Transcriber.Backend, cfg.Blob.Backend)
	a.log.Info(ctx, "Press Ctrl+C to stop")
	a.log.Info(ctx, "========================================")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx, audioWatcher, imageWatcher) })

	err = g.Wait()
	if err != nil {
		a.log.Error(ctx, "Stopped with error: %v", err)
	}
	a.log.Info(ctx, "demozone stopped")
	return err
}
