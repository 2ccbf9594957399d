package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/nguyentantai21042004/demozone/internal/blob"
	"github.com/nguyentantai21042004/demozone/internal/config"
	"github.com/nguyentantai21042004/demozone/internal/forwarder"
	"github.com/nguyentantai21042004/demozone/internal/ledger"
	"github.com/nguyentantai21042004/demozone/internal/logger"
	"github.com/nguyentantai21042004/demozone/internal/processor"
	"github.com/nguyentantai21042004/demozone/internal/speech"
	"github.com/nguyentantai21042004/demozone/internal/urllog"
	"github.com/nguyentantai21042004/demozone/pkg/executor"
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	ledger ledger.Ledger
	blob   blob.Store
	urls   *urllog.Store
	proc   processor.Processor
}

func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout), nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "System: %s/%s, CPU cores: %d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	log.Info(ctx, "Configuration loaded successfully")

	// Verify required directories exist
	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	l, err := ledger.Open(ctx, cfg.Ledger.Path, cfg.Ledger.MaxAttempts)
	if err != nil {
		return nil, err
	}

	store, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("create blob store: %w", err)
	}

	urls, err := urllog.Open(cfg.Paths.ProcessedImages)
	if err != nil {
		store.Close()
		l.Close()
		return nil, err
	}

	exec := executor.New()
	fwd := forwarder.New(forwarder.Config{
		URL:        cfg.Forwarder.URL,
		BotID:      cfg.Forwarder.BotID,
		Timeout:    cfg.Forwarder.Timeout,
		MaxRetries: cfg.Forwarder.MaxRetries,
	}, log)

	proc := processor.New(cfg, processor.Deps{
		Speech:    speech.New(cfg, exec, log),
		Blob:      store,
		URLs:      urls,
		Forwarder: fwd,
		Ledger:    l,
		Executor:  exec,
		Logger:    log,
	})

	return &app{cfg: cfg, log: log, ledger: l, blob: store, urls: urls, proc: proc}, nil
}

func (a *app) Close() {
	a.urls.Close()
	if err := a.blob.Close(); err != nil {
		a.log.Warn(context.Background(), "Close blob store: %v", err)
	}
	if err := a.ledger.Close(); err != nil {
		a.log.Warn(context.Background(), "Close ledger: %v", err)
	}
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Audio,
		cfg.Paths.Images,
		cfg.Paths.ProcessedImages,
		cfg.Paths.Temp,
	}
	if cfg.Paths.Transcripts != "" {
		dirs = append(dirs, cfg.Paths.Transcripts)
	}
	if cfg.Paths.Archive != "" {
		dirs = append(dirs, cfg.Paths.Archive)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
