package forwarder

import (
	"net/http"
	"time"

	"github.com/nguyentantai21042004/demozone/internal/logger"
)

// Config holds the forwarder settings.
type Config struct {
	URL        string
	BotID      string
	Timeout    time.Duration
	MaxRetries int
}

type implForwarder struct {
	cfg    Config
	client *http.Client
	logger logger.Logger
	// backoff returns the wait before the given retry attempt
	backoff func(attempt int) time.Duration
}

// New creates a Forwarder posting to cfg.URL.
func New(cfg Config, log logger.Logger) Forwarder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &implForwarder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  log,
		backoff: jitteredBackoff,
	}
}
