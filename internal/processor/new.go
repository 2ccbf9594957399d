package processor

import (
	"time"

	"github.com/nguyentantai21042004/demozone/internal/blob"
	"github.com/nguyentantai21042004/demozone/internal/config"
	"github.com/nguyentantai21042004/demozone/internal/forwarder"
	"github.com/nguyentantai21042004/demozone/internal/ledger"
	"github.com/nguyentantai21042004/demozone/internal/logger"
	"github.com/nguyentantai21042004/demozone/internal/speech"
	"github.com/nguyentantai21042004/demozone/internal/urllog"
	"github.com/nguyentantai21042004/demozone/pkg/executor"
)

// Deps are the collaborators a Processor needs.
type Deps struct {
	Speech    *speech.Pipeline
	Blob      blob.Store
	URLs      *urllog.Store
	Forwarder forwarder.Forwarder
	Ledger    ledger.Ledger
	Executor  executor.Executor
	Logger    logger.Logger
}

type implProcessor struct {
	cfg       *config.Config
	speech    *speech.Pipeline
	blob      blob.Store
	urls      *urllog.Store
	forwarder forwarder.Forwarder
	ledger    ledger.Ledger
	executor  executor.Executor
	logger    logger.Logger
	sem       *semaphore
	now       func() time.Time
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Deps) Processor {
	return &implProcessor{
		cfg:       cfg,
		speech:    deps.Speech,
		blob:      deps.Blob,
		urls:      deps.URLs,
		forwarder: deps.Forwarder,
		ledger:    deps.Ledger,
		executor:  deps.Executor,
		logger:    deps.Logger,
		sem:       newSemaphore(cfg.Transcriber.MaxParallel),
		now:       time.Now,
	}
}
