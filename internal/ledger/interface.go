package ledger

import (
	"context"
	"time"
)

// Upload is the session metadata an upload carried.
type Upload struct {
	Path        string
	SessionID   string
	MaxSpeakers int
	Kind        string
	CreatedAt   time.Time
}

// Ledger records which inputs were processed and which session an upload belongs to.
type Ledger interface {
	// Claim atomically reserves key for processing. It returns false when the key
	// is already being processed or is done; failed keys can be claimed again
	// until their attempts are used up.
	Claim(ctx context.Context, key, sourcePath, sessionID string) (bool, error)
	MarkDone(ctx context.Context, key string) error
	MarkFailed(ctx context.Context, key string) error

	RegisterUpload(ctx context.Context, u Upload) error
	LookupUpload(ctx context.Context, path string) (Upload, bool, error)

	Close() error
}

// Upload kinds.
const (
	KindAudio = "audio"
	KindImage = "image"
)

// Entry statuses.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)
