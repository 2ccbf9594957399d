package blob

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/demozone/internal/config"
)

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Backend {
	case config.BlobAzure:
		return NewAzure(cfg.Azure.ContainerSASURL)
	case config.BlobGCS:
		return NewGCS(ctx, cfg.GCS.Bucket, cfg.GCS.Prefix)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
