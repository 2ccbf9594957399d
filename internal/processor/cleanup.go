package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// archive moves a processed source file into paths.archive. Without an archive
// directory the file stays where it is.
func (p *implProcessor) archive(ctx context.Context, path string) error {
	if p.cfg.Paths.Archive == "" {
		return nil
	}

	if err := os.MkdirAll(p.cfg.Paths.Archive, 0755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	dest := filepath.Join(p.cfg.Paths.Archive, filepath.Base(path))

	p.logger.Info(ctx, "Archiving: %s -> %s", path, dest)

	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("move to archive: %w", err)
	}
	return nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (p *implProcessor) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}
