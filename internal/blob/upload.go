package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Name derives the blob name for a local file: its base name, with suffix
// appended unless it already ends with it (case-insensitive).
func Name(localPath, suffix string) string {
	name := filepath.Base(localPath)
	if suffix != "" && !strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
		name += suffix
	}
	return name
}

// UploadFile reads localPath and stores it under Name(localPath, suffix).
// The content type is sniffed from the file bytes.
func UploadFile(ctx context.Context, store Store, localPath, suffix string, timeout time.Duration) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	contentType := mimetype.Detect(data).String()
	url, err := store.Put(ctx, Name(localPath, suffix), contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(localPath), err)
	}
	return url, nil
}
