package blob

import "context"

// Store puts objects into cloud blob storage and returns their public URL.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Close() error
}
