package blob

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

type gcsStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS returns a Store writing objects to a Google Cloud Storage bucket
// using application default credentials.
func NewGCS(ctx context.Context, bucket, prefix string) (Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &gcsStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *gcsStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectKey := path.Join(g.prefix, name)

	w := g.client.Bucket(g.bucket).Object(objectKey).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write object %s: %w", objectKey, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", objectKey, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectKey), nil
}

func (g *gcsStore) Close() error {
	return g.client.Close()
}
