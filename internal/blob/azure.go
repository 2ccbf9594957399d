package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	azblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
)

type azureStore struct {
	containerSASURL string
}

// NewAzure returns a Store writing block blobs into the container addressed
// by a SAS URL (https://<account>.blob.core.windows.net/<container>?<sas>).
func NewAzure(containerSASURL string) (Store, error) {
	if !strings.Contains(containerSASURL, "?") {
		return nil, fmt.Errorf("container SAS URL has no token")
	}
	return &azureStore{containerSASURL: containerSASURL}, nil
}

// blobURL splices the blob name between the container path and the SAS token.
func blobURL(containerSASURL, name string) string {
	base, token, _ := strings.Cut(containerSASURL, "?")
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(name) + "?" + token
}

func (a *azureStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	client, err := blockblob.NewClientWithNoCredential(blobURL(a.containerSASURL, name), nil)
	if err != nil {
		return "", fmt.Errorf("create blob client: %w", err)
	}

	_, err = client.UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		HTTPHeaders: &azblob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", name, err)
	}
	return client.URL(), nil
}

func (a *azureStore) Close() error {
	return nil
}
