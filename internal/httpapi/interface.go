package httpapi

import (
	"context"
	"net/http"
)

// Server is the upload API.
type Server interface {
	// Handler exposes the router, mainly for tests.
	Handler() http.Handler
	// Run serves until ctx is cancelled, then shuts down gracefully.
	Run(ctx context.Context) error
}
