package web

import (
	"context"
	"net/http"
)

// Server is the HTTP API of the catalog.
type Server interface {
	// Handler returns the root handler with all routes and middleware.
	Handler() http.Handler

	// Run serves requests until the context is canceled.
	Run(ctx context.Context) error
}
