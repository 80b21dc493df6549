// Package webio serves the catalog over HTTP.
package webio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/web"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/gnfmt"
)

const apiPath = "/api/v1"

type server struct {
	cfg     config.Config
	cat     catalog.Catalog
	version string
	enc     gnfmt.Encoder
	metrics *metrics
	handler http.Handler
}

// New creates an HTTP server of the catalog.
func New(cfg config.Config, cat catalog.Catalog, version string) web.Server {
	res := &server{
		cfg:     cfg,
		cat:     cat,
		version: version,
		enc:     gnfmt.GNjson{},
		metrics: newMetrics(),
	}
	res.handler = res.router()
	return res
}

// Handler returns the root handler with middleware applied.
func (s *server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured port until the context is canceled.
func (s *server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", s.cfg.Port, "version", s.version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("Server shutting down")
	return srv.Shutdown(shutCtx)
}

func (s *server) router() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle("GET "+pattern, s.metrics.instrument(pattern, h))
	}

	cat := apiPath + "/catalog/{taxon}/{mag}/{entity}"
	gen := apiPath + "/genomes/{taxon}/{mag}/{uid}"

	handle(apiPath+"/health", s.health)
	handle(apiPath+"/statistics", s.statistics)
	handle(cat, s.list)
	handle(cat+"/options", s.options)
	handle(cat+"/export", s.export)
	handle(cat+"/records/{id}", s.record)
	handle(cat+"/records/{id}/download", s.download)
	handle(gen, s.genome)
	handle(gen+"/contigs", s.contigs)
	handle(gen+"/download", s.genomeDownload)
	handle(gen+"/{entity}", s.genomeAnnotations)
	mux.Handle("GET /metrics", s.metrics.handler())

	return requestID(recovery(accessLog(mux)))
}
