package genomcat

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnames/genomcat/internal/ent/build"
	"github.com/gnames/genomcat/internal/ent/dump"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/internal/ent/web"
	"github.com/gnames/genomcat/pkg/config"
)

// genomcat is an implementation of GenomCat interface.
type genomcat struct {
	cfg config.Config
}

// New creates a new instance of GenomCat.
func New(
	cfg config.Config,
) GenomCat {
	res := genomcat{
		cfg: cfg}
	return &res
}

// Migrate creates missing tables.
func (g *genomcat) Migrate(ctx context.Context, st store.Store) error {
	return st.Migrate(ctx)
}

// Import loads TSV exports into the record store.
func (g *genomcat) Import(
	ctx context.Context,
	b build.Builder,
	tables ...string,
) error {
	start := time.Now()
	err := b.Build(ctx, tables...)
	if err != nil {
		return err
	}
	slog.Info("Import finished", "duration", time.Since(start).Round(time.Second))
	return nil
}

// ImportFile loads one family from a file.
func (g *genomcat) ImportFile(
	ctx context.Context,
	b build.Builder,
	table, path string,
) error {
	return b.BuildFile(ctx, table, path)
}

// Materialize recomputes counts and filter options.
func (g *genomcat) Materialize(ctx context.Context, m stats.Materializer) error {
	return m.Materialize(ctx)
}

// Dump writes CSV files.
func (g *genomcat) Dump(ctx context.Context, d dump.Dumper) error {
	return d.Dump(ctx)
}

// Serve runs the HTTP API.
func (g *genomcat) Serve(ctx context.Context, s web.Server) error {
	return s.Run(ctx)
}
