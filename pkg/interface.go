package genomcat

import (
	"context"

	"github.com/gnames/genomcat/internal/ent/build"
	"github.com/gnames/genomcat/internal/ent/dump"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/internal/ent/web"
)

// GenomCat is the set of offline and online operations of the catalog.
type GenomCat interface {
	// Migrate creates missing tables of the record store.
	Migrate(context.Context, store.Store) error

	// Import loads TSV exports into the record store. Without table names
	// it loads every family that has a source file.
	Import(ctx context.Context, b build.Builder, tables ...string) error

	// ImportFile loads one family from an explicit file.
	ImportFile(ctx context.Context, b build.Builder, table, path string) error

	// Materialize recomputes counts and filter options.
	Materialize(context.Context, stats.Materializer) error

	// Dump writes every non-empty family to CSV files.
	Dump(context.Context, dump.Dumper) error

	// Serve runs the HTTP API until the context is canceled.
	Serve(context.Context, web.Server) error
}
