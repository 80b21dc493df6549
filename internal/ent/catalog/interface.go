// Package catalog describes read access to the genome catalog: listings,
// records, downloads and cached statistics.
package catalog

import (
	"context"
	"io"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/pkg/ent/model"
)

// Catalog serves records of all entity families.
type Catalog interface {
	// List returns one page of records of a family.
	List(
		ctx context.Context,
		p model.Partition,
		entity string,
		req query.Request,
	) (query.Result, error)

	// Record returns one record by id. Parent records embed their children.
	Record(
		ctx context.Context,
		p model.Partition,
		entity string,
		id int64,
	) (model.Record, error)

	// Download returns one record in the requested kind.
	Download(
		ctx context.Context,
		p model.Partition,
		entity string,
		id int64,
		kind string,
	) (*Attachment, error)

	// Export writes all records matching a request as CSV, in the same
	// order as List.
	Export(
		ctx context.Context,
		p model.Partition,
		entity string,
		req query.Request,
		w io.Writer,
	) (int64, error)

	// Genome returns a genome with its taxonomy and annotation counts.
	Genome(ctx context.Context, p model.Partition, uid string) (*Genome, error)

	// GenomeDownload returns a genome in the requested kind.
	GenomeDownload(
		ctx context.Context,
		p model.Partition,
		uid string,
		kind string,
	) (*Attachment, error)

	// GenomeAnnotations lists annotations of one entity for one genome.
	GenomeAnnotations(
		ctx context.Context,
		p model.Partition,
		uid string,
		entity string,
		req query.Request,
	) (query.Result, error)

	// Contigs returns ids and lengths of genome sequences.
	Contigs(ctx context.Context, p model.Partition, uid string) ([]Contig, error)

	// Options returns materialized filter options of a family.
	Options(
		ctx context.Context,
		p model.Partition,
		entity string,
	) (stats.Options, error)

	// Statistics returns materialized row counts by table.
	Statistics(ctx context.Context) (map[string]int64, error)
}

// Attachment is a downloadable file.
type Attachment struct {
	// Name is the file name suggested to the client.
	Name string

	// ContentType of the body.
	ContentType string

	// Body is the file content. The caller closes it.
	Body io.ReadCloser
}

// Genome is a detailed genome view.
type Genome struct {
	Genome   model.Record     `json:"genome"`
	Taxonomy model.Record     `json:"taxonomy"`
	Counts   map[string]int64 `json:"counts"`
}

// Contig is one sequence of a genome assembly.
type Contig struct {
	ID     string `json:"id"`
	Length int    `json:"length"`
}

// CountField is the name of a genome count of an entity.
func CountField(entity string) string {
	return entity + "_count"
}
