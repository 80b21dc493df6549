package catalogio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/fasta"
	"github.com/gnames/genomcat/internal/ent/files"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/io/tsvio"
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/klauspost/compress/gzip"
)

// genome finds a genome record by its unique id.
func (c *catalogio) genome(
	ctx context.Context,
	f *schema.Family,
	uid string,
) (model.Record, error) {
	rec, err := c.byUID(ctx, f, uid)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		slog.Debug("Genome not found", "table", f.Table, "unique_id", uid)
		return nil, fmt.Errorf("genome %s: %w", uid, query.ErrNotFound)
	}
	return rec, nil
}

// taxonomy returns the taxonomy record of a genome or nil.
func (c *catalogio) taxonomy(
	ctx context.Context,
	f *schema.Family,
	uid string,
) (model.Record, error) {
	return c.byUID(ctx, f, uid)
}

func (c *catalogio) byUID(
	ctx context.Context,
	f *schema.Family,
	uid string,
) (model.Record, error) {
	q, err := query.New(f, query.Request{PageSize: 1}, c.lim)
	if err != nil {
		return nil, err
	}
	recs, err := c.st.List(ctx, q.Where(schema.UIDField, uid))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// Genome returns a genome, its taxonomy and counts of its annotations.
// Sidecar families are counted from sidecar files, a missing file counts
// as zero. Other families are counted in the store.
func (c *catalogio) Genome(
	ctx context.Context,
	p model.Partition,
	uid string,
) (*catalog.Genome, error) {
	gf, err := c.family(p, schema.Genome)
	if err != nil {
		return nil, err
	}
	rec, err := c.genome(ctx, gf, uid)
	if err != nil {
		return nil, err
	}
	res := catalog.Genome{Genome: rec, Counts: make(map[string]int64)}

	if tf, ok := c.reg.Lookup(p, schema.Taxonomy); ok {
		if res.Taxonomy, err = c.taxonomy(ctx, tf, uid); err != nil {
			return nil, err
		}
	}

	for _, f := range c.reg.Partition(p) {
		if !annotation(f) {
			continue
		}
		var count int64
		if c.isSidecar(f) {
			count, err = c.sidecarCount(ctx, f, uid)
		} else {
			var q *query.Query
			q, err = query.New(f, query.Request{}, c.lim)
			if err == nil {
				count, err = c.st.Count(ctx, q.Where(schema.UIDField, uid))
			}
		}
		if err != nil {
			return nil, err
		}
		res.Counts[catalog.CountField(f.Entity)] = count
	}
	return &res, nil
}

// annotation families are per-genome families other than genome and
// taxonomy.
func annotation(f *schema.Family) bool {
	if f.IsChild() || !f.HasColumn(schema.UIDField) {
		return false
	}
	return f.Entity != schema.Genome && f.Entity != schema.Taxonomy
}

func (c *catalogio) isSidecar(f *schema.Family) bool {
	return f.SidecarKind != "" && c.cfg.IsSidecar(f.Table)
}

// sidecarCount counts records of a sidecar file. Families with a natural
// key count distinct keys, the way the store keeps one parent per key.
func (c *catalogio) sidecarCount(
	ctx context.Context,
	f *schema.Family,
	uid string,
) (int64, error) {
	if len(f.DedupKey) > 0 {
		recs, err := c.sidecarRecords(ctx, f, uid)
		return int64(len(recs)), err
	}
	rc, err := c.sidecars.Open(ctx, files.SidecarKey(f.Partition, f.SidecarKind, uid))
	if errors.Is(err, query.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	count, err := tsvio.CountRows(rc)
	if err != nil {
		slog.Error("Cannot read sidecar file", "table", f.Table,
			"unique_id", uid, "error", err)
		return 0, err
	}
	return int64(count), nil
}

// GenomeAnnotations lists annotations of one genome. Sidecar families are
// read from the sidecar file and filtered in memory with the same
// semantics as the store.
func (c *catalogio) GenomeAnnotations(
	ctx context.Context,
	p model.Partition,
	uid string,
	entity string,
	req query.Request,
) (query.Result, error) {
	var res query.Result
	f, err := c.family(p, entity)
	if err != nil {
		return res, err
	}
	if !annotation(f) {
		return res, fmt.Errorf("%s annotations: %w", entity, query.ErrNotFound)
	}
	q, err := query.New(f, req, c.lim)
	if err != nil {
		return res, err
	}
	if !c.isSidecar(f) {
		return c.page(ctx, q.Where(schema.UIDField, uid))
	}

	recs, err := c.sidecarRecords(ctx, f, uid)
	if err != nil {
		return res, err
	}
	matched := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		if q.Match(r) {
			matched = append(matched, r)
		}
	}
	q.SortRecords(matched)
	return query.NewResult(q, q.Paginate(matched), int64(len(matched))), nil
}

// sidecarRecords decodes a sidecar file. Ids are data line numbers.
// Families with a natural key keep the first row of every key.
func (c *catalogio) sidecarRecords(
	ctx context.Context,
	f *schema.Family,
	uid string,
) ([]model.Record, error) {
	rc, err := c.sidecars.Open(ctx, files.SidecarKey(f.Partition, f.SidecarKind, uid))
	if errors.Is(err, query.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var res []model.Record
	seen := make(map[string]struct{})
	_, err = tsvio.Scan(rc, func(row tsvio.Row) error {
		rec, err := f.Decode(row.Get)
		if err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}
		if rec[schema.UIDField] == nil {
			rec[schema.UIDField] = uid
		}
		if len(f.DedupKey) > 0 {
			key := f.Key(rec)
			if _, ok := seen[key]; ok {
				return nil
			}
			seen[key] = struct{}{}
		}
		rec[schema.IDField] = int64(row.Line - 1)
		res = append(res, rec)
		return nil
	})
	if err != nil {
		slog.Error("Cannot read sidecar file", "table", f.Table,
			"unique_id", uid, "error", err)
		return nil, err
	}
	return res, nil
}

// Contigs decodes the archived FASTA file of a genome.
func (c *catalogio) Contigs(
	ctx context.Context,
	p model.Partition,
	uid string,
) ([]catalog.Contig, error) {
	rc, err := c.archives.Open(ctx, files.ArchiveKey(p, schema.KindFASTA, uid))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	if err != nil {
		slog.Error("Cannot decompress FASTA", "unique_id", uid, "error", err)
		return nil, fmt.Errorf("archived FASTA of %s: %w", uid, err)
	}
	defer gz.Close()

	res := make([]catalog.Contig, 0)
	r := fasta.NewReader(gz)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			slog.Error("Cannot decode FASTA", "unique_id", uid, "error", err)
			return nil, fmt.Errorf("archived FASTA of %s: %w", uid, err)
		}
		res = append(res, catalog.Contig{ID: rec.ID, Length: rec.Len})
	}
}
