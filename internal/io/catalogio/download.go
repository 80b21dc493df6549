package catalogio

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/fasta"
	"github.com/gnames/genomcat/internal/ent/files"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/pkg/ent/model"
)

const (
	csvType     = "text/csv"
	fastaType   = "text/x-fasta"
	gzipType    = "application/gzip"
	fastaWidth  = 60
	taxonPrefix = "taxonomy_"
)

// Download returns one record in the requested kind.
func (c *catalogio) Download(
	ctx context.Context,
	p model.Partition,
	entity string,
	id int64,
	kind string,
) (*catalog.Attachment, error) {
	f, err := c.family(p, entity)
	if err != nil {
		return nil, err
	}
	if err = checkKind(f, kind); err != nil {
		return nil, err
	}
	rec, err := c.st.Get(ctx, f, id)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, f, rec, kind)
}

// GenomeDownload returns a genome found by its unique id in the requested
// kind.
func (c *catalogio) GenomeDownload(
	ctx context.Context,
	p model.Partition,
	uid string,
	kind string,
) (*catalog.Attachment, error) {
	f, err := c.family(p, schema.Genome)
	if err != nil {
		return nil, err
	}
	if err = checkKind(f, kind); err != nil {
		return nil, err
	}
	rec, err := c.genome(ctx, f, uid)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, f, rec, kind)
}

func checkKind(f *schema.Family, kind string) error {
	if kind == "" {
		kind = schema.KindCSV
	}
	if !f.HasDownload(kind) {
		return &query.ValidationError{
			Field: "kind",
			Msg:   fmt.Sprintf("%q is not available for %s", kind, f.Entity),
		}
	}
	return nil
}

func (c *catalogio) download(
	ctx context.Context,
	f *schema.Family,
	rec model.Record,
	kind string,
) (*catalog.Attachment, error) {
	switch kind {
	case "", schema.KindCSV:
		body, err := csvBytes(f.CSV, f.CSVRow(rec))
		if err != nil {
			return nil, err
		}
		return attach(fileName(f, rec)+".csv", csvType, body), nil
	case schema.KindMeta:
		return c.meta(ctx, f, rec)
	case schema.KindFASTA:
		if f.Entity == schema.Genome {
			return c.archive(ctx, f, rec, kind)
		}
		return proteinFASTA(f, rec)
	default:
		return c.archive(ctx, f, rec, kind)
	}
}

// meta is a CSV with genome fields followed by taxonomy ranks.
func (c *catalogio) meta(
	ctx context.Context,
	f *schema.Family,
	rec model.Record,
) (*catalog.Attachment, error) {
	header := append([]string{}, f.CSV...)
	row := f.CSVRow(rec)

	tf, ok := c.reg.Lookup(f.Partition, schema.Taxonomy)
	if ok {
		tax, err := c.taxonomy(ctx, tf, rec.String(schema.UIDField))
		if err != nil {
			return nil, err
		}
		for _, col := range tf.Columns {
			if col.Name == schema.UIDField {
				continue
			}
			header = append(header, taxonPrefix+col.Name)
			row = append(row, col.Format(tax[col.Name]))
		}
	}
	body, err := csvBytes(header, row)
	if err != nil {
		return nil, err
	}
	name := rec.String(schema.UIDField) + "_meta.csv"
	return attach(name, csvType, body), nil
}

func proteinFASTA(f *schema.Family, rec model.Record) (*catalog.Attachment, error) {
	seq := rec.String("sequence")
	if seq == "" {
		return nil, fmt.Errorf("sequence of %s %d: %w", f.Table, rec.ID(),
			query.ErrNotFound)
	}
	fr := fasta.Record{
		ID: rec.String("protein_id"),
		Description: fmt.Sprintf("%s %s:%s-%s(%s)",
			rec.String(schema.UIDField),
			rec.String("contig_id"),
			rec.String("start_pos"),
			rec.String("end_pos"),
			rec.String("strand"),
		),
		Seq: seq,
	}
	var buf bytes.Buffer
	if err := fasta.Write(&buf, fr, fastaWidth); err != nil {
		return nil, err
	}
	return attach(fr.ID+".faa", fastaType, buf.Bytes()), nil
}

// archive streams a stored gzip file verbatim.
func (c *catalogio) archive(
	ctx context.Context,
	f *schema.Family,
	rec model.Record,
	kind string,
) (*catalog.Attachment, error) {
	uid := rec.String(schema.UIDField)
	key := files.ArchiveKey(f.Partition, kind, uid)
	rc, err := c.archives.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	res := catalog.Attachment{
		Name:        uid + "." + kind + ".gz",
		ContentType: gzipType,
		Body:        rc,
	}
	return &res, nil
}

func fileName(f *schema.Family, rec model.Record) string {
	if f.Entity == schema.Genome {
		return rec.String(schema.UIDField)
	}
	return f.Table + "_" + strconv.FormatInt(rec.ID(), 10)
}

func csvBytes(header, row []string) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll([][]string{header, row}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attach(name, contentType string, body []byte) *catalog.Attachment {
	return &catalog.Attachment{
		Name:        name,
		ContentType: contentType,
		Body:        io.NopCloser(bytes.NewReader(body)),
	}
}
