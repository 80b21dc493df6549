// Package catalogio implements catalog.Catalog on top of the record store
// and the sidecar and archive file stores.
package catalogio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/files"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// flushStep is the number of exported rows between flushes.
const flushStep = 1000

type catalogio struct {
	cfg      config.Config
	reg      *schema.Registry
	st       store.Store
	sidecars files.Store
	archives files.Store
	lim      query.Limits

	options *expirable.LRU[string, stats.Options]
	counts  *expirable.LRU[string, map[string]int64]
}

// New creates a Catalog.
func New(
	cfg config.Config,
	reg *schema.Registry,
	st store.Store,
	sidecars files.Store,
	archives files.Store,
) catalog.Catalog {
	res := catalogio{
		cfg:      cfg,
		reg:      reg,
		st:       st,
		sidecars: sidecars,
		archives: archives,
		lim: query.Limits{
			DefaultPageSize: cfg.PageSize,
			MaxPageSize:     cfg.MaxPageSize,
		},
		options: expirable.NewLRU[string, stats.Options](256, nil, cfg.StatsTTL),
		counts:  expirable.NewLRU[string, map[string]int64](1, nil, cfg.StatsTTL),
	}
	return &res
}

func (c *catalogio) family(p model.Partition, entity string) (*schema.Family, error) {
	f, ok := c.reg.Lookup(p, entity)
	if !ok {
		slog.Debug("Unknown family", "partition", p.String(), "entity", entity)
		return nil, fmt.Errorf("entity %s in %s: %w", entity, p, query.ErrNotFound)
	}
	return f, nil
}

// List returns one page of records of a family.
func (c *catalogio) List(
	ctx context.Context,
	p model.Partition,
	entity string,
	req query.Request,
) (query.Result, error) {
	var res query.Result
	f, err := c.family(p, entity)
	if err != nil {
		return res, err
	}
	q, err := query.New(f, req, c.lim)
	if err != nil {
		return res, err
	}
	return c.page(ctx, q)
}

func (c *catalogio) page(ctx context.Context, q *query.Query) (query.Result, error) {
	var res query.Result
	total, err := c.st.Count(ctx, q)
	if err != nil {
		return res, err
	}
	recs, err := c.st.List(ctx, q)
	if err != nil {
		return res, err
	}
	return query.NewResult(q, recs, total), nil
}

// Record returns one record. Records of parent families carry their
// children under the family ChildField.
func (c *catalogio) Record(
	ctx context.Context,
	p model.Partition,
	entity string,
	id int64,
) (model.Record, error) {
	f, err := c.family(p, entity)
	if err != nil {
		return nil, err
	}
	rec, err := c.st.Get(ctx, f, id)
	if err != nil {
		return nil, err
	}
	if f.Child == nil {
		return rec, nil
	}

	q, err := query.New(f.Child, query.Request{}, c.lim)
	if err != nil {
		return nil, err
	}
	q.Where(schema.ParentField, id)
	children := make([]model.Record, 0)
	err = c.st.Each(ctx, q, func(ch model.Record) error {
		children = append(children, ch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec[f.ChildField] = children
	return rec, nil
}

// Export streams all matching records as CSV. Request validation happens
// before anything is written.
func (c *catalogio) Export(
	ctx context.Context,
	p model.Partition,
	entity string,
	req query.Request,
	w io.Writer,
) (int64, error) {
	f, err := c.family(p, entity)
	if err != nil {
		return 0, err
	}
	q, err := query.New(f, req, c.lim)
	if err != nil {
		return 0, err
	}
	return exportCSV(ctx, c.st, q, w)
}

// exportCSV writes the CSV header of a family and every record of a query.
func exportCSV(
	ctx context.Context,
	st store.Store,
	q *query.Query,
	w io.Writer,
) (int64, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(q.Family.CSV); err != nil {
		return 0, err
	}

	var count int64
	err := st.Each(ctx, q, func(rec model.Record) error {
		if err := cw.Write(q.Family.CSVRow(rec)); err != nil {
			return err
		}
		count++
		if count%flushStep == 0 {
			cw.Flush()
			return cw.Error()
		}
		return nil
	})
	if err != nil {
		slog.Error("Cannot export records", "table", q.Family.Table,
			"error", err)
		return count, err
	}
	cw.Flush()
	return count, cw.Error()
}
