package buildio

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/genomcat/internal/ent/build"
	"github.com/gnames/genomcat/internal/ent/kv"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/internal/io/tsvio"
	"github.com/gnames/genomcat/pkg/ent/model"
	"golang.org/x/sync/errgroup"
)

// progressStep is the number of rows between progress log messages.
const progressStep = 100_000

// mapper converts a chunk of source rows to records with assigned ids.
type mapper func([]tsvio.Row) ([]model.Record, error)

// importFamily replaces a family, and its child family if any, with the
// content of a source file.
func (b *buildio) importFamily(
	ctx context.Context,
	f *schema.Family,
	path string,
) (err error) {
	slog.Info("Importing", "table", f.Table, "path", path)
	r, err := tsvio.Open(path, b.cfg.BatchSize)
	if err != nil {
		slog.Error("Cannot open source file", "path", path, "error", err)
		return err
	}

	if miss := f.Missing(r.Header()); len(miss) > 0 {
		err = &build.SchemaDriftError{Table: f.Table, Path: path, Missing: miss}
		slog.Error("Source schema drift", "table", f.Table, "error", err)
		return err
	}

	fams := []*schema.Family{f}
	if f.Child != nil {
		fams = append(fams, f.Child)
	}
	rep, err := b.st.Replace(ctx, fams...)
	if err != nil {
		slog.Error("Cannot start replacement", "table", f.Table, "error", err)
		return err
	}
	defer func() {
		if err != nil {
			if aerr := rep.Abort(context.Background()); aerr != nil {
				slog.Error("Cannot drop staging tables", "table", f.Table,
					"error", aerr)
			}
		}
	}()

	counts := make(map[string]int64)
	if f.Child == nil {
		counts[f.Table], err = b.pass(ctx, r, rep, f, singleMapper(f))
		if err != nil {
			return err
		}
	} else {
		if err = b.twoPass(ctx, r, rep, f, counts); err != nil {
			return err
		}
	}

	if err = rep.Commit(ctx); err != nil {
		slog.Error("Cannot commit replacement", "table", f.Table, "error", err)
		return err
	}

	for _, fam := range fams {
		st := model.Statistic{
			Name:    stats.CountKey(fam.Table),
			Payload: strconv.FormatInt(counts[fam.Table], 10),
		}
		if err = b.st.SaveStatistic(ctx, st); err != nil {
			return err
		}
		slog.Info("Imported", "table", fam.Table,
			"records", humanize.Comma(counts[fam.Table]))
	}
	return nil
}

// twoPass imports parents deduplicated by their natural key, then reads the
// file again to import one child per row linked through the key index.
func (b *buildio) twoPass(
	ctx context.Context,
	r *tsvio.Reader,
	rep store.Replacement,
	f *schema.Family,
	counts map[string]int64,
) error {
	idx, err := b.keyIndex(f)
	if err != nil {
		return err
	}
	if err = idx.Open(); err != nil {
		slog.Error("Cannot open key index", "table", f.Table, "error", err)
		return err
	}
	defer func() {
		if err := idx.Close(); err != nil {
			slog.Warn("Cannot close key index", "table", f.Table, "error", err)
		}
		removeKeyIndex(b.cfg, f)
	}()

	counts[f.Table], err = b.pass(ctx, r, rep, f, parentMapper(f, idx))
	if err != nil {
		return err
	}
	counts[f.Child.Table], err = b.pass(ctx, r, rep, f.Child, childMapper(f, idx))
	return err
}

// pass runs the loader, worker and db goroutines over the whole file.
func (b *buildio) pass(
	ctx context.Context,
	r *tsvio.Reader,
	rep store.Replacement,
	f *schema.Family,
	m mapper,
) (int64, error) {
	chIn := make(chan []tsvio.Row)
	chOut := make(chan []model.Record)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chIn)
		return r.Chunks(ctx, chIn)
	})

	g.Go(func() error {
		defer close(chOut)
		for rows := range chIn {
			recs, err := m(rows)
			if err != nil {
				err = fmt.Errorf("%s: %w", r.Path(), err)
				slog.Error("Cannot convert rows", "table", f.Table,
					"error", err)
				return err
			}
			if len(recs) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case chOut <- recs:
			}
		}
		return nil
	})

	var total int64
	g.Go(func() error {
		var logged int64
		timeStart := time.Now()
		for recs := range chOut {
			saved, err := rep.Insert(ctx, f, recs)
			if err != nil {
				slog.Error("Cannot save chunk", "table", f.Table, "error", err)
				return err
			}
			total += saved
			if total-logged < progressStep {
				continue
			}
			logged = total
			speed := int64(float64(total) / time.Since(timeStart).Seconds())
			slog.Info("Uploading", "table", f.Table,
				"records", humanize.Comma(total),
				"records/sec", humanize.Comma(speed))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

func rowErr(row tsvio.Row, err error) error {
	return fmt.Errorf("line %d: %w", row.Line, err)
}

// singleMapper assigns sequential ids to every row.
func singleMapper(f *schema.Family) mapper {
	var id int64
	return func(rows []tsvio.Row) ([]model.Record, error) {
		res := make([]model.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := f.Decode(row.Get)
			if err != nil {
				return nil, rowErr(row, err)
			}
			id++
			rec[schema.IDField] = id
			res = append(res, rec)
		}
		return res, nil
	}
}

// parentMapper keeps the first row of every natural key.
func parentMapper(f *schema.Family, idx kv.KeyIndex) mapper {
	var id int64
	return func(rows []tsvio.Row) ([]model.Record, error) {
		res := make([]model.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := f.Decode(row.Get)
			if err != nil {
				return nil, rowErr(row, err)
			}
			added, err := idx.Add(f.Key(rec), id+1)
			if err != nil {
				return nil, rowErr(row, err)
			}
			if !added {
				continue
			}
			id++
			rec[schema.IDField] = id
			res = append(res, rec)
		}
		return res, nil
	}
}

// childMapper makes a child record of every row and resolves its parent id
// from the key index.
func childMapper(f *schema.Family, idx kv.KeyIndex) mapper {
	var id int64
	return func(rows []tsvio.Row) ([]model.Record, error) {
		res := make([]model.Record, len(rows))
		for i, row := range rows {
			parent, err := f.Decode(row.Get)
			if err != nil {
				return nil, rowErr(row, err)
			}
			key := f.Key(parent)
			pid, ok, err := idx.Get(key)
			if err != nil {
				return nil, rowErr(row, err)
			}
			if !ok {
				return nil, rowErr(row, fmt.Errorf("no parent for key %q", key))
			}
			rec, err := f.Child.Decode(row.Get)
			if err != nil {
				return nil, rowErr(row, err)
			}
			id++
			rec[schema.IDField] = id
			rec[schema.ParentField] = pid
			res[i] = rec
		}
		return res, nil
	}
}
