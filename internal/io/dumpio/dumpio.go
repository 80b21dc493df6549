package dumpio

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/dump"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/gnsys"
)

type dumpio struct {
	cfg config.Config
	reg *schema.Registry
	st  store.Store
	cat catalog.Catalog
}

// New creates a Dumper that writes CSV files through the catalog export.
func New(
	cfg config.Config,
	reg *schema.Registry,
	st store.Store,
	cat catalog.Catalog,
) (dump.Dumper, error) {
	err := gnsys.MakeDir(cfg.DumpDir)
	if err != nil {
		slog.Error("Cannot create dump directory", "error", err)
		return nil, err
	}
	res := dumpio{cfg: cfg, reg: reg, st: st, cat: cat}
	return &res, nil
}

// Dump writes `{DumpDir}/{table}.csv` for every non-empty family.
func (d *dumpio) Dump(ctx context.Context) error {
	slog.Info("Dumping catalog to CSV files", "dir", d.cfg.DumpDir)

	var files int
	for _, f := range d.reg.Families() {
		q, err := query.New(f, query.Request{}, query.Limits{})
		if err != nil {
			return err
		}
		count, err := d.st.Count(ctx, q)
		if err != nil {
			return err
		}
		if count == 0 {
			continue
		}
		if err = d.dumpFamily(ctx, f); err != nil {
			return err
		}
		files++
	}

	slog.Info("CSV dump is created", "files", files)
	return nil
}

func (d *dumpio) dumpFamily(ctx context.Context, f *schema.Family) error {
	path := filepath.Join(d.cfg.DumpDir, f.Table+".csv")
	tmp := path + ".tmp"
	w, err := os.Create(tmp)
	if err != nil {
		slog.Error("Cannot create dump file", "path", tmp, "error", err)
		return err
	}

	n, err := d.cat.Export(ctx, f.Partition, f.Entity, query.Request{}, w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		slog.Error("Cannot dump family", "table", f.Table, "error", err)
		_ = os.Remove(tmp)
		return err
	}
	if err = os.Rename(tmp, path); err != nil {
		slog.Error("Cannot move dump file", "path", path, "error", err)
		return err
	}
	slog.Info("Dumped", "table", f.Table, "records", humanize.Comma(n))
	return nil
}
