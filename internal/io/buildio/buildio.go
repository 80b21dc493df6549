package buildio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnames/genomcat/internal/ent/build"
	"github.com/gnames/genomcat/internal/ent/kv"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/internal/io/kvio"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/gnsys"
	"golang.org/x/sync/errgroup"
)

// buildio is a struct that implements build.Builder interface.
type buildio struct {
	cfg config.Config
	reg *schema.Registry
	st  store.Store
}

// New returns a new instance of Builder
func New(
	cfg config.Config,
	reg *schema.Registry,
	st store.Store,
) build.Builder {
	return &buildio{cfg: cfg, reg: reg, st: st}
}

// Build imports families from TSV files under the input directory.
func (b *buildio) Build(ctx context.Context, tables ...string) error {
	fams, err := b.families(tables)
	if err != nil {
		return err
	}
	if len(fams) == 0 {
		slog.Warn("No source files found", "dir", b.cfg.InputDir)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.JobsNum)
	for _, f := range fams {
		path, ok := b.sourcePath(f)
		if !ok {
			err = fmt.Errorf("no source file for %s in %s", f.Table,
				b.cfg.InputDir)
			slog.Error("Cannot find source file", "table", f.Table,
				"error", err)
			return err
		}
		g.Go(func() error {
			return b.importFamily(ctx, f, path)
		})
	}
	if err = g.Wait(); err != nil {
		slog.Error("Import failed", "error", err)
		return err
	}
	slog.Info("Import completed", "families", len(fams))
	return nil
}

// BuildFile imports one family from an explicit file.
func (b *buildio) BuildFile(ctx context.Context, table, path string) error {
	fams, err := b.families([]string{table})
	if err != nil {
		return err
	}
	return b.importFamily(ctx, fams[0], path)
}

// families resolves table names. Without names it returns all parent
// families with existing source files.
func (b *buildio) families(tables []string) ([]*schema.Family, error) {
	if len(tables) > 0 {
		fams, err := b.reg.Tables(tables...)
		if err != nil {
			return nil, err
		}
		for _, f := range fams {
			if f.IsChild() {
				return nil, fmt.Errorf(
					"%s is imported together with %s", f.Table, f.Parent.Table,
				)
			}
		}
		return fams, nil
	}

	var res []*schema.Family
	for _, f := range b.reg.Families() {
		if f.IsChild() {
			continue
		}
		if _, ok := b.sourcePath(f); ok {
			res = append(res, f)
		}
	}
	return res, nil
}

// sourcePath finds `{InputDir}/{Taxon}/{MAG}/{entity}.tsv[.gz]`.
func (b *buildio) sourcePath(f *schema.Family) (string, bool) {
	dir := filepath.Join(
		b.cfg.InputDir, f.Partition.Taxon.Dir(), f.Partition.MAG.Dir(),
	)
	for _, ext := range []string{".tsv", ".tsv.gz"} {
		path := filepath.Join(dir, f.File+ext)
		if ok, _ := gnsys.FileExists(path); ok {
			return path, true
		}
	}
	return "", false
}

// keyIndex creates a key index for a two-pass import.
func (b *buildio) keyIndex(f *schema.Family) (kv.KeyIndex, error) {
	if b.cfg.KeyIndex == config.KeyIndexBadger {
		return kvio.New(filepath.Join(b.cfg.KeyIndexDir, f.Table))
	}
	return kvio.NewMemory(), nil
}

func removeKeyIndex(cfg config.Config, f *schema.Family) {
	if cfg.KeyIndex != config.KeyIndexBadger {
		return
	}
	_ = os.RemoveAll(filepath.Join(cfg.KeyIndexDir, f.Table))
}
