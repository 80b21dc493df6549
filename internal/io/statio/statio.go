// Package statio implements stats.Materializer.
package statio

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/gnames/gnfmt"
	"golang.org/x/sync/errgroup"
)

type statio struct {
	cfg config.Config
	reg *schema.Registry
	st  store.Store
	enc gnfmt.Encoder
}

// New creates a Materializer.
func New(
	cfg config.Config,
	reg *schema.Registry,
	st store.Store,
) stats.Materializer {
	return &statio{cfg: cfg, reg: reg, st: st, enc: gnfmt.GNjson{}}
}

// Materialize computes counts and filter options of all families and
// replaces the statistics table with them.
func (s *statio) Materialize(ctx context.Context) error {
	fams := s.reg.Families()
	res := make([][]model.Statistic, len(fams))

	var mu sync.Mutex
	var done int
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.JobsNum)
	for i, f := range fams {
		g.Go(func() error {
			sts, err := s.family(gctx, f)
			if err != nil {
				return err
			}
			res[i] = sts
			mu.Lock()
			done++
			if done%20 == 0 {
				slog.Info("Materializing", "families", done, "of", len(fams))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("Cannot compute statistics", "error", err)
		return err
	}

	var all []model.Statistic
	for _, sts := range res {
		all = append(all, sts...)
	}
	if err := s.st.ReplaceStatistics(ctx, all); err != nil {
		return err
	}
	slog.Info("Statistics materialized", "rows", len(all))
	return nil
}

func (s *statio) family(
	ctx context.Context,
	f *schema.Family,
) ([]model.Statistic, error) {
	count, err := s.count(ctx, f)
	if err != nil {
		return nil, err
	}
	res := []model.Statistic{{
		Name:    stats.CountKey(f.Table),
		Payload: strconv.FormatInt(count, 10),
	}}

	opts, err := s.options(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return res, nil
	}
	payload, err := s.enc.Encode(opts)
	if err != nil {
		slog.Error("Cannot encode filter options", "table", f.Table,
			"error", err)
		return nil, err
	}
	res = append(res, model.Statistic{
		Name:    stats.OptionsKey(f.Table),
		Payload: string(payload),
	})
	return res, nil
}

// count takes sidecar counts from configuration and counts other
// families in the store.
func (s *statio) count(ctx context.Context, f *schema.Family) (int64, error) {
	if s.cfg.IsSidecar(f.Table) {
		res, ok := s.cfg.StaticCounts[f.Table]
		if !ok {
			slog.Warn("No static count for sidecar family", "table", f.Table)
		}
		return res, nil
	}

	q, err := query.New(f, query.Request{}, query.Limits{})
	if err != nil {
		return 0, err
	}
	res, err := s.st.Count(ctx, q)
	if err != nil {
		return 0, err
	}
	if s.cfg.SidecarRowCeiling > 0 && res > s.cfg.SidecarRowCeiling {
		slog.Warn("Family exceeds sidecar row ceiling, consider serving it "+
			"from sidecar files",
			"table", f.Table,
			"rows", humanize.Comma(res),
			"ceiling", humanize.Comma(s.cfg.SidecarRowCeiling),
		)
	}
	return res, nil
}

// options collects ordered distinct values of categorical filter fields.
func (s *statio) options(
	ctx context.Context,
	f *schema.Family,
) (stats.Options, error) {
	res := make(stats.Options)
	for _, field := range f.Filter {
		c, ok := f.Column(field)
		if !ok || !c.Kind.Categorical() {
			continue
		}
		vals, err := s.st.Distinct(ctx, f, field)
		if err != nil {
			return nil, err
		}
		vals = stats.Normalize(c, vals)
		if len(vals) == 0 {
			continue
		}
		stats.Order(f.Entity, field, vals)
		res[field] = vals
	}
	return res, nil
}
