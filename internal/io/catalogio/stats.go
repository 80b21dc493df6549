package catalogio

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/gnames/gnfmt"
)

const countsKey = "counts"

// Options returns materialized filter options of a family. A family
// without materialized options has none.
func (c *catalogio) Options(
	ctx context.Context,
	p model.Partition,
	entity string,
) (stats.Options, error) {
	f, err := c.family(p, entity)
	if err != nil {
		return nil, err
	}
	if res, ok := c.options.Get(f.Table); ok {
		return res, nil
	}

	res := make(stats.Options)
	st, err := c.st.Statistic(ctx, stats.OptionsKey(f.Table))
	switch {
	case errors.Is(err, query.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		enc := gnfmt.GNjson{}
		if err = enc.Decode([]byte(st.Payload), &res); err != nil {
			slog.Error("Cannot decode filter options", "table", f.Table,
				"error", err)
			return nil, err
		}
	}
	c.options.Add(f.Table, res)
	return res, nil
}

// Statistics returns materialized row counts by table.
func (c *catalogio) Statistics(ctx context.Context) (map[string]int64, error) {
	if res, ok := c.counts.Get(countsKey); ok {
		return res, nil
	}
	sts, err := c.st.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	res := make(map[string]int64)
	for _, st := range sts {
		table, ok := stats.CountTable(st.Name)
		if !ok {
			continue
		}
		count, err := strconv.ParseInt(st.Payload, 10, 64)
		if err != nil {
			slog.Warn("Malformed count", "name", st.Name, "payload", st.Payload)
			continue
		}
		res[table] = count
	}
	c.counts.Add(countsKey, res)
	return res, nil
}
