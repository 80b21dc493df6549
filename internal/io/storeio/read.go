package storeio

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/pkg/ent/model"
)

// Count returns the number of records matching the query conditions.
func (s *storeio) Count(ctx context.Context, q *query.Query) (int64, error) {
	where, args := s.dia.where(q.Conds, nil)
	sqlStr := "SELECT COUNT(*) FROM " + s.dia.quote(q.Family.Table) + " t" +
		where
	var res int64
	err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&res)
	if err != nil {
		slog.Error("Cannot count records", "table", q.Family.Table,
			"error", err)
		return 0, err
	}
	return res, nil
}

// List returns one page of records.
func (s *storeio) List(
	ctx context.Context,
	q *query.Query,
) ([]model.Record, error) {
	res := make([]model.Record, 0, q.PageSize)
	err := s.each(ctx, q, false, func(r model.Record) error {
		res = append(res, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Each streams all matching records without pagination.
func (s *storeio) Each(
	ctx context.Context,
	q *query.Query,
	fn func(model.Record) error,
) error {
	return s.each(ctx, q.All(), true, fn)
}

func (s *storeio) each(
	ctx context.Context,
	q *query.Query,
	stream bool,
	fn func(model.Record) error,
) error {
	cols := columns(q.Family)
	where, args := s.dia.where(q.Conds, nil)
	var limit string
	limit, args = s.dia.limit(q, args)
	sqlStr := s.selectSQL(q.Family, cols) + where + s.dia.orderBy(q.Sort) +
		limit

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		slog.Error("Cannot query records", "table", q.Family.Table,
			"error", err)
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if stream {
			if err = ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := scanRecord(rows, cols)
		if err != nil {
			slog.Error("Cannot scan record", "table", q.Family.Table,
				"error", err)
			return err
		}
		if err = fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Get returns a record by primary key.
func (s *storeio) Get(
	ctx context.Context,
	f *schema.Family,
	id int64,
) (model.Record, error) {
	cols := columns(f)
	sqlStr := s.selectSQL(f, cols) + " WHERE t." +
		s.dia.quote(schema.IDField) + " = " + s.dia.ph(1)
	rows, err := s.db.QueryContext(ctx, sqlStr, id)
	if err != nil {
		slog.Error("Cannot query record", "table", f.Table, "error", err)
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s record %d: %w", f.Entity, id,
			query.ErrNotFound)
	}
	return scanRecord(rows, cols)
}

// Distinct returns distinct values of a field, sets flattened.
func (s *storeio) Distinct(
	ctx context.Context,
	f *schema.Family,
	field string,
) ([]string, error) {
	c, ok := f.Column(field)
	if !ok {
		return nil, fmt.Errorf("unknown field %s of %s", field, f.Table)
	}
	col := "t." + s.dia.quote(c.Name)
	sqlStr := "SELECT DISTINCT " + s.dia.selectExpr(c) + " FROM " +
		s.dia.quote(f.Table) + " t WHERE " + col + " IS NOT NULL"
	rows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		slog.Error("Cannot query distinct values", "table", f.Table,
			"field", field, "error", err)
		return nil, err
	}
	defer rows.Close()

	var res []string
	seen := make(map[string]struct{})
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	for rows.Next() {
		var v sql.NullString
		if err = rows.Scan(&v); err != nil {
			return nil, err
		}
		if !v.Valid {
			continue
		}
		if c.Kind != schema.Set {
			add(v.String)
			continue
		}
		var ss []string
		if err = json.Unmarshal([]byte(v.String), &ss); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		for _, e := range ss {
			add(e)
		}
	}
	return res, rows.Err()
}

// columns returns all stored columns of a family including keys.
func columns(f *schema.Family) []schema.Column {
	res := make([]schema.Column, 0, len(f.Columns)+2)
	for _, name := range f.Fields() {
		c, _ := f.Column(name)
		res = append(res, c)
	}
	return res
}

func (s *storeio) selectSQL(f *schema.Family, cols []schema.Column) string {
	exprs := make([]string, len(cols))
	for i, c := range cols {
		exprs[i] = s.dia.selectExpr(c)
	}
	return "SELECT " + strings.Join(exprs, ", ") + " FROM " +
		s.dia.quote(f.Table) + " t"
}

func scanRecord(rows *sql.Rows, cols []schema.Column) (model.Record, error) {
	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c.Kind {
		case schema.Int:
			dest[i] = new(sql.NullInt64)
		case schema.Float:
			dest[i] = new(sql.NullFloat64)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	res := make(model.Record, len(cols))
	for i, c := range cols {
		var v any
		switch d := dest[i].(type) {
		case *sql.NullInt64:
			if d.Valid {
				v = d.Int64
			}
		case *sql.NullFloat64:
			if d.Valid {
				v = d.Float64
			}
		case *sql.NullString:
			if !d.Valid {
				break
			}
			switch c.Kind {
			case schema.Set:
				ss := []string{}
				if err := json.Unmarshal([]byte(d.String), &ss); err != nil {
					return nil, fmt.Errorf("field %s: %w", c.Name, err)
				}
				v = ss
			case schema.JSON:
				v = json.RawMessage(d.String)
			case schema.Strand:
				v = strings.TrimSpace(d.String)
			default:
				v = d.String
			}
		}
		res[c.Name] = v
	}
	return res, nil
}
