package query

import (
	"cmp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/pkg/ent/model"
)

// Op is a predicate operator.
type Op int

const (
	// In matches a scalar field equal to one of the values.
	In Op = iota
	// Overlap matches a set field sharing at least one element with the
	// values.
	Overlap
	// Prefix matches a scalar field starting with the value.
	Prefix
	// Contains matches a set field having the value as an element.
	Contains
	// Base matches a qualified field whose base value is one of the
	// values.
	Base
)

// Condition is one predicate of a query.
type Condition struct {
	Field  string
	Kind   schema.Kind
	Op     Op
	Values []any
}

// Limits constrain page sizes.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Query is a validated request compiled against a family.
type Query struct {
	Family   *schema.Family
	Conds    []Condition
	Sort     Sort
	Page     int
	PageSize int

	// Unpaged queries return every matching record.
	Unpaged bool
}

// New validates a request and compiles it into a query.
func New(f *schema.Family, req Request, lim Limits) (*Query, error) {
	if lim.DefaultPageSize <= 0 {
		lim.DefaultPageSize = 20
	}
	if lim.MaxPageSize < lim.DefaultPageSize {
		lim.MaxPageSize = lim.DefaultPageSize
	}

	res := &Query{Family: f, Page: req.Page, PageSize: req.PageSize}
	switch {
	case res.Page == 0:
		res.Page = 1
	case res.Page < 0:
		return nil, invalid("page", "must be a positive number")
	}
	switch {
	case res.PageSize == 0:
		res.PageSize = lim.DefaultPageSize
	case res.PageSize < 0 || res.PageSize > lim.MaxPageSize:
		return nil, invalid("page_size", "must be between 1 and %d",
			lim.MaxPageSize)
	}

	fields := make([]string, 0, len(req.Filter))
	for k := range req.Filter {
		fields = append(fields, k)
	}
	slices.Sort(fields)
	for _, field := range fields {
		vals := req.Filter[field]
		if !f.Filterable(field) {
			return nil, invalid("filter", "unknown field %q", field)
		}
		if len(vals) == 0 {
			continue
		}
		c, _ := f.Column(field)
		cond := Condition{Field: field, Kind: c.Kind, Op: In}
		switch {
		case c.Kind == schema.Set:
			cond.Op = Overlap
		case c.Qualified:
			cond.Op = Base
		}
		for _, v := range vals {
			val, err := convert(c, v)
			if err != nil {
				return nil, invalid("filter", "field %s: %s", field, err)
			}
			cond.Values = append(cond.Values, val)
		}
		res.Conds = append(res.Conds, cond)
	}

	if val := strings.TrimSpace(req.Search.Value); val != "" {
		field := req.Search.Field
		if field == "" && len(f.Search) > 0 {
			field = f.Search[0]
		}
		if !f.Searchable(field) {
			return nil, invalid("search_field", "unknown field %q", field)
		}
		c, _ := f.Column(field)
		cond := Condition{Field: field, Kind: c.Kind, Op: Prefix,
			Values: []any{val}}
		if c.Kind == schema.Set {
			cond.Op = Contains
		}
		res.Conds = append(res.Conds, cond)
	}

	if req.Sort.Field != "" {
		if !f.Sortable(req.Sort.Field) {
			return nil, invalid("order_by", "unknown field %q", req.Sort.Field)
		}
		res.Sort = req.Sort
	}
	return res, nil
}

func convert(c schema.Column, v string) (any, error) {
	switch c.Kind {
	case schema.Int:
		return strconv.ParseInt(v, 10, 64)
	case schema.Float:
		return strconv.ParseFloat(v, 64)
	case schema.Strand:
		st, err := model.NewStrand(v)
		return string(st), err
	default:
		return v, nil
	}
}

// Where adds a fixed membership condition, for example restricting a
// listing to one genome or one parent record.
func (q *Query) Where(field string, values ...any) *Query {
	c, _ := q.Family.Column(field)
	op := In
	if c.Kind == schema.Set {
		op = Overlap
	}
	q.Conds = append(q.Conds,
		Condition{Field: field, Kind: c.Kind, Op: op, Values: values})
	return q
}

// All returns a copy of the query without pagination.
func (q *Query) All() *Query {
	res := *q
	res.Conds = slices.Clone(q.Conds)
	res.Unpaged = true
	return &res
}

// Offset is the number of records before the page.
func (q *Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Match evaluates the query conditions on a record in memory.
func (q *Query) Match(rec model.Record) bool {
	for _, c := range q.Conds {
		if !c.match(rec[c.Field]) {
			return false
		}
	}
	return true
}

func (c Condition) match(v any) bool {
	if v == nil {
		return false
	}
	switch c.Op {
	case In:
		for _, val := range c.Values {
			if equal(v, val) {
				return true
			}
		}
	case Overlap:
		set, _ := v.([]string)
		for _, val := range c.Values {
			if s, ok := val.(string); ok && slices.Contains(set, s) {
				return true
			}
		}
	case Prefix:
		s, ok := v.(string)
		p, _ := c.Values[0].(string)
		return ok && strings.HasPrefix(s, p)
	case Contains:
		set, _ := v.([]string)
		p, _ := c.Values[0].(string)
		return slices.Contains(set, p)
	case Base:
		s, ok := v.(string)
		if !ok {
			return false
		}
		s = schema.BaseValue(s)
		for _, val := range c.Values {
			if b, ok := val.(string); ok && b == s {
				return true
			}
		}
	}
	return false
}

func equal(a, b any) bool {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int64:
			return x == float64(y)
		}
	case string:
		y, ok := b.(string)
		return ok && x == y
	}
	return false
}

// SortRecords orders records the way the store does: by the explicit sort
// field with nulls first, then by id.
func (q *Query) SortRecords(recs []model.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if q.Sort.Field != "" {
			c := compare(recs[i][q.Sort.Field], recs[j][q.Sort.Field])
			if q.Sort.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return recs[i].ID() < recs[j].ID()
	})
}

func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	}
	return 0
}

// Paginate cuts one page out of a full, ordered match set.
func (q *Query) Paginate(recs []model.Record) []model.Record {
	if q.Unpaged {
		return recs
	}
	start := min(q.Offset(), len(recs))
	end := min(start+q.PageSize, len(recs))
	return recs[start:end]
}
