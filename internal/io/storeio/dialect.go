package storeio

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/pkg/config"
)

// dialect keeps SQL differences between supported engines.
type dialect struct {
	name string
}

func (d dialect) isPg() bool {
	return d.name == config.Postgres
}

func (d dialect) isMy() bool {
	return d.name == config.MySQL
}

// ph returns a placeholder for the n-th argument, starting from 1.
func (d dialect) ph(n int) string {
	if d.isPg() {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d dialect) quote(id string) string {
	if d.isMy() {
		return "`" + id + "`"
	}
	return `"` + id + `"`
}

func (d dialect) colType(k schema.Kind) string {
	switch k {
	case schema.Ident:
		if d.isMy() {
			return "VARCHAR(255)"
		}
		return "TEXT"
	case schema.Int:
		return "BIGINT"
	case schema.Float:
		switch d.name {
		case config.Postgres:
			return "DOUBLE PRECISION"
		case config.MySQL:
			return "DOUBLE"
		}
		return "REAL"
	case schema.Strand:
		return "CHAR(1)"
	case schema.Set:
		switch d.name {
		case config.Postgres:
			return "TEXT[]"
		case config.MySQL:
			return "JSON"
		}
		return "TEXT"
	case schema.JSON:
		switch d.name {
		case config.Postgres:
			return "JSONB"
		case config.MySQL:
			return "JSON"
		}
		return "TEXT"
	default:
		if d.isMy() {
			return "LONGTEXT"
		}
		return "TEXT"
	}
}

// selectExpr returns an expression reading a column from alias `t`.
// Postgres arrays and JSONB are read as JSON text.
func (d dialect) selectExpr(c schema.Column) string {
	col := "t." + d.quote(c.Name)
	if d.isPg() {
		switch c.Kind {
		case schema.Set:
			return "array_to_json(" + col + ")::text"
		case schema.JSON:
			return col + "::text"
		}
	}
	return col
}

// bind converts a record value into a driver argument.
func (d dialect) bind(c schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch c.Kind {
	case schema.Set:
		ss, ok := v.([]string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected a set, got %T", c.Name, v)
		}
		if d.isPg() {
			return ss, nil
		}
		bs, err := json.Marshal(ss)
		if err != nil {
			return nil, err
		}
		return string(bs), nil
	case schema.JSON:
		switch val := v.(type) {
		case json.RawMessage:
			return string(val), nil
		case string:
			return val, nil
		}
		bs, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(bs), nil
	}
	return v, nil
}

// where compiles query conditions into a WHERE clause. Arguments are
// appended to args.
func (d dialect) where(conds []query.Condition, args []any) (string, []any) {
	if len(conds) == 0 {
		return "", args
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		var s string
		s, args = d.cond(c, args)
		parts = append(parts, s)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func (d dialect) cond(c query.Condition, args []any) (string, []any) {
	col := "t." + d.quote(c.Field)
	next := func(v any) string {
		args = append(args, v)
		return d.ph(len(args))
	}
	list := func() string {
		phs := make([]string, len(c.Values))
		for i, v := range c.Values {
			phs[i] = next(v)
		}
		return strings.Join(phs, ", ")
	}

	switch c.Op {
	case query.In:
		return col + " IN (" + list() + ")", args
	case query.Base:
		return d.baseExpr(col) + " IN (" + list() + ")", args
	case query.Prefix:
		val, _ := c.Values[0].(string)
		n := utf8.RuneCountInString(val)
		return fmt.Sprintf("substr(%s, 1, %d) = %s", col, n, next(val)), args
	case query.Overlap:
		switch d.name {
		case config.Postgres:
			return col + " && " + next(strValues(c.Values)) + "::text[]", args
		case config.MySQL:
			bs, _ := json.Marshal(strValues(c.Values))
			return "JSON_OVERLAPS(" + col + ", CAST(" + next(string(bs)) +
				" AS JSON))", args
		}
		return "EXISTS (SELECT 1 FROM json_each(" + col +
			") WHERE json_each.value IN (" + list() + "))", args
	case query.Contains:
		switch d.name {
		case config.Postgres:
			return next(c.Values[0]) + " = ANY(" + col + ")", args
		case config.MySQL:
			return "JSON_CONTAINS(" + col + ", JSON_QUOTE(" + next(c.Values[0]) +
				"))", args
		}
		return "EXISTS (SELECT 1 FROM json_each(" + col +
			") WHERE json_each.value = " + next(c.Values[0]) + ")", args
	}
	return "1=0", args
}

// baseExpr cuts a value at its first `(` and trims spaces.
func (d dialect) baseExpr(col string) string {
	switch d.name {
	case config.Postgres:
		return "btrim(split_part(" + col + ", '(', 1))"
	case config.MySQL:
		return "TRIM(SUBSTRING_INDEX(" + col + ", '(', 1))"
	}
	return "trim(CASE WHEN instr(" + col + ", '(') > 0 THEN substr(" + col +
		", 1, instr(" + col + ", '(') - 1) ELSE " + col + " END)"
}

func strValues(vals []any) []string {
	res := make([]string, 0, len(vals))
	for _, v := range vals {
		res = append(res, fmt.Sprintf("%v", v))
	}
	return res
}

// orderBy returns the ORDER BY clause, explicit sort first and id as the
// tie-break. Nulls go first in ascending order on every engine.
func (d dialect) orderBy(s query.Sort) string {
	id := "t." + d.quote(schema.IDField)
	if s.Field == "" || s.Field == schema.IDField {
		if s.Desc {
			return " ORDER BY " + id + " DESC"
		}
		return " ORDER BY " + id
	}
	col := "t." + d.quote(s.Field)
	dir := " ASC"
	if s.Desc {
		dir = " DESC"
	}
	if d.isPg() {
		if s.Desc {
			dir += " NULLS LAST"
		} else {
			dir += " NULLS FIRST"
		}
	}
	return " ORDER BY " + col + dir + ", " + id
}

func (d dialect) limit(q *query.Query, args []any) (string, []any) {
	if q.Unpaged {
		return "", args
	}
	args = append(args, q.PageSize, q.Offset())
	return fmt.Sprintf(" LIMIT %s OFFSET %s", d.ph(len(args)-1),
		d.ph(len(args))), args
}
