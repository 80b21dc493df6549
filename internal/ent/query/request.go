package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is a list request for one entity family.
type Request struct {
	// Page is a 1-based page number. Zero means the first page.
	Page int

	// PageSize is the number of records on a page. Zero means the default.
	PageSize int

	// Filter holds structured predicates.
	Filter Filter

	// Search is an optional free-text search bound to one field.
	Search Search

	// Sort is an optional explicit ordering.
	Sort Sort
}

// Search is a single search token bound to a field.
type Search struct {
	Field string
	Value string
}

// Sort is an ordering by one field.
type Sort struct {
	Field string
	Desc  bool
}

// Filter maps field names to accepted values. Values of one field are
// alternatives, different fields are combined with AND.
type Filter map[string][]string

// ParseFilter reads a filter from a JSON object. Values are a scalar or an
// array of scalars. Nulls, empty strings and empty arrays are dropped.
func ParseFilter(s string) (Filter, error) {
	res := make(Filter)
	s = strings.TrimSpace(s)
	if s == "" {
		return res, nil
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, invalid("filter", "not a JSON object: %s", err)
	}

	for k, v := range raw {
		var vals []any
		switch val := v.(type) {
		case []any:
			vals = val
		default:
			vals = []any{val}
		}
		for _, e := range vals {
			str, err := scalar(e)
			if err != nil {
				return nil, invalid("filter", "field %s: %s", k, err)
			}
			if str == "" {
				continue
			}
			res[k] = append(res[k], str)
		}
	}
	return res, nil
}

func scalar(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case json.Number:
		return val.String(), nil
	case bool:
		return fmt.Sprintf("%t", val), nil
	default:
		return "", fmt.Errorf("values must be scalars or arrays of scalars")
	}
}

// Add appends values to a field.
func (f Filter) Add(field string, values ...string) Filter {
	f[field] = append(f[field], values...)
	return f
}
