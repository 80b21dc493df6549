package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gnames/genomcat/pkg/ent/model"
)

// Kind determines how a source cell is coerced, stored and queried.
type Kind int

const (
	// Ident is a short identifier, indexed and searched by prefix.
	Ident Kind = iota
	// Text is free text.
	Text
	// Int is a 64-bit integer.
	Int
	// Float is a 64-bit float.
	Float
	// Strand is a two-valued DNA strand.
	Strand
	// Set is an ordered set of strings, filtered by overlap and searched by
	// containment.
	Set
	// JSON is a structured value.
	JSON
)

var kindNames = []string{"ident", "text", "int", "float", "strand", "set",
	"json"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Categorical tells if distinct values of the kind make a meaningful list
// of filter options.
func (k Kind) Categorical() bool {
	switch k {
	case Ident, Text, Strand, Set:
		return true
	}
	return false
}

// Numeric is true for Int and Float.
func (k Kind) Numeric() bool {
	return k == Int || k == Float
}

// nullTokens are cell values that mean "no value" in the exports.
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"-":    {},
	"None": {},
	"nan":  {},
}

// IsNull checks if a cell is one of the tokens used for missing values.
func IsNull(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// DeriveFunc computes a fallback value of a column out of another
// column's value.
type DeriveFunc func(string) string

// Column describes one field of an entity family.
type Column struct {
	// Name is the field name in the store and in responses.
	Name string

	// Source is the header of the column in the source file. Empty means
	// the same as Name.
	Source string

	// Kind of the column.
	Kind Kind

	// Required columns must be present in the source header.
	Required bool

	// Fallback is used as a raw cell value when an optional column is
	// absent from the source header.
	Fallback string

	// Sep separates elements of a Set column. A word separator (for
	// example "or") only splits on whole words.
	Sep string

	// DeriveFrom names a column whose value goes through Derive when this
	// column ends up empty.
	DeriveFrom string

	// Derive computes the value of the column from DeriveFrom.
	Derive DeriveFunc

	// Qualified values may end with a parenthetical qualifier, for example
	// `Ala (GCA)`. Filters and filter options use their BaseValue.
	Qualified bool
}

// BaseValue removes a parenthetical qualifier and everything after it.
func BaseValue(s string) string {
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, " ")
}

// SourceName returns the header name in the source file.
func (c Column) SourceName() string {
	if c.Source != "" {
		return c.Source
	}
	return c.Name
}

// Coerce converts a raw cell into the Go value stored for the column.
// Empty values are returned as nil.
func (c Column) Coerce(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch c.Kind {
	case Ident, Text:
		if s == "" {
			return nil, nil
		}
		return s, nil
	case Strand:
		if s == "" || s == "NA" || s == "None" || s == "N/A" {
			return nil, nil
		}
		st, err := model.NewStrand(s)
		if err != nil {
			return nil, err
		}
		return string(st), nil
	}

	if IsNull(s) {
		return nil, nil
	}

	switch c.Kind {
	case Int:
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		// exports sometimes write integers as floats
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return nil, fmt.Errorf("cannot convert %q to integer", s)
		}
		return int64(f), nil
	case Float:
		s = strings.TrimSuffix(s, "%")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to float", s)
		}
		return f, nil
	case Set:
		return SplitSet(s, c.Sep), nil
	case JSON:
		js, err := ParseLiteral(s)
		if err != nil {
			return nil, err
		}
		return js, nil
	}
	return nil, fmt.Errorf("unknown column kind %d", c.Kind)
}

// Format converts a stored value into its CSV cell form.
func (c Column) Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return JoinSet(val, c.Sep)
	case json.RawMessage:
		return string(val)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// SplitSet splits a delimited cell into an ordered set of unique, trimmed,
// non-empty elements.
func SplitSet(s, sep string) []string {
	var parts []string
	switch {
	case sep == "":
		parts = []string{s}
	case isWord(sep):
		parts = splitWord(s, sep)
	default:
		parts = strings.Split(s, sep)
	}

	res := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if IsNull(p) {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		res = append(res, p)
	}
	return res
}

// JoinSet is the reverse of SplitSet.
func JoinSet(ss []string, sep string) string {
	if isWord(sep) {
		sep = " " + sep + " "
	}
	return strings.Join(ss, sep)
}

func isWord(sep string) bool {
	if sep == "" {
		return false
	}
	for _, r := range sep {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func splitWord(s, word string) []string {
	var res []string
	var cur []string
	for _, w := range strings.Fields(s) {
		if strings.EqualFold(w, word) {
			res = append(res, strings.Join(cur, " "))
			cur = cur[:0]
			continue
		}
		cur = append(cur, w)
	}
	return append(res, strings.Join(cur, " "))
}
