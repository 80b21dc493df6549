package stats

import (
	"slices"
	"strings"

	"github.com/gnames/genomcat/internal/ent/schema"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	countPrefix   = "count:"
	optionsPrefix = "options:"
)

// CountKey is the statistic name of a family row count.
func CountKey(table string) string {
	return countPrefix + table
}

// OptionsKey is the statistic name of family filter options.
func OptionsKey(table string) string {
	return optionsPrefix + table
}

// CountTable returns the table of a count statistic name.
func CountTable(name string) (string, bool) {
	return strings.CutPrefix(name, countPrefix)
}

// Options map filterable fields to ordered lists of values.
type Options map[string][]string

// Normalize cleans option values of a column and removes duplicates.
// Qualified columns keep base values only, so `Ala (GCA)` becomes `Ala`.
func Normalize(c schema.Column, vals []string) []string {
	res := make([]string, 0, len(vals))
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if c.Qualified {
			v = schema.BaseValue(v)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	return res
}

// Order sorts option values in place. CRISPR subtypes are ordered by their
// roman type number with `Unknown` last, other values by English collation
// with numbers compared numerically.
func Order(entity, field string, vals []string) {
	if isSubtype(entity, field) {
		slices.SortStableFunc(vals, CompareSubtypes)
		return
	}
	cl := collate.New(language.English, collate.Loose, collate.Numeric)
	cl.SortStrings(vals)
}

func isSubtype(entity, field string) bool {
	switch entity {
	case schema.CRISPRCas:
		return field == "subtypes" || field == "consensus_prediction"
	case schema.CRISPR:
		return field == "subtype"
	}
	return false
}
