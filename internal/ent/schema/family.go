package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gnames/genomcat/pkg/ent/model"
)

const (
	// IDField is the primary key of every family.
	IDField = "id"

	// ParentField links a child record to its parent record.
	ParentField = "parent_id"

	// UIDField is the genome unique identifier, the join key of all
	// annotation families.
	UIDField = "unique_id"
)

// Download kinds.
const (
	KindCSV   = "csv"
	KindFASTA = "fasta"
	KindMeta  = "meta"
	KindGBK   = "gbk"
	KindGFF3  = "gff3"
)

// Family is the configuration of one entity family: a table of records of
// one entity in one partition.
type Family struct {
	// Entity is the entity name, for example `protein`.
	Entity string

	// Partition of the family.
	Partition model.Partition

	// Table is the table name, for example `bacteria_mag_protein`.
	Table string

	// Columns are the data fields, without `id` and `parent_id`.
	Columns []Column

	// Search is the whitelist of fields for free-text search.
	Search []string

	// Filter is the whitelist of fields for structured filters.
	Filter []string

	// Sort is the whitelist of fields allowed in explicit ordering.
	Sort []string

	// CSV fields, in header order.
	CSV []string

	// Downloads are kinds supported by single-record download.
	Downloads []string

	// DedupKey is the natural key of a parent family.
	DedupKey []string

	// Child is the family of child records. The child is imported from the
	// same source file as the parent.
	Child *Family

	// ChildField is the field a detailed record embeds its children under.
	ChildField string

	// Parent is set for child families.
	Parent *Family

	// File is the base name of the source file without extension.
	File string

	// SidecarKind is the directory name of per-genome sidecar files for
	// the entity, if such files exist.
	SidecarKind string
}

// IsChild is true for families owned by a parent family.
func (f *Family) IsChild() bool {
	return f.Parent != nil
}

// Column returns a column by field name.
func (f *Family) Column(name string) (Column, bool) {
	switch name {
	case IDField:
		return Column{Name: IDField, Kind: Int}, true
	case ParentField:
		if f.IsChild() {
			return Column{Name: ParentField, Kind: Int}, true
		}
	}
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Fields returns all stored field names in table order.
func (f *Family) Fields() []string {
	res := make([]string, 0, len(f.Columns)+2)
	res = append(res, IDField)
	if f.IsChild() {
		res = append(res, ParentField)
	}
	for _, c := range f.Columns {
		res = append(res, c.Name)
	}
	return res
}

// Searchable checks the search whitelist.
func (f *Family) Searchable(field string) bool {
	return slices.Contains(f.Search, field)
}

// Filterable checks the filter whitelist.
func (f *Family) Filterable(field string) bool {
	return slices.Contains(f.Filter, field)
}

// Sortable checks the sort whitelist. The primary key is always sortable.
func (f *Family) Sortable(field string) bool {
	return field == IDField || slices.Contains(f.Sort, field)
}

// HasDownload checks if a single-record download kind is supported.
func (f *Family) HasDownload(kind string) bool {
	return slices.Contains(f.Downloads, kind)
}

// HasColumn checks if the family has a column with the given name.
func (f *Family) HasColumn(name string) bool {
	_, ok := f.Column(name)
	return ok
}

// Missing returns required source columns absent from a header, including
// required columns of the child family.
func (f *Family) Missing(header []string) []string {
	var res []string
	fams := []*Family{f}
	if f.Child != nil {
		fams = append(fams, f.Child)
	}
	for _, fam := range fams {
		for _, c := range fam.Columns {
			if c.Required && !slices.Contains(header, c.SourceName()) {
				res = append(res, c.SourceName())
			}
		}
	}
	return res
}

// Decode maps a source row to a record. The get function returns a cell
// by source column name and false if the column is absent. The returned
// record has no id.
func (f *Family) Decode(get func(string) (string, bool)) (model.Record, error) {
	res := make(model.Record, len(f.Columns)+1)
	for _, c := range f.Columns {
		raw, ok := get(c.SourceName())
		if !ok {
			raw = c.Fallback
		}
		v, err := c.Coerce(raw)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.SourceName(), err)
		}
		res[c.Name] = v
	}

	for _, c := range f.Columns {
		if c.Derive == nil || res[c.Name] != nil {
			continue
		}
		from, _ := res[c.DeriveFrom].(string)
		if from == "" {
			continue
		}
		if v := c.Derive(from); v != "" {
			res[c.Name] = v
		}
	}
	return res, nil
}

// Key returns the natural key of a record for deduplication.
func (f *Family) Key(rec model.Record) string {
	parts := make([]string, len(f.DedupKey))
	for i, k := range f.DedupKey {
		parts[i] = rec.String(k)
	}
	return strings.Join(parts, "\x1f")
}

// CSVRow formats a record as a row of CSV cells in CSV header order.
func (f *Family) CSVRow(rec model.Record) []string {
	res := make([]string, len(f.CSV))
	for i, name := range f.CSV {
		c, _ := f.Column(name)
		res[i] = c.Format(rec[name])
	}
	return res
}
