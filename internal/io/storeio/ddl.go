package storeio

import (
	"strings"

	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/google/uuid"
)

const stagingSuffix = "__staging"

func stagingName(table string) string {
	return table + stagingSuffix
}

// newNonce returns a short random suffix for constraint and index names, so
// that tables created by different imports never share them.
func newNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// tableDDL creates a family table under the given name. Constraint names
// are derived from the live table name. A child table references its
// parent under parentName.
func (d dialect) tableDDL(
	f *schema.Family,
	name, parentName, nonce string,
) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE " + d.quote(name) + " (\n")
	cols := []string{d.quote(schema.IDField) + " BIGINT NOT NULL"}
	if f.IsChild() {
		cols = append(cols, d.quote(schema.ParentField)+" BIGINT NOT NULL")
	}
	for _, c := range f.Columns {
		col := d.quote(c.Name) + " " + d.colType(c.Kind)
		if c.Required && (c.Kind == schema.Ident) {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	cols = append(cols, "CONSTRAINT "+d.quote(f.Table+"_pk_"+nonce)+
		" PRIMARY KEY ("+d.quote(schema.IDField)+")")
	if f.IsChild() {
		cols = append(cols, "CONSTRAINT "+d.quote(f.Table+"_fk_"+nonce)+
			" FOREIGN KEY ("+d.quote(schema.ParentField)+") REFERENCES "+
			d.quote(parentName)+" ("+d.quote(schema.IDField)+
			") ON DELETE CASCADE")
	}
	sb.WriteString("  " + strings.Join(cols, ",\n  "))
	sb.WriteString("\n)")
	return sb.String()
}

// indexDDL creates indexes of a family table.
func (d dialect) indexDDL(f *schema.Family, name, nonce string) []string {
	var res []string
	idx := func(unique bool, suffix, col string) {
		kw := "CREATE INDEX "
		if unique {
			kw = "CREATE UNIQUE INDEX "
		}
		res = append(res, kw+d.quote(f.Table+"_"+suffix+"_"+nonce)+" ON "+
			d.quote(name)+" ("+d.quote(col)+")")
	}
	if f.IsChild() {
		idx(false, "parent", schema.ParentField)
	}
	if f.HasColumn(schema.UIDField) {
		idx(f.Entity == schema.Genome, "uid", schema.UIDField)
	}
	return res
}

func (d dialect) statsDDL() string {
	return "CREATE TABLE " + d.quote("statistics") + " (" +
		d.quote("name") + " VARCHAR(255) NOT NULL PRIMARY KEY, " +
		d.quote("payload") + " " + d.colType(schema.Text) + " NOT NULL)"
}
