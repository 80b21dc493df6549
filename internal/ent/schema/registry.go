package schema

import (
	"fmt"

	"github.com/gnames/genomcat/pkg/ent/model"
)

// Registry keeps all entity families of the catalog.
type Registry struct {
	fams    []*Family
	byTable map[string]*Family
	byKey   map[string]*Family
}

// NewRegistry creates families for every supported combination of taxon,
// MAG status and entity.
func NewRegistry() *Registry {
	res := &Registry{
		byTable: make(map[string]*Family),
		byKey:   make(map[string]*Family),
	}
	for _, part := range model.Partitions() {
		for _, d := range entityDefs {
			if !d.supports(part.Taxon) {
				continue
			}
			f := &Family{
				Entity:    d.name,
				Partition: part,
				Table:     part.String() + "_" + d.name,
				Columns:   d.columns(part.Taxon),
				File:      d.name,
			}
			d.family(f)
			res.add(f)
			if f.Child == nil {
				continue
			}
			ch := f.Child
			ch.Partition = part
			ch.Table = f.Table + "_" + ch.Entity
			ch.Parent = f
			res.add(ch)
		}
	}
	return res
}

func (r *Registry) add(f *Family) {
	if len(f.CSV) == 0 {
		f.CSV = f.Fields()
	}
	r.fams = append(r.fams, f)
	r.byTable[f.Table] = f
	r.byKey[familyKey(f.Partition, f.Entity)] = f
}

func familyKey(p model.Partition, entity string) string {
	return p.String() + "/" + entity
}

// Families returns all families. Parents come before their children.
func (r *Registry) Families() []*Family {
	return r.fams
}

// Lookup finds a family by partition and entity name.
func (r *Registry) Lookup(p model.Partition, entity string) (*Family, bool) {
	f, ok := r.byKey[familyKey(p, entity)]
	return f, ok
}

// ByTable finds a family by its table name.
func (r *Registry) ByTable(table string) (*Family, bool) {
	f, ok := r.byTable[table]
	return f, ok
}

// Partition returns families of one partition.
func (r *Registry) Partition(p model.Partition) []*Family {
	var res []*Family
	for _, f := range r.fams {
		if f.Partition == p {
			res = append(res, f)
		}
	}
	return res
}

// Tables converts table names into families. Unknown names are an error.
func (r *Registry) Tables(names ...string) ([]*Family, error) {
	res := make([]*Family, 0, len(names))
	for _, n := range names {
		f, ok := r.byTable[n]
		if !ok {
			return nil, fmt.Errorf("unknown table %q", n)
		}
		res = append(res, f)
	}
	return res, nil
}
