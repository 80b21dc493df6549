package schema

import (
	"strings"
	"sync"

	"github.com/gnames/gnparser"
)

var gnpPool = sync.Pool{
	New: func() any {
		return gnparser.New(gnparser.NewConfig())
	},
}

// SpeciesOf returns a binomial species name from an organism name, for
// example `Escherichia coli` from `Escherichia coli str. K-12 substr.
// MG1655`. It returns an empty string if the name cannot be parsed.
func SpeciesOf(organism string) string {
	gnp := gnpPool.Get().(gnparser.GNparser)
	defer gnpPool.Put(gnp)

	p := gnp.ParseName(organism)
	if !p.Parsed || p.Canonical == nil || p.Cardinality < 2 {
		return ""
	}
	words := strings.Fields(p.Canonical.Simple)
	if len(words) < 2 {
		return ""
	}
	return words[0] + " " + words[1]
}
