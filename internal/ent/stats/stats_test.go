package stats_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/genomcat/internal/ent/schema"
	. "github.com/gnames/genomcat/internal/ent/stats"
)

var _ = Describe("Stats", func() {
	It("builds and parses keys", func() {
		Expect(CountKey("bacteria_mag_protein")).
			To(Equal("count:bacteria_mag_protein"))
		Expect(OptionsKey("t")).To(Equal("options:t"))
		t, ok := CountTable("count:abc")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal("abc"))
		_, ok = CountTable("options:abc")
		Expect(ok).To(BeFalse())
	})

	It("strips parenthetical qualifiers of tRNA types", func() {
		reg := schema.NewRegistry()
		f, _ := reg.ByTable("bacteria_mag_trna")
		c, _ := f.Column("trna_type")
		res := Normalize(c, []string{"Ala (GCA)", "Ala(TGC)", "Pseudo", " ",
			"Pseudo"})
		Expect(res).To(Equal([]string{"Ala", "Pseudo"}))
		c, _ = f.Column("strand")
		res = Normalize(c, []string{"(x)"})
		Expect(res).To(Equal([]string{"(x)"}))
	})

	It("orders CRISPR subtypes by roman numbers", func() {
		vals := []string{"Unknown", "CAS-TypeIV-A", "CAS-TypeIII-B",
			"CAS-TypeI-E", "CAS-TypeII-C", "CAS-TypeI-C", "CAS-TypeV-K"}
		Order(schema.CRISPRCas, "subtypes", vals)
		Expect(vals).To(Equal([]string{"CAS-TypeI-C", "CAS-TypeI-E",
			"CAS-TypeII-C", "CAS-TypeIII-B", "CAS-TypeIV-A", "CAS-TypeV-K",
			"Unknown"}))
	})

	It("orders other values with collation", func() {
		vals := []string{"b", "A10", "a", "A9"}
		Order(schema.Genome, "assembly_level", vals)
		Expect(vals).To(Equal([]string{"a", "A9", "A10", "b"}))
	})
})
