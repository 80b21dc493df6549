package schema_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/pkg/ent/model"
)

var _ = Describe("Registry", func() {
	reg := NewRegistry()
	bm := model.Partition{Taxon: model.Bacteria, MAG: model.MAG}
	vu := model.Partition{Taxon: model.Viruses, MAG: model.UnMAG}
	fu := model.Partition{Taxon: model.Fungi, MAG: model.MAG}

	It("names tables by partition and entity", func() {
		f, ok := reg.Lookup(bm, Protein)
		Expect(ok).To(BeTrue())
		Expect(f.Table).To(Equal("bacteria_mag_protein"))
		f2, ok := reg.ByTable("bacteria_mag_protein")
		Expect(ok).To(BeTrue())
		Expect(f2).To(BeIdenticalTo(f))
	})

	It("links parent and child families", func() {
		tmh, ok := reg.Lookup(bm, TMH)
		Expect(ok).To(BeTrue())
		Expect(tmh.Child).ToNot(BeNil())
		Expect(tmh.Child.Table).To(Equal("bacteria_mag_tmh_helix"))
		Expect(tmh.Child.Parent).To(BeIdenticalTo(tmh))
		Expect(tmh.Child.Fields()[:2]).To(Equal([]string{"id", "parent_id"}))
		helix, ok := reg.ByTable("bacteria_mag_tmh_helix")
		Expect(ok).To(BeTrue())
		Expect(helix.IsChild()).To(BeTrue())
	})

	It("applies taxon deltas", func() {
		vf, _ := reg.Lookup(vu, VF)
		Expect(vf.HasColumn("vf_category")).To(BeTrue())
		Expect(vf.HasColumn("disease_key")).To(BeFalse())

		g, _ := reg.Lookup(vu, Genome)
		Expect(g.HasColumn("genbank_accession")).To(BeTrue())
		Expect(g.HasColumn("accessions")).To(BeFalse())
		Expect(g.HasColumn("completeness")).To(BeFalse())

		g, _ = reg.Lookup(bm, Genome)
		Expect(g.HasColumn("accessions")).To(BeTrue())
		Expect(g.HasColumn("completeness")).To(BeTrue())
	})

	It("skips entities a taxon does not have", func() {
		_, ok := reg.Lookup(fu, CRISPRCas)
		Expect(ok).To(BeFalse())
		_, ok = reg.Lookup(vu, SMR)
		Expect(ok).To(BeFalse())
		_, ok = reg.Lookup(vu, ACR)
		Expect(ok).To(BeTrue())
	})

	It("lists parents before children", func() {
		seen := make(map[string]bool)
		for _, f := range reg.Families() {
			if f.IsChild() {
				Expect(seen[f.Parent.Table]).To(BeTrue())
			}
			seen[f.Table] = true
		}
	})

	It("rejects unknown tables", func() {
		_, err := reg.Tables("bacteria_mag_protein", "nope")
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Family", func() {
	reg := NewRegistry()
	bm := model.Partition{Taxon: model.Bacteria, MAG: model.MAG}

	It("reports missing required columns", func() {
		tmh, _ := reg.Lookup(bm, TMH)
		miss := tmh.Missing([]string{"unique_id", "contig_id", "protein_id",
			"helix_position", "helix_start"})
		Expect(miss).To(Equal([]string{"helix_end"}))
	})

	It("decodes rows with fallbacks and derived values", func() {
		g, _ := reg.Lookup(bm, Genome)
		row := map[string]string{
			"unique_id":     "G1",
			"accession":     "GCA_1,GCA_2",
			"organism_name": "Escherichia coli",
			"gc_content":    "50.5",
		}
		rec, err := g.Decode(func(k string) (string, bool) {
			v, ok := row[k]
			return v, ok
		})
		Expect(err).To(BeNil())
		Expect(rec["accessions"]).To(Equal([]string{"GCA_1", "GCA_2"}))
		Expect(rec["species"]).To(Equal("Escherichia coli"))
		Expect(rec["contig_n50"]).To(BeNil())
	})

	It("formats CSV rows in header order", func() {
		arg, _ := reg.Lookup(bm, ARG)
		rec := model.Record{"id": int64(3), "unique_id": "G1",
			"drug_class": []string{"penam", "carbapenem"}}
		row := arg.CSVRow(rec)
		Expect(len(row)).To(Equal(len(arg.CSV)))
		Expect(arg.CSV[0]).To(Equal("id"))
		Expect(row[0]).To(Equal("3"))
		for i, h := range arg.CSV {
			if h == "drug_class" {
				Expect(row[i]).To(Equal("penam;carbapenem"))
			}
		}
	})
})
