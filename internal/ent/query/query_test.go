package query_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/pkg/ent/model"
)

var _ = Describe("Query", func() {
	reg := schema.NewRegistry()
	bm := model.Partition{Taxon: model.Bacteria, MAG: model.MAG}
	smr, _ := reg.Lookup(bm, schema.SMR)
	prot, _ := reg.Lookup(bm, schema.Protein)
	lim := Limits{DefaultPageSize: 10, MaxPageSize: 100}

	recs := []model.Record{
		{"id": int64(1), "unique_id": "ABC123", "contig_id": "c1",
			"types": []string{"A", "B"}, "source": "antismash"},
		{"id": int64(2), "unique_id": "XYZ123", "contig_id": "c2",
			"types": []string{"C"}, "source": "antismash"},
		{"id": int64(3), "unique_id": "ABD001", "contig_id": "c1",
			"types": []string{"D"}, "source": "gecco"},
	}

	matching := func(q *Query) []int64 {
		var res []int64
		for _, r := range recs {
			if q.Match(r) {
				res = append(res, r.ID())
			}
		}
		return res
	}

	Describe("New", func() {
		It("applies default pagination", func() {
			q, err := New(smr, Request{}, lim)
			Expect(err).To(BeNil())
			Expect(q.Page).To(Equal(1))
			Expect(q.PageSize).To(Equal(10))
			Expect(q.Offset()).To(Equal(0))
		})

		It("rejects bad pagination", func() {
			_, err := New(smr, Request{Page: -1}, lim)
			Expect(IsValidation(err)).To(BeTrue())
			_, err = New(smr, Request{PageSize: 101}, lim)
			Expect(IsValidation(err)).To(BeTrue())
			_, err = New(smr, Request{PageSize: -5}, lim)
			Expect(IsValidation(err)).To(BeTrue())
		})

		It("rejects unknown fields", func() {
			_, err := New(smr, Request{Filter: Filter{"colour": {"red"}}}, lim)
			Expect(IsValidation(err)).To(BeTrue())
			_, err = New(smr, Request{Search: Search{Field: "source",
				Value: "x"}}, lim)
			Expect(IsValidation(err)).To(BeTrue())
			_, err = New(smr, Request{Sort: Sort{Field: "region"}}, lim)
			Expect(IsValidation(err)).To(BeTrue())
		})

		It("validates typed values", func() {
			_, err := New(prot, Request{Filter: Filter{"strand": {"up"}}}, lim)
			Expect(IsValidation(err)).To(BeTrue())
			q, err := New(prot, Request{Filter: Filter{"strand": {"forward"}}}, lim)
			Expect(err).To(BeNil())
			Expect(q.Conds[0].Values).To(Equal([]any{"+"}))
		})
	})

	Describe("Match", func() {
		It("uses overlap semantics for sets", func() {
			q, err := New(smr, Request{Filter: Filter{"types": {"B", "C"}}}, lim)
			Expect(err).To(BeNil())
			Expect(q.Conds[0].Op).To(Equal(Overlap))
			Expect(matching(q)).To(Equal([]int64{1, 2}))

			q, _ = New(smr, Request{Filter: Filter{"types": {"E", "F"}}}, lim)
			Expect(matching(q)).To(BeEmpty())
		})

		It("combines fields conjunctively", func() {
			f1 := Filter{"source": {"antismash"}}
			f2 := Filter{"types": {"A", "D"}}
			both := Filter{"source": {"antismash"}, "types": {"A", "D"}}
			q1, _ := New(smr, Request{Filter: f1}, lim)
			q2, _ := New(smr, Request{Filter: f2}, lim)
			q12, _ := New(smr, Request{Filter: both}, lim)
			Expect(matching(q1)).To(Equal([]int64{1, 2}))
			Expect(matching(q2)).To(Equal([]int64{1, 3}))
			Expect(matching(q12)).To(Equal([]int64{1}))
		})

		It("searches by prefix", func() {
			q, _ := New(smr, Request{Search: Search{Field: "unique_id",
				Value: "ABC"}}, lim)
			Expect(matching(q)).To(Equal([]int64{1}))
			q, _ = New(smr, Request{Search: Search{Field: "unique_id",
				Value: "123"}}, lim)
			Expect(matching(q)).To(BeEmpty())
		})

		It("searches sets by containment", func() {
			q, _ := New(smr, Request{Search: Search{Field: "types",
				Value: "C"}}, lim)
			Expect(q.Conds[0].Op).To(Equal(Contains))
			Expect(matching(q)).To(Equal([]int64{2}))
		})

		It("filters qualified fields by base value", func() {
			trna, _ := reg.Lookup(bm, schema.TRNA)
			trnas := []model.Record{
				{"id": int64(1), "trna_type": "Ala (GCA)"},
				{"id": int64(2), "trna_type": "Ala(TGC)"},
				{"id": int64(3), "trna_type": "Ala"},
				{"id": int64(4), "trna_type": "Alanine"},
			}
			q, err := New(trna, Request{Filter: Filter{"trna_type": {"Ala"}}}, lim)
			Expect(err).To(BeNil())
			Expect(q.Conds[0].Op).To(Equal(Base))
			var ids []int64
			for _, r := range trnas {
				if q.Match(r) {
					ids = append(ids, r.ID())
				}
			}
			Expect(ids).To(Equal([]int64{1, 2, 3}))
		})

		It("ignores empty search tokens", func() {
			q, err := New(smr, Request{Search: Search{Field: "unique_id",
				Value: "  "}}, lim)
			Expect(err).To(BeNil())
			Expect(q.Conds).To(BeEmpty())
			Expect(matching(q)).To(HaveLen(3))
		})

		It("applies fixed conditions", func() {
			q, _ := New(smr, Request{}, lim)
			q.Where("contig_id", "c1")
			Expect(matching(q)).To(Equal([]int64{1, 3}))
		})
	})

	Describe("SortRecords and Paginate", func() {
		It("orders by field then id and cuts pages", func() {
			q, _ := New(smr, Request{PageSize: 2,
				Sort: Sort{Field: "contig_id", Desc: true}}, lim)
			rs := append([]model.Record{}, recs...)
			q.SortRecords(rs)
			ids := []int64{rs[0].ID(), rs[1].ID(), rs[2].ID()}
			Expect(ids).To(Equal([]int64{2, 1, 3}))
			Expect(q.Paginate(rs)).To(HaveLen(2))
			q.Page = 2
			Expect(q.Paginate(rs)).To(HaveLen(1))
			Expect(q.All().Paginate(rs)).To(HaveLen(3))
		})
	})
})

var _ = Describe("ParseFilter", func() {
	It("reads scalars and arrays", func() {
		f, err := ParseFilter(`{"types": ["A", "", null], "aro": 3000, "x": "",
			"ok": true}`)
		Expect(err).To(BeNil())
		Expect(f["types"]).To(Equal([]string{"A"}))
		Expect(f["aro"]).To(Equal([]string{"3000"}))
		Expect(f["ok"]).To(Equal([]string{"true"}))
		Expect(f).ToNot(HaveKey("x"))
	})

	It("rejects nested values and bad JSON", func() {
		_, err := ParseFilter(`{"a": {"b": 1}}`)
		Expect(IsValidation(err)).To(BeTrue())
		_, err = ParseFilter(`[1,2]`)
		Expect(IsValidation(err)).To(BeTrue())
	})
})

var _ = Describe("Result", func() {
	It("computes page count and next page", func() {
		q := &Query{Page: 1, PageSize: 10}
		r := NewResult(q, nil, 25)
		Expect(r.PageCount).To(Equal(3))
		Expect(*r.NextPage).To(Equal(2))
		Expect(r.Records).ToNot(BeNil())
		q.Page = 3
		r = NewResult(q, nil, 25)
		Expect(r.NextPage).To(BeNil())
	})
})
