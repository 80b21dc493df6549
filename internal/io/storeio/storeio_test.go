package storeio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/internal/io/storeio"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/genomcat/pkg/ent/model"
)

var _ = Describe("Storeio", func() {
	var (
		ctx = context.Background()
		reg = schema.NewRegistry()
		bm  = model.Partition{Taxon: model.Bacteria, MAG: model.MAG}
		lim = query.Limits{DefaultPageSize: 2, MaxPageSize: 100}
		dir string
		st  store.Store
	)
	smr, _ := reg.Lookup(bm, schema.SMR)
	tmh, _ := reg.Lookup(bm, schema.TMH)

	smrRecs := []model.Record{
		{"id": int64(1), "unique_id": "ABC123", "contig_id": "c1",
			"start_pos": int64(10), "end_pos": int64(100), "region": "r1",
			"types": []string{"A", "B"}, "source": "antismash",
			"similarity": 0.5},
		{"id": int64(2), "unique_id": "XYZ123", "contig_id": "c2",
			"start_pos": int64(5), "end_pos": int64(50), "region": "r2",
			"types": []string{"C"}, "source": "antismash"},
		{"id": int64(3), "unique_id": "ABD001", "contig_id": "c1",
			"start_pos": int64(20), "end_pos": int64(70), "region": "r3",
			"types": []string{"B", "D"}, "source": "gecco",
			"similarity": 0.9},
	}

	load := func(f *schema.Family, recs []model.Record) {
		r, err := st.Replace(ctx, f)
		Expect(err).To(BeNil())
		n, err := r.Insert(ctx, f, recs)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(int64(len(recs))))
		Expect(r.Commit(ctx)).To(Succeed())
	}

	ids := func(recs []model.Record) []int64 {
		res := make([]int64, len(recs))
		for i, r := range recs {
			res[i] = r.ID()
		}
		return res
	}

	list := func(f *schema.Family, req query.Request) []int64 {
		q, err := query.New(f, req, lim)
		Expect(err).To(BeNil())
		recs, err := st.List(ctx, q)
		Expect(err).To(BeNil())
		return ids(recs)
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "genomcat-store")
		Expect(err).To(BeNil())
		cfg := config.New(
			config.OptStoreDriver(config.SQLite),
			config.OptSQLitePath(filepath.Join(dir, "test.sqlite")),
		)
		st, err = storeio.New(ctx, cfg, reg)
		Expect(err).To(BeNil())
		Expect(st.Migrate(ctx)).To(Succeed())
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
		os.RemoveAll(dir)
	})

	It("migrates idempotently", func() {
		Expect(st.Migrate(ctx)).To(Succeed())
		q, _ := query.New(smr, query.Request{}, lim)
		n, err := st.Count(ctx, q)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(int64(0)))
	})

	It("reads records back with their types", func() {
		load(smr, smrRecs)
		rec, err := st.Get(ctx, smr, 1)
		Expect(err).To(BeNil())
		Expect(rec["types"]).To(Equal([]string{"A", "B"}))
		Expect(rec["start_pos"]).To(Equal(int64(10)))
		Expect(rec["similarity"]).To(Equal(0.5))
		Expect(rec["most_similar_cluster"]).To(BeNil())

		_, err = st.Get(ctx, smr, 42)
		Expect(errors.Is(err, query.ErrNotFound)).To(BeTrue())
	})

	It("filters sets by overlap", func() {
		load(smr, smrRecs)
		req := query.Request{Filter: query.Filter{"types": {"B", "C"}}}
		req.PageSize = 10
		Expect(list(smr, req)).To(Equal([]int64{1, 2, 3}))
		req.Filter = query.Filter{"types": {"E", "Z"}}
		Expect(list(smr, req)).To(BeEmpty())
		req.Filter = query.Filter{"types": {"D"}, "source": {"gecco"}}
		Expect(list(smr, req)).To(Equal([]int64{3}))
	})

	It("searches by prefix and by containment", func() {
		load(smr, smrRecs)
		req := query.Request{Search: query.Search{Field: "unique_id",
			Value: "ABC"}}
		Expect(list(smr, req)).To(Equal([]int64{1}))
		req.Search.Value = "123"
		Expect(list(smr, req)).To(BeEmpty())
		req.Search = query.Search{Field: "types", Value: "B"}
		Expect(list(smr, req)).To(Equal([]int64{1, 3}))
	})

	It("paginates deterministically", func() {
		load(smr, smrRecs)
		req := query.Request{Page: 1, Sort: query.Sort{Field: "contig_id"}}
		first := list(smr, req)
		Expect(first).To(Equal([]int64{1, 3}))
		Expect(list(smr, req)).To(Equal(first))
		req.Page = 2
		Expect(list(smr, req)).To(Equal([]int64{2}))

		req = query.Request{Sort: query.Sort{Field: "similarity", Desc: true},
			PageSize: 3}
		Expect(list(smr, req)).To(Equal([]int64{3, 1, 2}))
	})

	It("streams every matching record", func() {
		load(smr, smrRecs)
		q, _ := query.New(smr, query.Request{
			Filter: query.Filter{"source": {"antismash"}}}, lim)
		total, err := st.Count(ctx, q)
		Expect(err).To(BeNil())
		var n int64
		err = st.Each(ctx, q, func(model.Record) error {
			n++
			return nil
		})
		Expect(err).To(BeNil())
		Expect(n).To(Equal(total))
		Expect(n).To(Equal(int64(2)))
	})

	It("replaces data and keeps it on abort", func() {
		load(smr, smrRecs)
		load(smr, smrRecs[:1])
		q, _ := query.New(smr, query.Request{}, lim)
		n, _ := st.Count(ctx, q)
		Expect(n).To(Equal(int64(1)))

		r, err := st.Replace(ctx, smr)
		Expect(err).To(BeNil())
		_, err = r.Insert(ctx, smr, smrRecs[1:])
		Expect(err).To(BeNil())
		Expect(r.Abort(ctx)).To(Succeed())
		n, _ = st.Count(ctx, q)
		Expect(n).To(Equal(int64(1)))
	})

	It("keeps parents and children together", func() {
		parents := []model.Record{
			{"id": int64(1), "unique_id": "G1", "contig_id": "C1",
				"protein_id": "P1"},
			{"id": int64(2), "unique_id": "G1", "contig_id": "C1",
				"protein_id": "P2"},
		}
		children := []model.Record{
			{"id": int64(1), "parent_id": int64(1), "position": "TMhelix",
				"start_pos": int64(1), "end_pos": int64(20)},
			{"id": int64(2), "parent_id": int64(1), "position": "outside",
				"start_pos": int64(21), "end_pos": int64(40)},
			{"id": int64(3), "parent_id": int64(2), "position": "inside",
				"start_pos": int64(1), "end_pos": int64(9)},
		}
		for range 2 {
			r, err := st.Replace(ctx, tmh, tmh.Child)
			Expect(err).To(BeNil())
			_, err = r.Insert(ctx, tmh, parents)
			Expect(err).To(BeNil())
			_, err = r.Insert(ctx, tmh.Child, children)
			Expect(err).To(BeNil())
			Expect(r.Commit(ctx)).To(Succeed())
		}

		q, _ := query.New(tmh.Child, query.Request{}, lim)
		q.Where(schema.ParentField, int64(1))
		n, err := st.Count(ctx, q)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(int64(2)))

		r, err := st.Replace(ctx, tmh, tmh.Child)
		Expect(err).To(BeNil())
		_, err = r.Insert(ctx, tmh.Child, []model.Record{
			{"id": int64(1), "parent_id": int64(7), "position": "x",
				"start_pos": int64(1), "end_pos": int64(2)},
		})
		Expect(err).ToNot(BeNil())
		Expect(r.Abort(ctx)).To(Succeed())
	})

	It("returns flattened distinct values", func() {
		load(smr, smrRecs)
		vals, err := st.Distinct(ctx, smr, "types")
		Expect(err).To(BeNil())
		Expect(vals).To(ConsistOf("A", "B", "C", "D"))
		vals, err = st.Distinct(ctx, smr, "source")
		Expect(err).To(BeNil())
		Expect(vals).To(ConsistOf("antismash", "gecco"))
	})

	It("keeps statistics", func() {
		Expect(st.SaveStatistic(ctx, model.Statistic{Name: "count:x",
			Payload: "1"})).To(Succeed())
		Expect(st.SaveStatistic(ctx, model.Statistic{Name: "count:x",
			Payload: "2"})).To(Succeed())
		s, err := st.Statistic(ctx, "count:x")
		Expect(err).To(BeNil())
		Expect(s.Payload).To(Equal("2"))

		err = st.ReplaceStatistics(ctx, []model.Statistic{
			{Name: "count:a", Payload: "5"},
			{Name: "options:a", Payload: `{"f":["x"]}`},
		})
		Expect(err).To(BeNil())
		sts, err := st.Statistics(ctx)
		Expect(err).To(BeNil())
		Expect(sts).To(HaveLen(2))
		Expect(sts[0].Name).To(Equal("count:a"))
		_, err = st.Statistic(ctx, "count:x")
		Expect(errors.Is(err, query.ErrNotFound)).To(BeTrue())
	})
})
