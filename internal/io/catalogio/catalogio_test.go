package catalogio_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/files"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/stats"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/internal/io/buildio"
	"github.com/gnames/genomcat/internal/io/catalogio"
	"github.com/gnames/genomcat/internal/io/fileio"
	"github.com/gnames/genomcat/internal/io/storeio"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/klauspost/compress/gzip"
)

var sources = map[string]string{
	"genome.tsv": "unique_id\torganism_name\tspecies\tassembly_level\tgc_content\n" +
		"G1\tEscherichia coli K-12\tEscherichia coli\tComplete Genome\t50.8\n" +
		"G2\tBacillus subtilis 168\tBacillus subtilis\tContig\t43.5\n" +
		"G3\tBacillus cereus\tBacillus cereus\tContig\tNA\n",
	"taxonomy.tsv": "unique_id\tdomain\tphylum\tclass\torder\tfamily\tgenus\tspecies\n" +
		"G1\tBacteria\tPseudomonadota\tGammaproteobacteria\tEnterobacterales\t" +
		"Enterobacteriaceae\tEscherichia\tEscherichia coli\n",
	"trna.tsv": "unique_id\tcontig_id\ttrna_id\tstart\tend\ttrna_type\tstrand\n" +
		"G1\tC1\tt1\t10\t85\tAla (GCA)\t+\n" +
		"G1\tC1\tt2\t100\t175\tGly\t-\n" +
		"G2\tC9\tt3\t5\t80\tAla\t+\n",
	"tmh.tsv": "unique_id\tcontig_id\tprotein_id\tlength\thelix_position\t" +
		"helix_start\thelix_end\n" +
		"G1\tC1\tP1\t300\tTMhelix\t10\t30\n" +
		"G1\tC1\tP1\t300\tTMhelix\t50\t70\n" +
		"G1\tC1\tP2\t120\toutside\t1\t20\n",
}

const proteinSidecar = "unique_id\tcontig_id\tprotein_id\tstart\tend\tstrand\t" +
	"product\tcog_category\tsequence\n" +
	"G1\tC1\tP1\t1\t300\t+\tkinase\tK,T\tMKV\n" +
	"G1\tC1\tP2\t400\t520\t-\ttransporter\tP\tMAL\n" +
	"G1\tC2\tP3\t10\t90\treverse\thypothetical protein\t\tMSS\n"

const genomeFASTA = ">C1 chromosome\nATGCATGCAT\nGC\n>C2 plasmid\nATAT\n"

var _ = Describe("Catalogio", func() {
	var (
		ctx = context.Background()
		reg = schema.NewRegistry()
		bm  = model.Partition{Taxon: model.Bacteria, MAG: model.MAG}
		dir string
		st  store.Store
		cat catalog.Catalog
	)

	put := func(path string, content []byte) {
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, content, 0644)).To(Succeed())
	}

	gz := func(s string) []byte {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, err := w.Write([]byte(s))
		Expect(err).To(BeNil())
		Expect(w.Close()).To(Succeed())
		return buf.Bytes()
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "genomcat-catalog")
		Expect(err).To(BeNil())
		cfg := config.New(
			config.OptStoreDriver(config.SQLite),
			config.OptSQLitePath(filepath.Join(dir, "test.sqlite")),
			config.OptInputDir(filepath.Join(dir, "input")),
			config.OptSidecarDir(filepath.Join(dir, "sidecar")),
			config.OptArchiveDir(filepath.Join(dir, "archive")),
			config.OptPageSize(2, 10),
		)
		for name, content := range sources {
			put(filepath.Join(cfg.InputDir, "Bacteria", "MAG", name),
				[]byte(content))
		}
		put(filepath.Join(cfg.SidecarDir,
			filepath.FromSlash(files.SidecarKey(bm, schema.Protein, "G1"))),
			[]byte(proteinSidecar))
		put(filepath.Join(cfg.SidecarDir,
			filepath.FromSlash(files.SidecarKey(bm, schema.TMH, "G1"))),
			[]byte(sources["tmh.tsv"]))
		put(filepath.Join(cfg.ArchiveDir,
			filepath.FromSlash(files.ArchiveKey(bm, schema.KindFASTA, "G1"))),
			gz(genomeFASTA))
		put(filepath.Join(cfg.ArchiveDir,
			filepath.FromSlash(files.ArchiveKey(bm, schema.KindFASTA, "G2"))),
			[]byte("not a gzip file"))

		st, err = storeio.New(ctx, cfg, reg)
		Expect(err).To(BeNil())
		Expect(st.Migrate(ctx)).To(Succeed())
		Expect(buildio.New(cfg, reg, st).Build(ctx)).To(Succeed())

		sidecars, err := fileio.New(ctx, cfg, cfg.SidecarDir)
		Expect(err).To(BeNil())
		archives, err := fileio.New(ctx, cfg, cfg.ArchiveDir)
		Expect(err).To(BeNil())
		cat = catalogio.New(cfg, reg, st, sidecars, archives)
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
		os.RemoveAll(dir)
	})

	Describe("List", func() {
		It("returns pages in id order", func() {
			res, err := cat.List(ctx, bm, schema.Genome, query.Request{})
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(int64(3)))
			Expect(res.PageCount).To(Equal(2))
			Expect(*res.NextPage).To(Equal(2))
			Expect(res.Records[0]["unique_id"]).To(Equal("G1"))

			res, err = cat.List(ctx, bm, schema.Genome, query.Request{Page: 2})
			Expect(err).To(BeNil())
			Expect(res.Records).To(HaveLen(1))
			Expect(res.NextPage).To(BeNil())
		})

		It("combines filters and search", func() {
			req := query.Request{
				Filter: query.Filter{"assembly_level": {"Contig"}},
				Search: query.Search{Field: "organism_name", Value: "Bacillus s"},
			}
			res, err := cat.List(ctx, bm, schema.Genome, req)
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(int64(1)))
			Expect(res.Records[0]["unique_id"]).To(Equal("G2"))
		})

		It("filters tRNA types by their base value", func() {
			req := query.Request{Filter: query.Filter{"trna_type": {"Ala"}}}
			res, err := cat.List(ctx, bm, schema.TRNA, req)
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(int64(2)))
			Expect(res.Records[0]["trna_type"]).To(Equal("Ala (GCA)"))
			Expect(res.Records[1]["trna_type"]).To(Equal("Ala"))
		})

		It("rejects unknown fields", func() {
			req := query.Request{Filter: query.Filter{"gc_content": {"1"}}}
			_, err := cat.List(ctx, bm, schema.Genome, req)
			Expect(query.IsValidation(err)).To(BeTrue())
		})

		It("reports unknown entities as not found", func() {
			vm := model.Partition{Taxon: model.Viruses, MAG: model.MAG}
			_, err := cat.List(ctx, vm, schema.SMR, query.Request{})
			Expect(errors.Is(err, query.ErrNotFound)).To(BeTrue())
		})
	})

	It("embeds children into parent records", func() {
		rec, err := cat.Record(ctx, bm, schema.TMH, 1)
		Expect(err).To(BeNil())
		helices := rec["helices"].([]model.Record)
		Expect(helices).To(HaveLen(2))
		Expect(helices[1]["start_pos"]).To(Equal(int64(50)))

		_, err = cat.Record(ctx, bm, schema.TMH, 42)
		Expect(errors.Is(err, query.ErrNotFound)).To(BeTrue())
	})

	Describe("Export", func() {
		It("writes every matching record", func() {
			var buf bytes.Buffer
			req := query.Request{Sort: query.Sort{Field: "gc_content"}}
			n, err := cat.Export(ctx, bm, schema.Genome, req, &buf)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(int64(3)))

			rows, err := csv.NewReader(&buf).ReadAll()
			Expect(err).To(BeNil())
			Expect(rows).To(HaveLen(4))
			Expect(rows[0][0]).To(Equal("id"))
			Expect(rows[1][1]).To(Equal("G3"))
		})

		It("validates before writing", func() {
			var buf bytes.Buffer
			req := query.Request{Sort: query.Sort{Field: "nope"}}
			_, err := cat.Export(ctx, bm, schema.Genome, req, &buf)
			Expect(query.IsValidation(err)).To(BeTrue())
			Expect(buf.Len()).To(Equal(0))
		})
	})

	Describe("Genome", func() {
		It("counts sidecar and relational annotations", func() {
			g, err := cat.Genome(ctx, bm, "G1")
			Expect(err).To(BeNil())
			Expect(g.Genome["organism_name"]).To(Equal("Escherichia coli K-12"))
			Expect(g.Taxonomy["genus"]).To(Equal("Escherichia"))
			Expect(g.Counts["protein_count"]).To(Equal(int64(3)))
			Expect(g.Counts["trna_count"]).To(Equal(int64(2)))
			Expect(g.Counts["tmh_count"]).To(Equal(int64(2)))
		})

		It("counts sidecar proteins once however many helices they have", func() {
			g, err := cat.Genome(ctx, bm, "G1")
			Expect(err).To(BeNil())
			res, err := cat.GenomeAnnotations(ctx, bm, "G1", schema.TMH,
				query.Request{})
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(g.Counts["tmh_count"]))

			tf, _ := reg.Lookup(bm, schema.TMH)
			q, err := query.New(tf, query.Request{}, query.Limits{})
			Expect(err).To(BeNil())
			n, err := st.Count(ctx, q.Where(schema.UIDField, "G1"))
			Expect(err).To(BeNil())
			Expect(n).To(Equal(g.Counts["tmh_count"]))
		})

		It("counts an absent sidecar file as zero", func() {
			g, err := cat.Genome(ctx, bm, "G2")
			Expect(err).To(BeNil())
			Expect(g.Taxonomy).To(BeNil())
			Expect(g.Counts["protein_count"]).To(Equal(int64(0)))
			Expect(g.Counts["trna_count"]).To(Equal(int64(1)))
		})

		It("reports unknown genomes", func() {
			_, err := cat.Genome(ctx, bm, "G9")
			Expect(errors.Is(err, query.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("GenomeAnnotations", func() {
		It("filters sidecar records in memory", func() {
			req := query.Request{Filter: query.Filter{"strand": {"-"}}}
			res, err := cat.GenomeAnnotations(ctx, bm, "G1", schema.Protein, req)
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(int64(2)))
			Expect(res.Records[0]["protein_id"]).To(Equal("P2"))

			req = query.Request{
				Search: query.Search{Field: "cog_category", Value: "T"},
			}
			res, err = cat.GenomeAnnotations(ctx, bm, "G1", schema.Protein, req)
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(int64(1)))
			Expect(res.Records[0]["cog_category"]).To(Equal([]string{"K", "T"}))
		})

		It("returns nothing for an absent sidecar file", func() {
			res, err := cat.GenomeAnnotations(ctx, bm, "G2", schema.Protein,
				query.Request{})
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(int64(0)))
			Expect(res.Records).To(BeEmpty())
		})

		It("queries relational families", func() {
			res, err := cat.GenomeAnnotations(ctx, bm, "G1", schema.TRNA,
				query.Request{Sort: query.Sort{Field: "start_pos", Desc: true}})
			Expect(err).To(BeNil())
			Expect(res.Total).To(Equal(int64(2)))
			Expect(res.Records[0]["trna_id"]).To(Equal("t2"))
		})
	})

	Describe("Download", func() {
		It("returns genome metadata as two CSV lines", func() {
			att, err := cat.GenomeDownload(ctx, bm, "G1", schema.KindMeta)
			Expect(err).To(BeNil())
			defer att.Body.Close()
			Expect(att.Name).To(Equal("G1_meta.csv"))
			bs, err := io.ReadAll(att.Body)
			Expect(err).To(BeNil())
			lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
			Expect(lines).To(HaveLen(2))

			rows, err := csv.NewReader(bytes.NewReader(bs)).ReadAll()
			Expect(err).To(BeNil())
			Expect(rows[0]).To(HaveLen(len(rows[1])))
			Expect(rows[0]).To(ContainElement("taxonomy_genus"))
		})

		It("returns one CSV row by id", func() {
			att, err := cat.Download(ctx, bm, schema.TRNA, 2, schema.KindCSV)
			Expect(err).To(BeNil())
			bs, err := io.ReadAll(att.Body)
			Expect(err).To(BeNil())
			Expect(string(bs)).To(ContainSubstring("t2"))
		})

		It("streams archived files verbatim", func() {
			att, err := cat.GenomeDownload(ctx, bm, "G1", schema.KindFASTA)
			Expect(err).To(BeNil())
			defer att.Body.Close()
			Expect(att.Name).To(Equal("G1.fasta.gz"))
			r, err := gzip.NewReader(att.Body)
			Expect(err).To(BeNil())
			bs, err := io.ReadAll(r)
			Expect(err).To(BeNil())
			Expect(string(bs)).To(Equal(genomeFASTA))
		})

		It("reports absent archived files as not found", func() {
			_, err := cat.GenomeDownload(ctx, bm, "G1", schema.KindGBK)
			Expect(errors.Is(err, query.ErrNotFound)).To(BeTrue())
		})

		It("rejects unsupported kinds", func() {
			_, err := cat.Download(ctx, bm, schema.TRNA, 1, schema.KindFASTA)
			Expect(query.IsValidation(err)).To(BeTrue())
		})
	})

	Describe("Contigs", func() {
		It("lists contig lengths", func() {
			cs, err := cat.Contigs(ctx, bm, "G1")
			Expect(err).To(BeNil())
			Expect(cs).To(Equal([]catalog.Contig{
				{ID: "C1", Length: 12},
				{ID: "C2", Length: 4},
			}))
		})

		It("fails on corrupt archives", func() {
			_, err := cat.Contigs(ctx, bm, "G2")
			Expect(err).ToNot(BeNil())
			Expect(errors.Is(err, query.ErrNotFound)).To(BeFalse())
		})
	})

	Describe("statistics", func() {
		It("returns counts saved by the importer", func() {
			res, err := cat.Statistics(ctx)
			Expect(err).To(BeNil())
			Expect(res["bacteria_mag_genome"]).To(Equal(int64(3)))
			Expect(res["bacteria_mag_tmh_helix"]).To(Equal(int64(3)))
		})

		It("returns materialized options", func() {
			f, _ := reg.Lookup(bm, schema.TRNA)
			err := st.SaveStatistic(ctx, model.Statistic{
				Name:    stats.OptionsKey(f.Table),
				Payload: `{"trna_type":["Ala","Gly"]}`,
			})
			Expect(err).To(BeNil())
			opts, err := cat.Options(ctx, bm, schema.TRNA)
			Expect(err).To(BeNil())
			Expect(opts["trna_type"]).To(Equal([]string{"Ala", "Gly"}))

			opts, err = cat.Options(ctx, bm, schema.SMR)
			Expect(err).To(BeNil())
			Expect(opts).To(BeEmpty())
		})
	})
})
