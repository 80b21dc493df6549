package dumpio_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/io/buildio"
	"github.com/gnames/genomcat/internal/io/catalogio"
	"github.com/gnames/genomcat/internal/io/dumpio"
	"github.com/gnames/genomcat/internal/io/fileio"
	"github.com/gnames/genomcat/internal/io/storeio"
	"github.com/gnames/genomcat/pkg/config"
)

const tmh = "unique_id\tcontig_id\tprotein_id\tlength\thelix_position\t" +
	"helix_start\thelix_end\n" +
	"G1\tC1\tP1\t300\tTMhelix\t10\t30\n" +
	"G1\tC1\tP1\t300\tTMhelix\t50\t70\n" +
	"G1\tC1\tP2\t120\toutside\t1\t20\n"

var _ = Describe("Dumpio", func() {
	It("dumps non-empty families", func() {
		ctx := context.Background()
		dir, err := os.MkdirTemp("", "genomcat-dump")
		Expect(err).To(BeNil())
		defer os.RemoveAll(dir)

		cfg := config.New(
			config.OptStoreDriver(config.SQLite),
			config.OptSQLitePath(filepath.Join(dir, "test.sqlite")),
			config.OptInputDir(filepath.Join(dir, "input")),
			config.OptDumpDir(filepath.Join(dir, "dump")),
		)
		path := filepath.Join(cfg.InputDir, "Archaea", "unMAG", "tmh.tsv")
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(tmh), 0644)).To(Succeed())

		reg := schema.NewRegistry()
		st, err := storeio.New(ctx, cfg, reg)
		Expect(err).To(BeNil())
		defer st.Close()
		Expect(st.Migrate(ctx)).To(Succeed())
		Expect(buildio.New(cfg, reg, st).Build(ctx)).To(Succeed())

		fs, err := fileio.New(ctx, cfg, dir)
		Expect(err).To(BeNil())
		cat := catalogio.New(cfg, reg, st, fs, fs)
		d, err := dumpio.New(cfg, reg, st, cat)
		Expect(err).To(BeNil())
		Expect(d.Dump(ctx)).To(Succeed())

		entries, err := os.ReadDir(cfg.DumpDir)
		Expect(err).To(BeNil())
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		Expect(names).To(ConsistOf(
			"archaea_unmag_tmh.csv", "archaea_unmag_tmh_helix.csv",
		))

		f, err := os.Open(filepath.Join(cfg.DumpDir, "archaea_unmag_tmh_helix.csv"))
		Expect(err).To(BeNil())
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		Expect(err).To(BeNil())
		Expect(rows).To(HaveLen(4))
		Expect(rows[0]).To(Equal([]string{
			"id", "parent_id", "position", "start_pos", "end_pos",
		}))
		Expect(rows[3][1]).To(Equal("2"))
	})
})
