package config_test

import (
	"path/filepath"
	"time"

	"github.com/gnames/genomcat/pkg/config"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	Describe("New", func() {
		It("has defaults", func() {
			cfg := config.New()
			Expect(cfg.StoreDriver).To(Equal(config.Postgres))
			Expect(cfg.PgPort).To(Equal(5432))
			Expect(cfg.KeyIndex).To(Equal(config.KeyIndexMemory))
			Expect(cfg.BatchSize).To(Equal(1000))
			Expect(cfg.JobsNum).To(Equal(4))
			Expect(cfg.PageSize).To(Equal(20))
			Expect(cfg.MaxPageSize).To(Equal(1000))
			Expect(cfg.StatsTTL).To(Equal(5 * time.Minute))
			Expect(filepath.Base(cfg.SQLitePath)).To(Equal("genomcat.sqlite"))
			Expect(cfg.StaticCounts).ToNot(BeNil())
		})

		It("applies options", func() {
			cfg := config.New(
				config.OptStoreDriver(config.MySQL),
				config.OptPageSize(5, 50),
				config.OptS3("bucket", "eu-west-1", "http://localhost:9000", true),
				config.OptJobsNum(8),
			)
			Expect(cfg.StoreDriver).To(Equal(config.MySQL))
			Expect(cfg.PageSize).To(Equal(5))
			Expect(cfg.MaxPageSize).To(Equal(50))
			Expect(cfg.S3Bucket).To(Equal("bucket"))
			Expect(cfg.S3Region).To(Equal("eu-west-1"))
			Expect(cfg.S3PathStyle).To(BeTrue())
			Expect(cfg.JobsNum).To(Equal(8))
		})

		It("uses one job with SQLite", func() {
			cfg := config.New(
				config.OptStoreDriver(config.SQLite),
				config.OptJobsNum(8),
			)
			Expect(cfg.JobsNum).To(Equal(1))
		})

		It("does not allow zero jobs", func() {
			cfg := config.New(config.OptJobsNum(0))
			Expect(cfg.JobsNum).To(Equal(1))
		})
	})

	Describe("IsSidecar", func() {
		It("knows default sidecar tables", func() {
			cfg := config.New()
			Expect(cfg.IsSidecar("bacteria_mag_protein")).To(BeTrue())
			Expect(cfg.IsSidecar("bacteria_unmag_tmh")).To(BeTrue())
			Expect(cfg.IsSidecar("bacteria_mag_genome")).To(BeFalse())
		})

		It("follows the configured list", func() {
			cfg := config.New(config.OptSidecarFamilies([]string{"virus_trna"}))
			Expect(cfg.IsSidecar("virus_trna")).To(BeTrue())
			Expect(cfg.IsSidecar("bacteria_mag_protein")).To(BeFalse())
		})
	})
})
