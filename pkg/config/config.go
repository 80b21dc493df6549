package config

import (
	"os"
	"path/filepath"
	"time"
)

// Store drivers.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// Key index modes.
const (
	KeyIndexMemory = "memory"
	KeyIndexBadger = "badger"
)

// sidecarFamilies are tables served from per-genome sidecar files by
// default.
var sidecarFamilies = []string{
	"bacteria_mag_protein", "bacteria_unmag_protein",
	"bacteria_mag_arg", "bacteria_unmag_arg",
	"bacteria_mag_tmh", "bacteria_unmag_tmh",
}

// Config is a struct that holds configuration parameters for the package.
type Config struct {
	// StoreDriver is one of `postgres`, `mysql`, `sqlite`.
	StoreDriver string

	// PgHost is a host name for PostgreSQL.
	PgHost string

	// PgPort is a port for PostgreSQL.
	PgPort int

	// PgUser is a user name for PostgreSQL.
	PgUser string

	// PgPass is a password for PostgreSQL.
	PgPass string

	// PgDB is a database name for PostgreSQL.
	PgDB string

	// MyHost is a host name for MySQL.
	MyHost string

	// MyPort is a port for MySQL.
	MyPort int

	// MyUser is a user name for MySQL.
	MyUser string

	// MyPass is a password for MySQL.
	MyPass string

	// MyDB is a database name for MySQL.
	MyDB string

	// SQLitePath is a path to the SQLite database file.
	SQLitePath string

	// InputDir is a directory with TSV exports laid out as
	// `{Taxon}/{MAG}/{entity}.tsv[.gz]`.
	InputDir string

	// SidecarDir is a base directory of per-genome sidecar files.
	SidecarDir string

	// ArchiveDir is a base directory of archived FASTA/GenBank/GFF3 files.
	ArchiveDir string

	// S3Bucket, when set, makes sidecar and archive files read from S3.
	// SidecarDir and ArchiveDir are then used as key prefixes.
	S3Bucket string

	// S3Region is the region of the bucket.
	S3Region string

	// S3Endpoint is a custom endpoint for S3-compatible storage.
	S3Endpoint string

	// S3PathStyle forces path-style addressing.
	S3PathStyle bool

	// DumpDir is a directory to keep CSV dump files.
	DumpDir string

	// KeyIndex is `memory` or `badger`.
	KeyIndex string

	// KeyIndexDir is a directory for the badger key index.
	KeyIndexDir string

	// BatchSize is a number of records to be saved in one transaction.
	BatchSize int

	// JobsNum is a number of families imported concurrently.
	JobsNum int

	// Port for the HTTP API.
	Port int

	// PageSize is the default number of records on a page.
	PageSize int

	// MaxPageSize is the largest allowed page size.
	MaxPageSize int

	// SidecarFamilies are tables served from sidecar files instead of the
	// relational store.
	SidecarFamilies []string

	// StaticCounts are row counts of sidecar families, refreshed
	// out-of-band.
	StaticCounts map[string]int64

	// SidecarRowCeiling is the row count above which the materializer warns
	// that a family should move to sidecar files.
	SidecarRowCeiling int64

	// StatsTTL is how long API caches statistic rows.
	StatsTTL time.Duration

	// LogLevel is one of `debug`, `info`, `warn`, `error`.
	LogLevel string
}

// Option type allows to change settings for Config.
type Option func(*Config)

// OptStoreDriver sets the relational store driver.
func OptStoreDriver(s string) Option {
	return func(cfg *Config) {
		cfg.StoreDriver = s
	}
}

// OptPgHost sets host name for PostgreSQL
func OptPgHost(h string) Option {
	return func(cfg *Config) {
		cfg.PgHost = h
	}
}

// OptPgPort sets port for PostgreSQL
func OptPgPort(p int) Option {
	return func(cfg *Config) {
		cfg.PgPort = p
	}
}

// OptPgUser sets user for PostgreSQL
func OptPgUser(u string) Option {
	return func(cfg *Config) {
		cfg.PgUser = u
	}
}

// OptPgPass sets password for PostgreSQL
func OptPgPass(p string) Option {
	return func(cfg *Config) {
		cfg.PgPass = p
	}
}

// OptPgDB sets database name for PostgreSQL
func OptPgDB(d string) Option {
	return func(cfg *Config) {
		cfg.PgDB = d
	}
}

// OptMyHost sets host for MySQL
func OptMyHost(h string) Option {
	return func(cfg *Config) {
		cfg.MyHost = h
	}
}

// OptMyPort sets port for MySQL
func OptMyPort(p int) Option {
	return func(cfg *Config) {
		cfg.MyPort = p
	}
}

// OptMyUser sets user for MySQL
func OptMyUser(u string) Option {
	return func(cfg *Config) {
		cfg.MyUser = u
	}
}

// OptMyPass sets password for MySQL
func OptMyPass(p string) Option {
	return func(cfg *Config) {
		cfg.MyPass = p
	}
}

// OptMyDB sets database name for MySQL
func OptMyDB(d string) Option {
	return func(cfg *Config) {
		cfg.MyDB = d
	}
}

// OptSQLitePath sets the SQLite database file.
func OptSQLitePath(p string) Option {
	return func(cfg *Config) {
		cfg.SQLitePath = p
	}
}

// OptInputDir sets a directory with TSV exports.
func OptInputDir(d string) Option {
	return func(cfg *Config) {
		cfg.InputDir = d
	}
}

// OptSidecarDir sets a base directory for sidecar files.
func OptSidecarDir(d string) Option {
	return func(cfg *Config) {
		cfg.SidecarDir = d
	}
}

// OptArchiveDir sets a base directory for archived sequence files.
func OptArchiveDir(d string) Option {
	return func(cfg *Config) {
		cfg.ArchiveDir = d
	}
}

// OptS3 sets S3 bucket, region, endpoint and addressing style.
func OptS3(bucket, region, endpoint string, pathStyle bool) Option {
	return func(cfg *Config) {
		cfg.S3Bucket = bucket
		cfg.S3Region = region
		cfg.S3Endpoint = endpoint
		cfg.S3PathStyle = pathStyle
	}
}

// OptDumpDir sets a directory for CSV dumps.
func OptDumpDir(d string) Option {
	return func(cfg *Config) {
		cfg.DumpDir = d
	}
}

// OptKeyIndex sets the key index mode.
func OptKeyIndex(s string) Option {
	return func(cfg *Config) {
		cfg.KeyIndex = s
	}
}

// OptKeyIndexDir sets a directory for the on-disk key index.
func OptKeyIndexDir(d string) Option {
	return func(cfg *Config) {
		cfg.KeyIndexDir = d
	}
}

// OptBatchSize sets the number of rows in one chunk.
func OptBatchSize(i int) Option {
	return func(cfg *Config) {
		cfg.BatchSize = i
	}
}

// OptJobsNum sets parallelism number for concurrent goroutines.
func OptJobsNum(j int) Option {
	return func(cfg *Config) {
		cfg.JobsNum = j
	}
}

// OptPort sets the HTTP port.
func OptPort(p int) Option {
	return func(cfg *Config) {
		cfg.Port = p
	}
}

// OptPageSize sets default and maximum page sizes.
func OptPageSize(def, max int) Option {
	return func(cfg *Config) {
		cfg.PageSize = def
		cfg.MaxPageSize = max
	}
}

// OptSidecarFamilies sets tables served from sidecar files.
func OptSidecarFamilies(ts []string) Option {
	return func(cfg *Config) {
		cfg.SidecarFamilies = ts
	}
}

// OptStaticCounts sets row counts of sidecar families.
func OptStaticCounts(m map[string]int64) Option {
	return func(cfg *Config) {
		cfg.StaticCounts = m
	}
}

// OptSidecarRowCeiling sets the row count warning threshold.
func OptSidecarRowCeiling(i int64) Option {
	return func(cfg *Config) {
		cfg.SidecarRowCeiling = i
	}
}

// OptStatsTTL sets the lifetime of cached statistics.
func OptStatsTTL(d time.Duration) Option {
	return func(cfg *Config) {
		cfg.StatsTTL = d
	}
}

// OptLogLevel sets the log level.
func OptLogLevel(s string) Option {
	return func(cfg *Config) {
		cfg.LogLevel = s
	}
}

// New creates a Config with default settings modified by options.
func New(opts ...Option) Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	cacheDir = filepath.Join(cacheDir, "genomcat")

	res := Config{
		StoreDriver:       Postgres,
		PgHost:            "0.0.0.0",
		PgPort:            5432,
		PgUser:            "postgres",
		PgPass:            "postgres",
		PgDB:              "genomcat",
		MyHost:            "127.0.0.1",
		MyPort:            3306,
		MyUser:            "root",
		MyDB:              "genomcat",
		SQLitePath:        filepath.Join(cacheDir, "genomcat.sqlite"),
		InputDir:          filepath.Join(cacheDir, "input"),
		SidecarDir:        filepath.Join(cacheDir, "data"),
		ArchiveDir:        filepath.Join(cacheDir, "data"),
		S3Region:          "us-east-1",
		DumpDir:           filepath.Join(cacheDir, "dump"),
		KeyIndex:          KeyIndexMemory,
		KeyIndexDir:       filepath.Join(cacheDir, "keys"),
		BatchSize:         1000,
		JobsNum:           4,
		Port:              8080,
		PageSize:          20,
		MaxPageSize:       1000,
		SidecarFamilies:   sidecarFamilies,
		StaticCounts:      make(map[string]int64),
		SidecarRowCeiling: 50_000_000,
		StatsTTL:          5 * time.Minute,
		LogLevel:          "info",
	}

	for _, opt := range opts {
		opt(&res)
	}

	if res.StoreDriver == SQLite {
		res.JobsNum = 1
	}
	if res.JobsNum < 1 {
		res.JobsNum = 1
	}
	return res
}

// IsSidecar checks if a table is served from sidecar files.
func (cfg Config) IsSidecar(table string) bool {
	for _, t := range cfg.SidecarFamilies {
		if t == table {
			return true
		}
	}
	return false
}
