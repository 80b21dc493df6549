// Copyright © 2020 Dmitry Mozzherin <dmozzherin@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	genomcat "github.com/gnames/genomcat/pkg"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/gnsys"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//go:embed genomcat.yaml
var configText string

var (
	opts []config.Option
)

type cfgData struct {
	StoreDriver       string
	PgHost            string
	PgPort            int
	PgUser            string
	PgPass            string
	PgDB              string
	MyHost            string
	MyPort            int
	MyUser            string
	MyPass            string
	MyDB              string
	SQLitePath        string
	InputDir          string
	SidecarDir        string
	ArchiveDir        string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PathStyle       bool
	DumpDir           string
	KeyIndex          string
	KeyIndexDir       string
	BatchSize         int
	JobsNum           int
	Port              int
	PageSize          int
	MaxPageSize       int
	SidecarFamilies   []string
	StaticCounts      map[string]int64
	SidecarRowCeiling int64
	StatsTTL          time.Duration
	LogLevel          string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "genomcat",
	Short: "Catalog of microbial and viral genomes and their annotations",
	Long: `genomcat loads tab-separated exports of genome assemblies and their
annotations into a relational store, materializes statistics and filter
options, and serves paginated, filterable listings, detail views and
downloads over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		version, err := cmd.Flags().GetBool("version")
		if err != nil {
			slog.Error("Cannot get flag", "error", err)
			os.Exit(1)
		}
		if version {
			fmt.Printf("\nversion: %s\nbuild: %s\n\n", genomcat.Version, genomcat.Build)
			os.Exit(0)
		}

		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().BoolP("version", "V", false, "Returns version and build date")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	var homeDir, cfgDir string
	configFile := "genomcat"

	// .env is optional
	_ = godotenv.Load()

	// Find home directory.
	homeDir, err = homedir.Dir()
	if err != nil {
		slog.Error("Cannot find home dir", "error", err)
		os.Exit(1)
	}
	cfgDir = filepath.Join(homeDir, ".config")

	// Search config in home directory with name "genomcat" (without extension).
	viper.AddConfigPath(cfgDir)
	viper.SetConfigName(configFile)
	viper.SetEnvPrefix("GENOMCAT")
	viper.AutomaticEnv()

	configPath := filepath.Join(cfgDir, fmt.Sprintf("%s.yaml", configFile))
	touchConfigFile(configPath)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		slog.Error("Config file genomcat.yaml not found", "error", err)
		os.Exit(1)
	}
	getOpts()
}

// getOpts imports data from the configuration file. Some of the settings can
// be overriden by command line flags or GENOMCAT_ environment variables.
func getOpts() []config.Option {
	cfg := cfgData{}
	err := viper.Unmarshal(&cfg)
	if err != nil {
		slog.Error("Cannot unmarshal config file", "error", err)
	}
	setLogger(cfg.LogLevel)

	if cfg.StoreDriver != "" {
		opts = append(opts, config.OptStoreDriver(cfg.StoreDriver))
	}
	if cfg.PgHost != "" {
		opts = append(opts, config.OptPgHost(cfg.PgHost))
	}
	if cfg.PgPort != 0 {
		opts = append(opts, config.OptPgPort(cfg.PgPort))
	}
	if cfg.PgUser != "" {
		opts = append(opts, config.OptPgUser(cfg.PgUser))
	}
	if cfg.PgPass != "" {
		opts = append(opts, config.OptPgPass(cfg.PgPass))
	}
	if cfg.PgDB != "" {
		opts = append(opts, config.OptPgDB(cfg.PgDB))
	}
	if cfg.MyHost != "" {
		opts = append(opts, config.OptMyHost(cfg.MyHost))
	}
	if cfg.MyPort != 0 {
		opts = append(opts, config.OptMyPort(cfg.MyPort))
	}
	if cfg.MyUser != "" {
		opts = append(opts, config.OptMyUser(cfg.MyUser))
	}
	if cfg.MyPass != "" {
		opts = append(opts, config.OptMyPass(cfg.MyPass))
	}
	if cfg.MyDB != "" {
		opts = append(opts, config.OptMyDB(cfg.MyDB))
	}
	if cfg.SQLitePath != "" {
		opts = append(opts, config.OptSQLitePath(expand(cfg.SQLitePath)))
	}
	if cfg.InputDir != "" {
		opts = append(opts, config.OptInputDir(expand(cfg.InputDir)))
	}
	if cfg.SidecarDir != "" {
		opts = append(opts, config.OptSidecarDir(expand(cfg.SidecarDir)))
	}
	if cfg.ArchiveDir != "" {
		opts = append(opts, config.OptArchiveDir(expand(cfg.ArchiveDir)))
	}
	if cfg.S3Bucket != "" {
		opts = append(opts, config.OptS3(
			cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.S3PathStyle,
		))
	}
	if cfg.DumpDir != "" {
		opts = append(opts, config.OptDumpDir(expand(cfg.DumpDir)))
	}
	if cfg.KeyIndex != "" {
		opts = append(opts, config.OptKeyIndex(cfg.KeyIndex))
	}
	if cfg.KeyIndexDir != "" {
		opts = append(opts, config.OptKeyIndexDir(expand(cfg.KeyIndexDir)))
	}
	if cfg.BatchSize != 0 {
		opts = append(opts, config.OptBatchSize(cfg.BatchSize))
	}
	if cfg.JobsNum != 0 {
		opts = append(opts, config.OptJobsNum(cfg.JobsNum))
	}
	if cfg.Port != 0 {
		opts = append(opts, config.OptPort(cfg.Port))
	}
	if cfg.PageSize != 0 && cfg.MaxPageSize != 0 {
		opts = append(opts, config.OptPageSize(cfg.PageSize, cfg.MaxPageSize))
	}
	if cfg.SidecarFamilies != nil {
		opts = append(opts, config.OptSidecarFamilies(cfg.SidecarFamilies))
	}
	if len(cfg.StaticCounts) > 0 {
		opts = append(opts, config.OptStaticCounts(cfg.StaticCounts))
	}
	if cfg.SidecarRowCeiling != 0 {
		opts = append(opts, config.OptSidecarRowCeiling(cfg.SidecarRowCeiling))
	}
	if cfg.StatsTTL != 0 {
		opts = append(opts, config.OptStatsTTL(cfg.StatsTTL))
	}
	if cfg.LogLevel != "" {
		opts = append(opts, config.OptLogLevel(cfg.LogLevel))
	}
	return opts
}

// expand replaces a leading `~` with the home directory.
func expand(path string) string {
	res, err := homedir.Expand(path)
	if err != nil {
		slog.Warn("Cannot expand path", "path", path, "error", err)
		return path
	}
	return res
}

// setLogger installs a colored log handler with the given level.
func setLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.DateTime,
	})
	slog.SetDefault(slog.New(h))
}

// touchConfigFile checks if config file exists, and if not, it gets created.
func touchConfigFile(configPath string) {
	fileExists, _ := gnsys.FileExists(configPath)
	if fileExists {
		return
	}

	slog.Info("Creating config file", "path", configPath)
	createConfig(configPath)
}

// createConfig creates config file.
func createConfig(path string) {
	err := gnsys.MakeDir(filepath.Dir(path))
	if err != nil {
		slog.Error("Cannot create config dir", "error", err)
		os.Exit(1)
	}

	err = os.WriteFile(path, []byte(configText), 0644)
	if err != nil {
		slog.Error("Cannot write to config file", "error", err)
		os.Exit(1)
	}
}
