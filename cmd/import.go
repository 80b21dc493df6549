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
	"log/slog"
	"os"

	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/io/buildio"
	genomcat "github.com/gnames/genomcat/pkg"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [table...]",
	Short: "Replaces tables with TSV exports from the input directory",
	Long: `Replaces tables with TSV exports found in the input directory as
{Taxon}/{MAG}/{entity}.tsv or {entity}.tsv.gz. Without arguments every
table with a source file is imported. A table with a child table (for
example transmembrane helices) imports both from the same file.

With --file exactly one table is imported from the given path.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, err := cmd.Flags().GetString("file")
		if err != nil {
			slog.Error("Cannot get flag", "error", err)
			os.Exit(1)
		}
		if file != "" && len(args) != 1 {
			slog.Error("Option --file needs exactly one table name")
			os.Exit(1)
		}

		jobs, _ := cmd.Flags().GetInt("jobs")
		if jobs > 0 {
			opts = append(opts, config.OptJobsNum(jobs))
		}
		keys, _ := cmd.Flags().GetString("key-index")
		if keys != "" {
			opts = append(opts, config.OptKeyIndex(keys))
		}

		ctx, stop := signalContext()
		defer stop()

		cfg := config.New(opts...)
		gc := genomcat.New(cfg)
		reg := schema.NewRegistry()
		st := openStore(ctx, cfg, reg)
		defer closeStore(st)

		if err = gc.Migrate(ctx, st); err != nil {
			slog.Error("Cannot migrate store", "error", err)
			os.Exit(1)
		}

		b := buildio.New(cfg, reg, st)
		if file != "" {
			err = gc.ImportFile(ctx, b, args[0], file)
		} else {
			err = gc.Import(ctx, b, args...)
		}
		if err != nil {
			slog.Error("Cannot import data", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("file", "f", "", "import one table from this file")
	importCmd.Flags().IntP("jobs", "j", 0, "number of tables imported concurrently")
	importCmd.Flags().StringP("key-index", "k", "",
		"key index of two-pass imports: memory or badger")
}
