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
	"github.com/gnames/genomcat/internal/io/dumpio"
	genomcat "github.com/gnames/genomcat/pkg"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/spf13/cobra"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Writes every non-empty table as a CSV file",
	Run: func(cmd *cobra.Command, _ []string) {
		dir, _ := cmd.Flags().GetString("dir")
		if dir != "" {
			opts = append(opts, config.OptDumpDir(expand(dir)))
		}

		ctx, stop := signalContext()
		defer stop()

		cfg := config.New(opts...)
		gc := genomcat.New(cfg)
		reg := schema.NewRegistry()
		st := openStore(ctx, cfg, reg)
		defer closeStore(st)

		cat := openCatalog(ctx, cfg, reg, st)
		d, err := dumpio.New(cfg, reg, st, cat)
		if err != nil {
			slog.Error("Cannot create dumper", "error", err)
			os.Exit(1)
		}
		if err = gc.Dump(ctx, d); err != nil {
			slog.Error("Cannot dump tables", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringP("dir", "d", "", "directory for CSV files")
}
