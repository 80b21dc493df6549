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
	genomcat "github.com/gnames/genomcat/pkg"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates missing tables and indices in the record store",
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signalContext()
		defer stop()

		cfg := config.New(opts...)
		gc := genomcat.New(cfg)
		st := openStore(ctx, cfg, schema.NewRegistry())
		defer closeStore(st)

		if err := gc.Migrate(ctx, st); err != nil {
			slog.Error("Cannot migrate store", "error", err)
			os.Exit(1)
		}
		slog.Info("Store is ready", "driver", cfg.StoreDriver)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
