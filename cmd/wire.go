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
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/internal/io/catalogio"
	"github.com/gnames/genomcat/internal/io/fileio"
	"github.com/gnames/genomcat/internal/io/storeio"
	"github.com/gnames/genomcat/pkg/config"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore connects to the record store or exits.
func openStore(
	ctx context.Context,
	cfg config.Config,
	reg *schema.Registry,
) store.Store {
	st, err := storeio.New(ctx, cfg, reg)
	if err != nil {
		slog.Error("Cannot connect to store", "driver", cfg.StoreDriver,
			"error", err)
		os.Exit(1)
	}
	return st
}

// openCatalog creates a catalog on top of the store, sidecar files and
// archives, or exits.
func openCatalog(
	ctx context.Context,
	cfg config.Config,
	reg *schema.Registry,
	st store.Store,
) catalog.Catalog {
	sidecars, err := fileio.New(ctx, cfg, cfg.SidecarDir)
	if err != nil {
		slog.Error("Cannot open sidecar files", "error", err)
		os.Exit(1)
	}
	archives, err := fileio.New(ctx, cfg, cfg.ArchiveDir)
	if err != nil {
		slog.Error("Cannot open archives", "error", err)
		os.Exit(1)
	}
	return catalogio.New(cfg, reg, st, sidecars, archives)
}

func closeStore(st store.Store) {
	if err := st.Close(); err != nil {
		slog.Warn("Cannot close store", "error", err)
	}
}
