package fileio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnames/genomcat/internal/ent/files"
)

type local struct {
	root string
}

// NewLocal returns a store of files under a directory.
func NewLocal(root string) files.Store {
	return &local{root: root}
}

// Open opens a file under the root directory.
func (l *local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(k)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		slog.Error("Cannot open file", "key", key, "error", err)
		return nil, err
	}
	return f, nil
}
