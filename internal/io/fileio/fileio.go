// Package fileio implements files.Store on a local directory and on an S3
// bucket.
package fileio

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/gnames/genomcat/internal/ent/files"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/pkg/config"
)

// New returns a store rooted at base. With an S3 bucket configured, base
// is used as a key prefix inside the bucket.
func New(ctx context.Context, cfg config.Config, base string) (files.Store, error) {
	if cfg.S3Bucket == "" {
		return NewLocal(base), nil
	}
	return NewS3(ctx, cfg, base)
}

// cleanKey rejects keys escaping the store root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	clean := path.Clean(filepath.ToSlash(key))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return clean, nil
}

func notFound(key string) error {
	slog.Debug("File not found", "key", key)
	return fmt.Errorf("file %s: %w", key, query.ErrNotFound)
}
