// Package files describes read-only stores of per-genome files: sidecar
// annotation tables and archived sequence files.
package files

import (
	"context"
	"io"
	"path"

	"github.com/gnames/genomcat/pkg/ent/model"
)

// Store opens files by key. Keys use forward slashes.
type Store interface {
	// Open returns the content of a file. It returns an error wrapping
	// query.ErrNotFound if the file does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// SidecarKey is the key of a per-genome annotation table,
// `{Taxon}/{MAG}/meta/{kind}/{uid}.tsv`.
func SidecarKey(p model.Partition, kind, uid string) string {
	return path.Join(p.Taxon.Dir(), p.MAG.Dir(), "meta", kind, uid+".tsv")
}

// ArchiveKey is the key of an archived sequence or annotation file,
// `{Taxon}/{MAG}/{kind}/{uid}.{kind}.gz`.
func ArchiveKey(p model.Partition, kind, uid string) string {
	return path.Join(p.Taxon.Dir(), p.MAG.Dir(), kind, uid+"."+kind+".gz")
}
