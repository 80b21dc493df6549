package build

import "context"

// Builder is the interface that wraps the Build method.
type Builder interface {
	// Build replaces entity families with data from their source files.
	// Without table names it imports every family whose source file
	// exists.
	Build(ctx context.Context, tables ...string) error

	// BuildFile replaces one family with data from the given file.
	BuildFile(ctx context.Context, table, path string) error
}
