package build

import (
	"fmt"
	"strings"
)

// SchemaDriftError means required columns are absent from a source file.
// It aborts the import of the family.
type SchemaDriftError struct {
	// Table is the family being imported.
	Table string

	// Path is the source file.
	Path string

	// Missing are the absent source columns.
	Missing []string
}

func (e *SchemaDriftError) Error() string {
	return fmt.Sprintf("%s: source %s misses required columns: %s",
		e.Table, e.Path, strings.Join(e.Missing, ", "))
}
