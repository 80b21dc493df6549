package dump

import "context"

// Dumper is the interface that wraps the Dump method.
type Dumper interface {
	// Dump writes every non-empty family to a CSV file named after its
	// table.
	Dump(ctx context.Context) error
}
