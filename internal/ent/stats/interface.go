package stats

import "context"

// Materializer recomputes cached statistics: row counts and filter options
// of every family.
type Materializer interface {
	// Materialize replaces all statistic rows in one transaction.
	Materialize(ctx context.Context) error
}
