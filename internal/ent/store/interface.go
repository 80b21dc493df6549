package store

import (
	"context"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/pkg/ent/model"
)

// Store is the relational record store.
type Store interface {
	// Migrate creates missing family tables and the statistics table.
	Migrate(ctx context.Context) error

	// Count returns the number of records matching a query.
	Count(ctx context.Context, q *query.Query) (int64, error)

	// List returns one page of records matching a query.
	List(ctx context.Context, q *query.Query) ([]model.Record, error)

	// Each streams all records matching a query, ignoring pagination, in
	// the same order as List.
	Each(ctx context.Context, q *query.Query, fn func(model.Record) error) error

	// Get returns one record by its primary key. It returns an error
	// wrapping query.ErrNotFound if there is no such record.
	Get(ctx context.Context, f *schema.Family, id int64) (model.Record, error)

	// Distinct returns distinct non-empty values of a field. Set fields are
	// flattened into their elements.
	Distinct(ctx context.Context, f *schema.Family, field string) ([]string, error)

	// Replace starts a full replacement of the given families. Families
	// stay readable with old data until the replacement is committed.
	Replace(ctx context.Context, fams ...*schema.Family) (Replacement, error)

	// Statistics returns all statistic rows.
	Statistics(ctx context.Context) ([]model.Statistic, error)

	// Statistic returns one statistic row or query.ErrNotFound.
	Statistic(ctx context.Context, name string) (model.Statistic, error)

	// SaveStatistic creates or updates one statistic row.
	SaveStatistic(ctx context.Context, st model.Statistic) error

	// ReplaceStatistics replaces all statistic rows in one transaction.
	ReplaceStatistics(ctx context.Context, sts []model.Statistic) error

	// Close releases connections.
	Close() error
}

// Replacement is an ongoing full replacement of families.
type Replacement interface {
	// Insert saves one chunk of records of a family in its own
	// transaction. Records must have ids assigned.
	Insert(ctx context.Context, f *schema.Family, recs []model.Record) (int64, error)

	// Commit swaps new data in for the old one atomically.
	Commit(ctx context.Context) error

	// Abort discards new data.
	Abort(ctx context.Context) error
}
