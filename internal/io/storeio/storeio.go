package storeio

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/genomcat/pkg/io/modelio"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jinzhu/gorm"
)

// storeio implements store.Store on top of database/sql.
type storeio struct {
	cfg  config.Config
	reg  *schema.Registry
	dia  dialect
	db   *sql.DB
	pool *pgxpool.Pool
	grm  *gorm.DB
}

// New opens a connection to the store selected by cfg.StoreDriver.
func New(
	ctx context.Context,
	cfg config.Config,
	reg *schema.Registry,
) (store.Store, error) {
	db, pool, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res := storeio{
		cfg:  cfg,
		reg:  reg,
		dia:  dialect{name: cfg.StoreDriver},
		db:   db,
		pool: pool,
	}
	res.grm, err = gormConn(cfg.StoreDriver, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &res, nil
}

// Close closes database connections.
func (s *storeio) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// Migrate creates tables that do not exist yet.
func (s *storeio) Migrate(ctx context.Context) error {
	slog.Info("Running database migrations")
	for _, f := range s.reg.Families() {
		exists, err := s.tableExists(ctx, f.Table)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		parent := ""
		if f.IsChild() {
			parent = f.Parent.Table
		}
		if err = s.createTable(ctx, s.db, f, f.Table, parent); err != nil {
			slog.Error("Cannot create table", "table", f.Table, "error", err)
			return err
		}
	}

	if err := s.migrateStats(ctx); err != nil {
		slog.Error("Cannot migrate statistics", "error", err)
		return err
	}
	slog.Info("Database migrations completed")
	return nil
}

type execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

func (s *storeio) createTable(
	ctx context.Context,
	db execer,
	f *schema.Family,
	name, parent string,
) error {
	nonce := newNonce()
	qs := append(
		[]string{s.dia.tableDDL(f, name, parent, nonce)},
		s.dia.indexDDL(f, name, nonce)...,
	)
	for _, q := range qs {
		if _, err := db.ExecContext(ctx, q); err != nil {
			slog.Error("Cannot execute DDL", "error", err, "query", q)
			return err
		}
	}
	return nil
}

// tableExists probes a table with a query that returns no rows.
func (s *storeio) tableExists(ctx context.Context, table string) (bool, error) {
	q := "SELECT 1 FROM " + s.dia.quote(table) + " WHERE 1=0"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	rows.Close()
	return true, nil
}

func (s *storeio) migrateStats(ctx context.Context) error {
	if s.cfg.StoreDriver != config.SQLite {
		return modelio.New(s.grm).Migrate()
	}
	exists, err := s.tableExists(ctx, "statistics")
	if err != nil || exists {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.dia.statsDDL())
	return err
}
