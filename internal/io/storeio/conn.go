package storeio

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"

	"github.com/gnames/genomcat/pkg/config"
	"github.com/gnames/gnsys"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "modernc.org/sqlite"
)

func pgxConn(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(pgOpts(cfg))
	if err != nil {
		slog.Error("Cannot parse pgx config", "error", err)
		return nil, err
	}
	pgxCfg.MaxConns = int32(max(cfg.JobsNum*2, 4))

	db, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		slog.Error("Cannot connect to database", "error", err)
		return nil, err
	}
	return db, nil
}

func pgOpts(cfg config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.PgHost, cfg.PgPort, cfg.PgUser, cfg.PgPass, cfg.PgDB,
	)
}

func myConn(cfg config.Config) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.MyUser
	mc.Passwd = cfg.MyPass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.MyHost, strconv.Itoa(cfg.MyPort))
	mc.DBName = cfg.MyDB
	mc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		slog.Error("Cannot connect to MySQL", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(max(cfg.JobsNum*2, 4))
	return db, nil
}

func sqliteConn(cfg config.Config) (*sql.DB, error) {
	err := gnsys.MakeDir(filepath.Dir(cfg.SQLitePath))
	if err != nil {
		slog.Error("Cannot create directory", "error", err,
			"dir", filepath.Dir(cfg.SQLitePath))
		return nil, err
	}
	dsn := "file:" + cfg.SQLitePath +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		slog.Error("Cannot open SQLite database", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// gormConn wraps an open connection for static models. SQLite has no gorm
// v1 dialect without cgo, so it runs on the common dialect.
func gormConn(driver string, db *sql.DB) (*gorm.DB, error) {
	name := driver
	if driver == config.SQLite {
		name = "common"
	}
	grm, err := gorm.Open(name, db)
	if err != nil {
		slog.Error("Cannot connect to database", "error", err)
		return nil, err
	}
	grm.LogMode(false)
	return grm, nil
}

func openDB(
	ctx context.Context,
	cfg config.Config,
) (*sql.DB, *pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case config.Postgres:
		pool, err := pgxConn(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return stdlib.OpenDBFromPool(pool), pool, nil
	case config.MySQL:
		db, err := myConn(cfg)
		return db, nil, err
	case config.SQLite:
		db, err := sqliteConn(cfg)
		return db, nil, err
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
