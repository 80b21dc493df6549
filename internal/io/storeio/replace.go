package storeio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnames/genomcat/internal/ent/schema"
	"github.com/gnames/genomcat/internal/ent/store"
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/jackc/pgx/v5"
)

// replacement loads new data into staging tables and swaps them in on
// commit.
type replacement struct {
	s    *storeio
	fams []*schema.Family
	done bool
}

// Replace creates fresh staging tables for the families. Parent families
// must precede their children.
func (s *storeio) Replace(
	ctx context.Context,
	fams ...*schema.Family,
) (store.Replacement, error) {
	res := &replacement{s: s, fams: fams}
	if err := res.dropStaging(ctx); err != nil {
		return nil, err
	}
	for _, f := range fams {
		parent := ""
		if f.IsChild() {
			parent = stagingName(f.Parent.Table)
		}
		err := s.createTable(ctx, s.db, f, stagingName(f.Table), parent)
		if err != nil {
			slog.Error("Cannot create staging table", "table", f.Table,
				"error", err)
			_ = res.dropStaging(ctx)
			return nil, err
		}
	}
	return res, nil
}

// Insert saves one chunk into the staging table of a family in its own
// transaction.
func (r *replacement) Insert(
	ctx context.Context,
	f *schema.Family,
	recs []model.Record,
) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	cols := columns(f)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, len(cols))
		for j, c := range cols {
			v, err := r.s.dia.bind(c, rec[c.Name])
			if err != nil {
				return 0, err
			}
			row[j] = v
		}
		rows[i] = row
	}

	if r.s.pool != nil {
		return r.copyRows(ctx, stagingName(f.Table), names, rows)
	}
	return r.insertRows(ctx, stagingName(f.Table), names, rows)
}

func (r *replacement) copyRows(
	ctx context.Context,
	tbl string,
	columns []string,
	rows [][]any,
) (int64, error) {
	tx, err := r.s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{tbl},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		slog.Error("Cannot copy rows", "table", tbl, "error", err)
		return 0, err
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return copyCount, nil
}

func (r *replacement) insertRows(
	ctx context.Context,
	tbl string,
	columns []string,
	rows [][]any,
) (int64, error) {
	d := r.s.dia
	quoted := make([]string, len(columns))
	phs := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.quote(c)
		phs[i] = d.ph(i + 1)
	}
	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.quote(tbl),
		strings.Join(quoted, ", "), strings.Join(phs, ", "))

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		slog.Error("Cannot prepare insert", "table", tbl, "error", err)
		return 0, err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			slog.Error("Cannot insert row", "table", tbl, "error", err)
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// Commit replaces live tables with staging ones. Children are dropped
// before parents.
func (r *replacement) Commit(ctx context.Context) error {
	if r.done {
		return fmt.Errorf("replacement is already finished")
	}
	r.done = true
	if r.s.dia.isMy() {
		return r.renameMySQL(ctx)
	}

	d := r.s.dia
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var qs []string
	for i := len(r.fams) - 1; i >= 0; i-- {
		qs = append(qs, "DROP TABLE IF EXISTS "+d.quote(r.fams[i].Table))
	}
	for _, f := range r.fams {
		qs = append(qs, "ALTER TABLE "+d.quote(stagingName(f.Table))+
			" RENAME TO "+d.quote(f.Table))
	}
	if err = execAll(ctx, tx, qs); err != nil {
		return err
	}
	return tx.Commit()
}

// renameMySQL swaps tables with one atomic RENAME TABLE statement. DDL
// in MySQL commits implicitly, so old tables are dropped afterwards.
func (r *replacement) renameMySQL(ctx context.Context) error {
	d := r.s.dia
	nonce := newNonce()
	var renames, drops []string
	for _, f := range r.fams {
		exists, err := r.s.tableExists(ctx, f.Table)
		if err != nil {
			return err
		}
		if exists {
			old := f.Table + "__old_" + nonce
			renames = append(renames, d.quote(f.Table)+" TO "+d.quote(old))
			drops = append([]string{"DROP TABLE IF EXISTS " + d.quote(old)},
				drops...)
		}
		renames = append(renames,
			d.quote(stagingName(f.Table))+" TO "+d.quote(f.Table))
	}
	qs := append([]string{"RENAME TABLE " + strings.Join(renames, ", ")},
		drops...)
	return execAll(ctx, r.s.db, qs)
}

// Abort drops staging tables.
func (r *replacement) Abort(ctx context.Context) error {
	if r.done {
		return nil
	}
	r.done = true
	return r.dropStaging(ctx)
}

func (r *replacement) dropStaging(ctx context.Context) error {
	var qs []string
	for i := len(r.fams) - 1; i >= 0; i-- {
		qs = append(qs, "DROP TABLE IF EXISTS "+
			r.s.dia.quote(stagingName(r.fams[i].Table)))
	}
	return execAll(ctx, r.s.db, qs)
}

func execAll(ctx context.Context, db execer, qs []string) error {
	for _, q := range qs {
		if _, err := db.ExecContext(ctx, q); err != nil {
			slog.Error("Cannot execute query", "error", err, "query", q)
			return err
		}
	}
	return nil
}
