// Package repo provides generic paginated, soft-delete-aware access to named
// entity collections. Each collection supplies a Schema describing its table,
// select list and row mapping; the repository owns clause building, the
// soft-delete default scope and the error taxonomy mapping.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fixline/admin-api/internal/apperr"
	"github.com/fixline/admin-api/internal/obs"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Schema describes how one entity collection maps onto its table.
type Schema[T any] struct {
	Table string

	// Columns is the select list, in the order Scan consumes it. Entries
	// may be expressions (coalesce and friends); they are never used for
	// writes, which derive their column lists from the supplied Fields.
	Columns []string

	// SoftDelete enables the default scope: reads filter deleted_at to
	// null unless the caller addresses deleted_at explicitly, and
	// DeleteByID stamps the row instead of removing it.
	SoftDelete bool

	Scan func(row RowScanner) (T, error)
}

// Repo is a typed repository over one entity collection.
type Repo[T any] struct {
	db     *sql.DB
	schema Schema[T]
}

func New[T any](db *sql.DB, schema Schema[T]) *Repo[T] {
	return &Repo[T]{db: db, schema: schema}
}

// scope applies the soft-delete default unless the filter already addresses
// deleted_at (callers opt into seeing deleted rows that way).
func (r *Repo[T]) scope(f Filter) Filter {
	if !r.schema.SoftDelete || f.touches("deleted_at") {
		return f
	}
	scoped := make(Filter, 0, len(f)+1)
	scoped = append(scoped, f...)
	return append(scoped, Null("deleted_at"))
}

func (r *Repo[T]) selectList() string {
	return strings.Join(r.schema.Columns, ", ")
}

// GetByID fetches one live row by primary key.
func (r *Repo[T]) GetByID(ctx context.Context, id int64) (T, error) {
	return r.GetOne(ctx, Filter{Eq("id", id)})
}

// GetOne fetches a single row matching the filter within the default scope.
func (r *Repo[T]) GetOne(ctx context.Context, f Filter) (T, error) {
	var zero T
	where, args, _ := r.scope(f).clause(1)
	query := fmt.Sprintf(`select %s from %s`, r.selectList(), r.schema.Table)
	if where != "" {
		query += " where " + where
	}
	query += " limit 1"
	row := r.db.QueryRowContext(ctx, query, args...)
	out, err := r.schema.Scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%w: %s", apperr.ErrNotFound, r.schema.Table)
	}
	if err != nil {
		return zero, r.internal("get one", err)
	}
	return out, nil
}

// Create inserts a row built from fields and returns the stored entity.
func (r *Repo[T]) Create(ctx context.Context, fields Fields) (T, error) {
	var zero T
	if len(fields) == 0 {
		return zero, fmt.Errorf("%w: no fields to insert", apperr.ErrValidation)
	}
	keys := fields.sortedKeys()
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = fields[k]
	}
	query := fmt.Sprintf(`insert into %s (%s) values (%s) returning %s`,
		r.schema.Table, strings.Join(keys, ", "), strings.Join(placeholders, ", "), r.selectList())
	row := r.db.QueryRowContext(ctx, query, args...)
	out, err := r.schema.Scan(row)
	if err != nil {
		if isUniqueViolation(err) {
			return zero, fmt.Errorf("%w: %s", apperr.ErrConflict, r.schema.Table)
		}
		return zero, r.internal("create", err)
	}
	return out, nil
}

// UpdateByID applies fields to one live row; zero affected rows is NotFound.
func (r *Repo[T]) UpdateByID(ctx context.Context, id int64, fields Fields) error {
	aff, err := r.UpdateWhere(ctx, Filter{Eq("id", id)}, fields)
	if err != nil {
		return err
	}
	if aff == 0 {
		return fmt.Errorf("%w: %s %d", apperr.ErrNotFound, r.schema.Table, id)
	}
	return nil
}

// UpdateWhere applies fields to every row matching the filter and reports the
// number of rows affected.
func (r *Repo[T]) UpdateWhere(ctx context.Context, f Filter, fields Fields) (int64, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: no fields to update", apperr.ErrValidation)
	}
	keys := fields.sortedKeys()
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(f))
	idx := 1
	for i, k := range keys {
		sets[i] = fmt.Sprintf("%s = $%d", k, idx)
		args = append(args, fields[k])
		idx++
	}
	where, whereArgs, _ := r.scope(f).clause(idx)
	args = append(args, whereArgs...)
	query := fmt.Sprintf(`update %s set %s`, r.schema.Table, strings.Join(sets, ", "))
	if where != "" {
		query += " where " + where
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", apperr.ErrConflict, r.schema.Table)
		}
		return 0, r.internal("update", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, r.internal("update", err)
	}
	return aff, nil
}

// DeleteByID removes one row: a timestamp stamp for soft-delete collections,
// a hard delete otherwise. Zero affected rows is NotFound.
func (r *Repo[T]) DeleteByID(ctx context.Context, id int64) error {
	if r.schema.SoftDelete {
		query := fmt.Sprintf(`update %s set deleted_at = now() where id = $1 and deleted_at is null`, r.schema.Table)
		res, err := r.db.ExecContext(ctx, query, id)
		if err != nil {
			return r.internal("delete", err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return r.internal("delete", err)
		}
		if aff == 0 {
			return fmt.Errorf("%w: %s %d", apperr.ErrNotFound, r.schema.Table, id)
		}
		return nil
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`delete from %s where id = $1`, r.schema.Table), id)
	if err != nil {
		return r.internal("delete", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return r.internal("delete", err)
	}
	if aff == 0 {
		return fmt.Errorf("%w: %s %d", apperr.ErrNotFound, r.schema.Table, id)
	}
	return nil
}

// DeleteWhere hard-deletes every row matching the filter, bypassing the
// soft-delete scope. Grant replacement relies on this.
func (r *Repo[T]) DeleteWhere(ctx context.Context, f Filter) (int64, error) {
	where, args, _ := f.clause(1)
	query := fmt.Sprintf(`delete from %s`, r.schema.Table)
	if where != "" {
		query += " where " + where
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, r.internal("delete where", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, r.internal("delete where", err)
	}
	return aff, nil
}

// internal logs the underlying cause and returns the generic sentinel. The
// cause text stays in the wrapped error for server-side logs only; the HTTP
// layer never serializes it.
func (r *Repo[T]) internal(op string, err error) error {
	obs.LogError("repository failure", err, map[string]any{
		"table": r.schema.Table,
		"op":    op,
	})
	return fmt.Errorf("%w: %s %s: %v", apperr.ErrInternal, op, r.schema.Table, err)
}
