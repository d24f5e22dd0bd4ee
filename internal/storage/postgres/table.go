package postgres

import (
	"context"
	"errors"

	"github.com/gocraft/dbr/v2"
)

// table holds the CRUD operations every entity shares: lookup by integer
// primary key, a stable id-ordered window, and delete. Inserts and updates
// are written per entity with explicit columns.
type table[T any] struct {
	name    string
	columns []string
}

func (t table[T]) selectColumns() []string {
	if len(t.columns) == 0 {
		return []string{"*"}
	}
	return t.columns
}

// get returns nil without error when no row has the id.
func (t table[T]) get(ctx context.Context, r dbr.SessionRunner, id int64) (*T, error) {
	var row T

	err := r.Select(t.selectColumns()...).
		From(t.name).
		Where("id = ?", id).
		LoadOneContext(ctx, &row)

	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func (t table[T]) list(ctx context.Context, r dbr.SessionRunner, offset, limit int) ([]T, error) {
	rows := []T{}

	stmt := r.Select(t.selectColumns()...).
		From(t.name).
		OrderBy("id")
	if offset > 0 {
		stmt = stmt.Offset(uint64(offset))
	}
	if limit > 0 {
		stmt = stmt.Limit(uint64(limit))
	}

	if _, err := stmt.LoadContext(ctx, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// delete reports whether a row was removed.
func (t table[T]) delete(ctx context.Context, r dbr.SessionRunner, id int64) (bool, error) {
	result, err := r.DeleteFrom(t.name).
		Where("id = ?", id).
		ExecContext(ctx)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
