/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fpmstore

import (
	"context"
	"fmt"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/registry"
	"github.com/suparena/fpmstore/storagemodels"
)

// Collection is a typed view of one table. Rows are converted to and from T
// through its json tags.
type Collection[T any] struct {
	ds    datastore.DataStore
	table string
}

// NewCollection binds T to ds. The table comes from registry.RegisterModel
// or a TableName method on T.
func NewCollection[T any](ds datastore.DataStore) (*Collection[T], error) {
	table, ok := registry.TableOf[T]()
	if !ok {
		var zero T
		return nil, fmt.Errorf("no table registered for %T", zero)
	}
	return &Collection[T]{ds: ds, table: table}, nil
}

func (c *Collection[T]) Table() string {
	return c.table
}

// Query returns an unbounded query on the collection's table.
func (c *Collection[T]) Query() *storagemodels.QueryData {
	return storagemodels.NewQuery().SetTable(c.table)
}

func (c *Collection[T]) bind(q *storagemodels.QueryData) *storagemodels.QueryData {
	if q == nil {
		return c.Query()
	}
	q = q.Clone()
	q.SetTable(c.table)
	return q
}

func (c *Collection[T]) Find(ctx context.Context, q *storagemodels.QueryData) ([]T, error) {
	rows, err := c.ds.Find(ctx, c.bind(q))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	if err := storagemodels.DecodeRecords(rows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// First returns nil when nothing matches.
func (c *Collection[T]) First(ctx context.Context, q *storagemodels.QueryData) (*T, error) {
	rec, err := c.ds.First(ctx, c.bind(q))
	if err != nil || rec == nil {
		return nil, err
	}
	var out T
	if err := storagemodels.DecodeRecord(rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id interface{}) (*T, error) {
	item, err := c.First(ctx, c.Query().SetCondition("id = ?", id))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NewNotFoundError(c.table, fmt.Sprint(id))
	}
	return item, nil
}

func (c *Collection[T]) Count(ctx context.Context, condition string, args ...interface{}) (int64, error) {
	return c.ds.Count(ctx, c.Query().SetCondition(condition, args...).BaseData)
}

func (c *Collection[T]) FindAndCount(ctx context.Context, q *storagemodels.QueryData) ([]T, int64, error) {
	rows, total, err := c.ds.FindAndCount(ctx, c.bind(q))
	if err != nil {
		return nil, 0, err
	}
	out := make([]T, 0, len(rows))
	if err := storagemodels.DecodeRecords(rows, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create stores item and returns it as stored, with id and timestamps set.
func (c *Collection[T]) Create(ctx context.Context, item T) (*T, error) {
	row, err := storagemodels.EncodeRecord(item)
	if err != nil {
		return nil, err
	}
	rec, err := c.ds.Create(ctx, storagemodels.NewBaseData(c.table), row)
	if err != nil {
		return nil, err
	}
	var out T
	if err := storagemodels.DecodeRecord(rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies fields to the row with id and reports whether it existed.
func (c *Collection[T]) Update(ctx context.Context, id interface{}, fields map[string]interface{}) (bool, error) {
	b := storagemodels.NewBaseData(c.table)
	b.Condition, b.Arguments = "id = ?", []interface{}{id}
	n, err := c.ds.Updates(ctx, b, storagemodels.CommonMap(fields))
	return n > 0, err
}

// Remove soft deletes the row with id and reports whether it existed.
func (c *Collection[T]) Remove(ctx context.Context, id interface{}) (bool, error) {
	b := storagemodels.NewBaseData(c.table)
	b.Condition, b.Arguments = "id = ?", []interface{}{id}
	n, err := c.ds.Remove(ctx, b)
	return n > 0, err
}
