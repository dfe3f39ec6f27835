/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/fpmstore/storagemodels"
)

// Managed columns present on every table.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnDeletedAt = "deleted_at"
)

type DataStore interface {
	Find(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, error)

	// First returns the first matching row, or nil when nothing matches.
	First(ctx context.Context, q *storagemodels.QueryData) (storagemodels.Record, error)

	Count(ctx context.Context, b *storagemodels.BaseData) (int64, error)

	FindAndCount(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, int64, error)

	// Create inserts row into b.Table and returns the stored row.
	Create(ctx context.Context, b *storagemodels.BaseData, row storagemodels.CommonMap) (storagemodels.Record, error)

	Updates(ctx context.Context, b *storagemodels.BaseData, updates storagemodels.CommonMap) (int64, error)

	// Remove soft deletes the matching rows.
	Remove(ctx context.Context, b *storagemodels.BaseData) (int64, error)

	Execute(ctx context.Context, statement string, args ...interface{}) (int64, error)

	Raw(ctx context.Context, statement string, args ...interface{}) ([]storagemodels.Record, error)

	Stream(ctx context.Context, q *storagemodels.QueryData, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult

	Transaction(ctx context.Context, body func(DataStore) error) error

	Close() error
}

// Migrator is implemented by backends that apply versioned scripts.
type Migrator interface {
	AutoMigrate(ctx context.Context, dir string) error
}

// WritableColumns drops empty and managed timestamp keys and normalizes JSON numbers.
func WritableColumns(row storagemodels.CommonMap) storagemodels.CommonMap {
	out := make(storagemodels.CommonMap, len(row))
	for k, v := range row {
		if k == "" || storagemodels.IsTimestampKey(k) {
			continue
		}
		switch k {
		case ColumnCreatedAt, ColumnUpdatedAt, ColumnDeletedAt:
			continue
		}
		out[k] = storagemodels.NormalizeNumber(v)
	}
	return out
}
