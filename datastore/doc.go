/*
Package datastore defines the storage interface behind the data API.

A DataStore works on schemaless rows (storagemodels.Record) addressed by a
table and a SQL-like condition with ? placeholders:

	type DataStore interface {
	    Find(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, error)
	    First(ctx context.Context, q *storagemodels.QueryData) (storagemodels.Record, error)
	    Count(ctx context.Context, b *storagemodels.BaseData) (int64, error)
	    Create(ctx context.Context, b *storagemodels.BaseData, row storagemodels.CommonMap) (storagemodels.Record, error)
	    Updates(ctx context.Context, b *storagemodels.BaseData, updates storagemodels.CommonMap) (int64, error)
	    Remove(ctx context.Context, b *storagemodels.BaseData) (int64, error)
	    ...
	}

Every table carries the managed columns id, created_at, updated_at and
deleted_at. Remove is a soft delete and reads skip deleted rows.

Implementations:
  - pg: PostgreSQL through pgx, with versioned migrations
  - ddb: DynamoDB, one item per row, conditions compiled to filter expressions
  - mock: in memory, used by tests and the memory engine
*/
package datastore
