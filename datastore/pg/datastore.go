/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/storagemodels"
)

var _ datastore.DataStore = (*DataStore)(nil)

func (d *DataStore) Find(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	stmt, args := buildSelect(q)
	return d.query(ctx, q.Table, stmt, args)
}

func (d *DataStore) First(ctx context.Context, q *storagemodels.QueryData) (storagemodels.Record, error) {
	c := q.Clone()
	skip, _ := q.Window()
	c.SetPager(&storagemodels.Pagination{Skip: skip, Limit: 1})
	rows, err := d.Find(ctx, c)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (d *DataStore) Count(ctx context.Context, b *storagemodels.BaseData) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	stmt, args := buildCount(b)
	d.logSQL(stmt, args)

	var total int64
	if err := d.q.QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, translateError(b.Table, "count", err)
	}
	return total, nil
}

func (d *DataStore) FindAndCount(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, int64, error) {
	rows, err := d.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := d.Count(ctx, q.BaseData)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (d *DataStore) Create(ctx context.Context, b *storagemodels.BaseData, row storagemodels.CommonMap) (storagemodels.Record, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	values := datastore.WritableColumns(row)
	for k := range values {
		if !storagemodels.ValidIdentifier(k) {
			return nil, errors.NewValidationError("row", fmt.Sprintf("invalid column %q", k))
		}
	}

	stmt, args := buildInsert(b.Table, values, d.now())
	rows, err := d.query(ctx, b.Table, stmt, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s returned no row", b.Table)
	}
	return rows[0], nil
}

func (d *DataStore) Updates(ctx context.Context, b *storagemodels.BaseData, updates storagemodels.CommonMap) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	values := datastore.WritableColumns(updates)
	delete(values, datastore.ColumnID)
	if len(values) == 0 {
		return 0, errors.NewValidationError("row", "no writable columns")
	}
	for k := range values {
		if !storagemodels.ValidIdentifier(k) {
			return 0, errors.NewValidationError("row", fmt.Sprintf("invalid column %q", k))
		}
	}

	stmt, args := buildUpdate(b, values, d.now())
	return d.exec(ctx, b.Table, "update", stmt, args)
}

func (d *DataStore) Remove(ctx context.Context, b *storagemodels.BaseData) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	stmt, args := buildRemove(b, d.now())
	return d.exec(ctx, b.Table, "remove", stmt, args)
}

// Execute runs a statement with "?" placeholders and returns the affected row count.
func (d *DataStore) Execute(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	return d.exec(ctx, "", "execute", Rebind(statement, 0), normalizeArgs(args))
}

// Raw runs a query with "?" placeholders.
func (d *DataStore) Raw(ctx context.Context, statement string, args ...interface{}) ([]storagemodels.Record, error) {
	return d.query(ctx, "", Rebind(statement, 0), normalizeArgs(args))
}

func (d *DataStore) Stream(ctx context.Context, q *storagemodels.QueryData, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	fetch := func(ctx context.Context, skip, limit int) ([]storagemodels.Record, error) {
		page := q.Clone()
		page.SetPager(&storagemodels.Pagination{Skip: skip, Limit: limit})
		return d.Find(ctx, page)
	}
	return datastore.PagedStream(ctx, q, fetch, isRetryableError, opts...)
}

// Transaction runs body inside a database transaction. A store already bound to
// a transaction runs body directly within it.
func (d *DataStore) Transaction(ctx context.Context, body func(datastore.DataStore) error) error {
	if d.tx != nil {
		return body(d)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	txStore := &DataStore{
		pool:    d.pool,
		q:       tx,
		tx:      tx,
		showSQL: d.showSQL,
		loggers: d.loggers,
		now:     d.now,
	}

	if err := body(txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !stderrors.Is(rbErr, pgx.ErrTxClosed) {
			d.loggers.Warnf("rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *DataStore) query(ctx context.Context, table, stmt string, args []interface{}) ([]storagemodels.Record, error) {
	d.logSQL(stmt, args)
	rows, err := d.q.Query(ctx, stmt, args...)
	if err != nil {
		return nil, translateError(table, "query", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, translateError(table, "query", err)
	}
	out := make([]storagemodels.Record, 0, len(maps))
	for _, m := range maps {
		out = append(out, storagemodels.Record(m))
	}
	return out, nil
}

func (d *DataStore) exec(ctx context.Context, table, op, stmt string, args []interface{}) (int64, error) {
	d.logSQL(stmt, args)
	tag, err := d.q.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, translateError(table, op, err)
	}
	return tag.RowsAffected(), nil
}

// PostgreSQL error codes mapped onto the error taxonomy.
const (
	codeUniqueViolation = "23505"
	codeSyntaxError     = "42601"
	codeUndefinedColumn = "42703"
	codeUndefinedTable  = "42P01"
)

func translateError(table, op string, err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s %s: %w", op, table, errors.NewAlreadyExistsError(table, pgErr.Detail))
		case codeSyntaxError, codeUndefinedColumn:
			return fmt.Errorf("%s %s: %w", op, table, errors.NewValidationError("condition", pgErr.Message))
		case codeUndefinedTable:
			return fmt.Errorf("%s %s: %w", op, table, errors.NewNotFoundError("table", table))
		}
	}
	return fmt.Errorf("%s %s failed: %w", op, table, err)
}

func isRetryableError(err error) bool {
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}
