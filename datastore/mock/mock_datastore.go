/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory DataStore for tests and the memory engine
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/datastore/expr"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/storagemodels"
)

type table struct {
	rows   []storagemodels.Record
	nextID int64
}

// DataStore keeps rows per table in memory and evaluates conditions with package expr.
type DataStore struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	tables map[string]*table
	now    func() time.Time

	findFunc    func(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, error)
	findError   error
	createError error
	updateError error
	removeError error
}

var _ datastore.DataStore = (*DataStore)(nil)

// New creates an empty in-memory DataStore
func New() *DataStore {
	return &DataStore{
		tables: make(map[string]*table),
		now:    time.Now,
	}
}

// WithFindFunc replaces the query logic of Find, First and Stream
func (m *DataStore) WithFindFunc(f func(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, error)) *DataStore {
	m.findFunc = f
	return m
}

// WithFindError makes read operations return an error
func (m *DataStore) WithFindError(err error) *DataStore {
	m.findError = err
	return m
}

// WithCreateError makes Create return an error
func (m *DataStore) WithCreateError(err error) *DataStore {
	m.createError = err
	return m
}

// WithUpdateError makes Updates return an error
func (m *DataStore) WithUpdateError(err error) *DataStore {
	m.updateError = err
	return m
}

// WithRemoveError makes Remove return an error
func (m *DataStore) WithRemoveError(err error) *DataStore {
	m.removeError = err
	return m
}

// WithClock sets the time source used for managed timestamps
func (m *DataStore) WithClock(now func() time.Time) *DataStore {
	m.now = now
	return m
}

func (m *DataStore) Find(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, error) {
	if m.findError != nil {
		return nil, m.findError
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if m.findFunc != nil {
		return m.findFunc(ctx, q)
	}

	rows, err := m.match(q.BaseData)
	if err != nil {
		return nil, err
	}
	expr.SortRecords(rows, q.Sorter)
	skip, limit := q.Window()
	rows = expr.Page(rows, skip, limit)

	out := make([]storagemodels.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, expr.Project(r, q.Fields))
	}
	return out, nil
}

func (m *DataStore) First(ctx context.Context, q *storagemodels.QueryData) (storagemodels.Record, error) {
	c := q.Clone()
	skip, _ := q.Window()
	c.SetPager(&storagemodels.Pagination{Skip: skip, Limit: 1})
	rows, err := m.Find(ctx, c)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (m *DataStore) Count(ctx context.Context, b *storagemodels.BaseData) (int64, error) {
	if m.findError != nil {
		return 0, m.findError
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	rows, err := m.match(b)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (m *DataStore) FindAndCount(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, int64, error) {
	rows, err := m.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := m.Count(ctx, q.BaseData)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (m *DataStore) Create(ctx context.Context, b *storagemodels.BaseData, row storagemodels.CommonMap) (storagemodels.Record, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(b.Table)
	rec := storagemodels.Record(datastore.WritableColumns(row))

	if id, ok := rec[datastore.ColumnID]; ok && id != nil {
		for _, existing := range t.rows {
			if c, ok := expr.CompareValues(existing[datastore.ColumnID], id); ok && c == 0 {
				return nil, errors.NewAlreadyExistsError(b.Table, fmt.Sprint(id))
			}
		}
		if n, ok := id.(int64); ok && n > t.nextID {
			t.nextID = n
		}
	} else {
		t.nextID++
		rec[datastore.ColumnID] = t.nextID
	}

	now := storagemodels.FormatTimestamp(m.now())
	rec[datastore.ColumnCreatedAt] = now
	rec[datastore.ColumnUpdatedAt] = now
	t.rows = append(t.rows, rec)

	return expr.Project(rec, nil), nil
}

func (m *DataStore) Updates(ctx context.Context, b *storagemodels.BaseData, updates storagemodels.CommonMap) (int64, error) {
	if m.updateError != nil {
		return 0, m.updateError
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	values := datastore.WritableColumns(updates)
	delete(values, datastore.ColumnID)
	if len(values) == 0 {
		return 0, errors.NewValidationError("row", "no writable columns")
	}
	return m.mutate(b, func(rec storagemodels.Record, now string) {
		for k, v := range values {
			rec[k] = v
		}
		rec[datastore.ColumnUpdatedAt] = now
	})
}

func (m *DataStore) Remove(ctx context.Context, b *storagemodels.BaseData) (int64, error) {
	if m.removeError != nil {
		return 0, m.removeError
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return m.mutate(b, func(rec storagemodels.Record, now string) {
		rec[datastore.ColumnDeletedAt] = now
	})
}

// Execute is not available without a SQL engine.
func (m *DataStore) Execute(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	return 0, errors.NewUnsupportedError("memory", "raw statements")
}

// Raw is not available without a SQL engine.
func (m *DataStore) Raw(ctx context.Context, statement string, args ...interface{}) ([]storagemodels.Record, error) {
	return nil, errors.NewUnsupportedError("memory", "raw statements")
}

func (m *DataStore) Stream(ctx context.Context, q *storagemodels.QueryData, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	fetch := func(ctx context.Context, skip, limit int) ([]storagemodels.Record, error) {
		page := q.Clone()
		page.SetPager(&storagemodels.Pagination{Skip: skip, Limit: limit})
		return m.Find(ctx, page)
	}
	return datastore.PagedStream(ctx, q, fetch, nil, opts...)
}

// Transaction runs body against the store and restores the previous contents if it fails.
// Transactions are serialized with each other but not isolated from direct calls.
// A Transaction started from body joins the outer one.
func (m *DataStore) Transaction(ctx context.Context, body func(datastore.DataStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.snapshot()
	if err := body(txDataStore{m}); err != nil {
		m.mu.Lock()
		m.tables = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// txDataStore is the store as seen from inside a transaction body.
type txDataStore struct {
	*DataStore
}

func (t txDataStore) Transaction(ctx context.Context, body func(datastore.DataStore) error) error {
	return body(t)
}

func (m *DataStore) Close() error {
	return nil
}

// Helper methods for testing

// SetData replaces the rows of a table. Rows are stored as given, including managed columns.
func (m *DataStore) SetData(tableName string, rows []storagemodels.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &table{}
	for _, r := range rows {
		rec := expr.Project(r, nil)
		if id, ok := rec[datastore.ColumnID].(int64); ok && id > t.nextID {
			t.nextID = id
		}
		t.rows = append(t.rows, rec)
	}
	m.tables[tableName] = t
}

// GetData returns a copy of every row of a table, soft deleted rows included
func (m *DataStore) GetData(tableName string) []storagemodels.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[tableName]
	if !ok {
		return nil
	}
	out := make([]storagemodels.Record, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, expr.Project(r, nil))
	}
	return out
}

// Len returns the number of stored rows of a table, soft deleted rows included
func (m *DataStore) Len(tableName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tables[tableName]; ok {
		return len(t.rows)
	}
	return 0
}

// Clear removes all data
func (m *DataStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = make(map[string]*table)
}

func (m *DataStore) table(name string) *table {
	t, ok := m.tables[name]
	if !ok {
		t = &table{}
		m.tables[name] = t
	}
	return t
}

// match returns copies of the live rows satisfying b.
func (m *DataStore) match(b *storagemodels.BaseData) ([]storagemodels.Record, error) {
	n, err := expr.Parse(b.Condition, b.Arguments)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[b.Table]
	if !ok {
		return []storagemodels.Record{}, nil
	}
	out := make([]storagemodels.Record, 0)
	for _, r := range t.rows {
		if r[datastore.ColumnDeletedAt] != nil {
			continue
		}
		if expr.Eval(n, r) {
			out = append(out, expr.Project(r, nil))
		}
	}
	return out, nil
}

func (m *DataStore) mutate(b *storagemodels.BaseData, apply func(rec storagemodels.Record, now string)) (int64, error) {
	n, err := expr.Parse(b.Condition, b.Arguments)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[b.Table]
	if !ok {
		return 0, nil
	}
	now := storagemodels.FormatTimestamp(m.now())
	var affected int64
	for _, r := range t.rows {
		if r[datastore.ColumnDeletedAt] != nil || !expr.Eval(n, r) {
			continue
		}
		apply(r, now)
		affected++
	}
	return affected, nil
}

func (m *DataStore) snapshot() map[string]*table {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*table, len(m.tables))
	for name, t := range m.tables {
		c := &table{nextID: t.nextID, rows: make([]storagemodels.Record, 0, len(t.rows))}
		for _, r := range t.rows {
			c.rows = append(c.rows, expr.Project(r, nil))
		}
		out[name] = c
	}
	return out
}
