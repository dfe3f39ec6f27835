/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package client

import (
	"context"
	"strings"

	"github.com/suparena/fpmstore/storagemodels"
)

// Query builds a read against one table. Builder methods return the query so
// calls chain; a Query should not be shared between goroutines while built.
type Query struct {
	c         *Client
	table     string
	fields    []string
	condition interface{}
	args      []interface{}
	skip      int
	limit     int
	sorts     []string
}

// Query starts a query on table.
func (c *Client) Query(table string) *Query {
	return NewQuery(c, table)
}

func NewQuery(c *Client, table string) *Query {
	return &Query{c: c, table: table}
}

// Select limits the returned fields. Each argument may itself be a comma
// separated list.
func (q *Query) Select(fields ...string) *Query {
	for _, f := range fields {
		q.fields = append(q.fields, storagemodels.ParseFields(f)...)
	}
	return q
}

// Condition sets a SQL-like filter with ? placeholders for args.
func (q *Query) Condition(expr string, args ...interface{}) *Query {
	q.condition = expr
	q.args = args
	return q
}

// Where filters by equality on every key of m.
func (q *Query) Where(m map[string]interface{}) *Query {
	q.condition = m
	q.args = nil
	return q
}

// Page selects page number (from 1) of the given size.
func (q *Query) Page(number, size int) *Query {
	if number < 1 {
		number = 1
	}
	q.skip = (number - 1) * size
	q.limit = size
	return q
}

func (q *Query) Skip(n int) *Query {
	q.skip = n
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Sort adds an ordering: "name-" descending, "name+" or "name" ascending.
func (q *Query) Sort(spec string) *Query {
	q.sorts = append(q.sorts, spec)
	return q
}

func (q *Query) param() *storagemodels.QueryRequest {
	return &storagemodels.QueryRequest{
		Table:     q.table,
		Condition: q.condition,
		Arguments: q.args,
		Fields:    strings.Join(q.fields, ","),
		Skip:      q.skip,
		Limit:     q.limit,
		Sort:      strings.Join(q.sorts, ","),
	}
}

func (q *Query) Find(ctx context.Context) ([]storagemodels.Record, error) {
	var rows []storagemodels.Record
	if err := q.c.Execute(ctx, "common.find", q.param(), &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		normalize(r)
	}
	if rows == nil {
		rows = make([]storagemodels.Record, 0)
	}
	return rows, nil
}

// First returns the first matching record, or nil when there is none.
func (q *Query) First(ctx context.Context) (storagemodels.Record, error) {
	var rec storagemodels.Record
	if err := q.c.Execute(ctx, "common.first", q.param(), &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return normalize(rec), nil
}

// Count ignores the paging window.
func (q *Query) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := q.c.Execute(ctx, "common.count", q.param(), &n); err != nil {
		return 0, err
	}
	return n, nil
}

// FindAndCount returns one page and the total number of matches.
func (q *Query) FindAndCount(ctx context.Context) ([]storagemodels.Record, int64, error) {
	var out struct {
		Count int64                  `json:"count"`
		Rows  []storagemodels.Record `json:"rows"`
	}
	if err := q.c.Execute(ctx, "common.findAndCount", q.param(), &out); err != nil {
		return nil, 0, err
	}
	for _, r := range out.Rows {
		normalize(r)
	}
	if out.Rows == nil {
		out.Rows = make([]storagemodels.Record, 0)
	}
	return out.Rows, out.Count, nil
}

// Clear removes every record matching the condition and returns how many
// were removed. Without a condition the whole table is cleared.
func (q *Query) Clear(ctx context.Context) (int64, error) {
	var n int64
	if err := q.c.Execute(ctx, "common.clear", q.param(), &n); err != nil {
		return 0, err
	}
	return n, nil
}
