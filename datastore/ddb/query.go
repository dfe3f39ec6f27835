/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/datastore/expr"
	"github.com/suparena/fpmstore/storagemodels"
)

const liveItems = "attribute_not_exists(#deleted)"

// scanFilter holds the filter part of a ScanInput.
type scanFilter struct {
	expression *string
	names      map[string]string
	values     map[string]types.AttributeValue
	never      bool
}

func buildScanFilter(b *storagemodels.BaseData) (*scanFilter, error) {
	n, err := expr.Parse(b.Condition, b.Arguments)
	if err != nil {
		return nil, err
	}
	f, err := expr.ToDynamo(n)
	if err != nil {
		return nil, err
	}
	if f.Never {
		return &scanFilter{never: true}, nil
	}

	values, err := marshalValues(f.Values)
	if err != nil {
		return nil, err
	}
	names := f.Names
	names["#deleted"] = datastore.ColumnDeletedAt

	return &scanFilter{
		expression: aws.String(expr.And(f.Expression, liveItems)),
		names:      names,
		values:     values,
	}, nil
}

func (f *scanFilter) input(table *string, limit int32) *sdk.ScanInput {
	in := &sdk.ScanInput{
		TableName:                 table,
		FilterExpression:          f.expression,
		ExpressionAttributeNames:  f.names,
		ExpressionAttributeValues: f.values,
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}
	return in
}

// scanAll reads every live item matching b.
func (d *DynamodbDataStore) scanAll(ctx context.Context, b *storagemodels.BaseData) ([]storagemodels.Record, error) {
	filter, err := buildScanFilter(b)
	if err != nil {
		return nil, err
	}
	if filter.never {
		return []storagemodels.Record{}, nil
	}

	input := filter.input(d.tableName(b.Table), 0)
	out := make([]storagemodels.Record, 0)
	for {
		page, err := d.scanWithRetry(ctx, input, d.retry)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", b.Table, err)
		}
		for _, item := range page.Items {
			rec, err := unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// Find scans the table with the translated filter, then sorts, pages and projects in memory.
func (d *DynamodbDataStore) Find(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rows, err := d.scanAll(ctx, q.BaseData)
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

// First uses GetItem for a plain "id = ?" condition and falls back to Find otherwise.
func (d *DynamodbDataStore) First(ctx context.Context, q *storagemodels.QueryData) (storagemodels.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if id, ok := idLookup(q); ok {
		return d.getOne(ctx, q, id)
	}

	c := q.Clone()
	skip, _ := q.Window()
	c.SetPager(&storagemodels.Pagination{Skip: skip, Limit: 1})
	rows, err := d.Find(ctx, c)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func idLookup(q *storagemodels.QueryData) (interface{}, bool) {
	skip, _ := q.Window()
	if skip > 0 || len(q.Arguments) != 1 {
		return nil, false
	}
	if strings.Join(strings.Fields(q.Condition), " ") != "id = ?" {
		return nil, false
	}
	return storagemodels.NormalizeNumber(q.Arguments[0]), true
}

func (d *DynamodbDataStore) getOne(ctx context.Context, q *storagemodels.QueryData, id interface{}) (storagemodels.Record, error) {
	key, err := keyOf(id)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: d.tableName(q.Table),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	rec, err := unmarshalItem(out.Item)
	if err != nil {
		return nil, err
	}
	if rec[datastore.ColumnDeletedAt] != nil {
		return nil, nil
	}
	return expr.Project(rec, q.Fields), nil
}

func (d *DynamodbDataStore) Count(ctx context.Context, b *storagemodels.BaseData) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	rows, err := d.scanAll(ctx, b)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (d *DynamodbDataStore) FindAndCount(ctx context.Context, q *storagemodels.QueryData) ([]storagemodels.Record, int64, error) {
	if err := q.Validate(); err != nil {
		return nil, 0, err
	}
	rows, err := d.scanAll(ctx, q.BaseData)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(rows))

	expr.SortRecords(rows, q.Sorter)
	skip, limit := q.Window()
	rows = expr.Page(rows, skip, limit)
	out := make([]storagemodels.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, expr.Project(r, q.Fields))
	}
	return out, total, nil
}

// Raw runs a PartiQL statement with "?" parameters and collects every page of items.
func (d *DynamodbDataStore) Raw(ctx context.Context, statement string, args ...interface{}) ([]storagemodels.Record, error) {
	params, err := marshalParameters(args)
	if err != nil {
		return nil, err
	}
	input := &sdk.ExecuteStatementInput{
		Statement:  aws.String(statement),
		Parameters: params,
	}

	out := make([]storagemodels.Record, 0)
	for {
		page, err := d.client.ExecuteStatement(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("ExecuteStatement failed: %w", err)
		}
		for _, item := range page.Items {
			rec, err := unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		if page.NextToken == nil {
			return out, nil
		}
		input.NextToken = page.NextToken
	}
}

// Execute runs a PartiQL write. PartiQL does not report affected items, so the count is
// the number of items the statement returned.
func (d *DynamodbDataStore) Execute(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	params, err := marshalParameters(args)
	if err != nil {
		return 0, err
	}
	out, err := d.client.ExecuteStatement(ctx, &sdk.ExecuteStatementInput{
		Statement:  aws.String(statement),
		Parameters: params,
	})
	if err != nil {
		return 0, fmt.Errorf("ExecuteStatement failed: %w", err)
	}
	return int64(len(out.Items)), nil
}

func marshalParameters(args []interface{}) ([]types.AttributeValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := make([]types.AttributeValue, 0, len(args))
	for i, a := range args {
		av, err := attributevalue.Marshal(storagemodels.NormalizeNumber(a))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parameter %d: %w", i+1, err)
		}
		params = append(params, av)
	}
	return params, nil
}
