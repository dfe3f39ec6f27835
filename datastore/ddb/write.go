/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/storagemodels"
)

// Create puts a new item. A uuid id is generated when the row has none.
func (d *DynamodbDataStore) Create(ctx context.Context, b *storagemodels.BaseData, row storagemodels.CommonMap) (storagemodels.Record, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	rec := storagemodels.Record(datastore.WritableColumns(row))
	if id, ok := rec[datastore.ColumnID]; !ok || id == nil || id == "" {
		rec[datastore.ColumnID] = uuid.NewString()
	}
	now := storagemodels.FormatTimestamp(d.now())
	rec[datastore.ColumnCreatedAt] = now
	rec[datastore.ColumnUpdatedAt] = now

	item, err := attributevalue.MarshalMap(map[string]interface{}(rec))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row: %w", err)
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                d.tableName(b.Table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": datastore.ColumnID},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return nil, errors.NewAlreadyExistsError(b.Table, fmt.Sprint(rec[datastore.ColumnID]))
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return rec, nil
}

func (d *DynamodbDataStore) Updates(ctx context.Context, b *storagemodels.BaseData, updates storagemodels.CommonMap) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	values := datastore.WritableColumns(updates)
	delete(values, datastore.ColumnID)
	if len(values) == 0 {
		return 0, errors.NewValidationError("row", "no writable columns")
	}
	values[datastore.ColumnUpdatedAt] = storagemodels.FormatTimestamp(d.now())
	return d.updateMatching(ctx, b, values)
}

// Remove soft deletes matching items by stamping deleted_at.
func (d *DynamodbDataStore) Remove(ctx context.Context, b *storagemodels.BaseData) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return d.updateMatching(ctx, b, storagemodels.CommonMap{
		datastore.ColumnDeletedAt: storagemodels.FormatTimestamp(d.now()),
	})
}

// updateMatching applies values to each live item matching b. Items deleted
// between the scan and the update are not counted.
func (d *DynamodbDataStore) updateMatching(ctx context.Context, b *storagemodels.BaseData, values storagemodels.CommonMap) (int64, error) {
	rows, err := d.scanAll(ctx, b)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	updateExpr, names, exprValues, err := buildUpdateExpression(values)
	if err != nil {
		return 0, fmt.Errorf("failed to build update expression: %w", err)
	}
	names["#id"] = datastore.ColumnID
	names["#deleted"] = datastore.ColumnDeletedAt

	var affected int64
	for _, row := range rows {
		key, err := keyOf(row[datastore.ColumnID])
		if err != nil {
			return affected, err
		}
		_, err = d.client.UpdateItem(ctx, &sdk.UpdateItemInput{
			TableName:                 d.tableName(b.Table),
			Key:                       key,
			UpdateExpression:          aws.String(updateExpr),
			ConditionExpression:       aws.String("attribute_exists(#id) AND " + liveItems),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: exprValues,
		})
		if err != nil {
			var cfe *types.ConditionalCheckFailedException
			if stderrors.As(err, &cfe) {
				d.loggers.Debugf("skipping %s %v: no longer live", b.Table, row[datastore.ColumnID])
				continue
			}
			return affected, fmt.Errorf("UpdateItem failed: %w", err)
		}
		affected++
	}
	return affected, nil
}

// buildUpdateExpression transforms a map of field->value into "SET #f0 = :f0, ..."
// with its attribute names and values. Fields are ordered by name.
func buildUpdateExpression(updates storagemodels.CommonMap) (string, map[string]string, map[string]types.AttributeValue, error) {
	if len(updates) == 0 {
		return "", nil, nil, stderrors.New("no updates provided")
	}
	fields := make([]string, 0, len(updates))
	for f := range updates {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(fields))
	exprAttrNames := make(map[string]string, len(fields))
	exprAttrValues := make(map[string]types.AttributeValue, len(fields))
	for i, field := range fields {
		placeholderName := fmt.Sprintf("#f%d", i)
		placeholderValue := fmt.Sprintf(":f%d", i)

		av, err := attributevalue.Marshal(updates[field])
		if err != nil {
			return "", nil, nil, fmt.Errorf("unhandled update value for field '%s': %w", field, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", placeholderName, placeholderValue))
		exprAttrNames[placeholderName] = field
		exprAttrValues[placeholderValue] = av
	}
	return "SET " + strings.Join(setClauses, ", "), exprAttrNames, exprAttrValues, nil
}

// Transaction is not supported: conditions are evaluated by scans, which DynamoDB
// transactions cannot include.
func (d *DynamodbDataStore) Transaction(ctx context.Context, body func(datastore.DataStore) error) error {
	return errors.NewUnsupportedError("dynamodb", "transactions")
}
