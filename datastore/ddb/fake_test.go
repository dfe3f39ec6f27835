/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeClient keeps items in insertion order. Scan honours only the live-item
// part of a filter; conditions are asserted on the recorded inputs instead.
type fakeClient struct {
	mu         sync.Mutex
	tables     map[string][]item
	pageSize   int
	scanErrs   []error
	scans      []sdk.ScanInput
	statements []sdk.ExecuteStatementInput
	rawItems   []item
}

func newFakeClient() *fakeClient {
	return &fakeClient{tables: map[string][]item{}}
}

func idString(av types.AttributeValue) string {
	var v interface{}
	_ = attributevalue.Unmarshal(av, &v)
	return fmt.Sprint(v)
}

func (f *fakeClient) find(table string, key item) (int, item) {
	want := idString(key["id"])
	for i, it := range f.tables[table] {
		if idString(it["id"]) == want {
			return i, it
		}
	}
	return -1, nil
}

func (f *fakeClient) Scan(ctx context.Context, in *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scans = append(f.scans, *in)
	if len(f.scanErrs) > 0 {
		err := f.scanErrs[0]
		f.scanErrs = f.scanErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	live := strings.Contains(aws.ToString(in.FilterExpression), "attribute_not_exists(#deleted)")
	var all []item
	for _, it := range f.tables[aws.ToString(in.TableName)] {
		if _, deleted := it["deleted_at"]; live && deleted {
			continue
		}
		all = append(all, it)
	}

	start := 0
	if in.ExclusiveStartKey != nil {
		start, _ = strconv.Atoi(in.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN).Value)
	}
	size := f.pageSize
	if in.Limit != nil {
		size = int(*in.Limit)
	}
	end := len(all)
	if size > 0 && start+size < end {
		end = start + size
	}

	out := &sdk.ScanOutput{Items: all[start:end]}
	if end < len(all) {
		out.LastEvaluatedKey = item{"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)}}
	}
	return out, nil
}

func (f *fakeClient) GetItem(ctx context.Context, in *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, it := f.find(aws.ToString(in.TableName), in.Key)
	return &sdk.GetItemOutput{Item: it}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	if i, _ := f.find(table, in.Item); i >= 0 && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	f.tables[table] = append(f.tables[table], in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	i, it := f.find(table, in.Key)
	if i < 0 {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	if _, deleted := it["deleted_at"]; deleted {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("deleted")}
	}

	updated := item{}
	for k, v := range it {
		updated[k] = v
	}
	for _, clause := range strings.Split(strings.TrimPrefix(aws.ToString(in.UpdateExpression), "SET "), ", ") {
		parts := strings.SplitN(clause, " = ", 2)
		updated[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	f.tables[table][i] = updated
	return &sdk.UpdateItemOutput{}, nil
}

func (f *fakeClient) ExecuteStatement(ctx context.Context, in *sdk.ExecuteStatementInput, optFns ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, *in)
	return &sdk.ExecuteStatementOutput{Items: f.rawItems}, nil
}

func (f *fakeClient) lastScan() sdk.ScanInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans[len(f.scans)-1]
}
