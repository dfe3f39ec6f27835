/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/storagemodels"
)

// Config holds DynamoDB connection settings
type Config struct {
	AccessKey   string `yaml:"accessKey"`
	SecretKey   string `yaml:"secretKey"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	TablePrefix string `yaml:"tablePrefix"`
}

// API is the subset of the DynamoDB client used by the data store.
type API interface {
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	ExecuteStatement(ctx context.Context, params *sdk.ExecuteStatementInput, optFns ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error)
}

// DynamodbDataStore implements datastore.DataStore with one DynamoDB table per
// logical table, keyed by the string or number attribute "id".
type DynamodbDataStore struct {
	client      API
	tablePrefix string
	loggers     ldlog.Loggers
	now         func() time.Time
	retry       storagemodels.StreamOptions
}

var _ datastore.DataStore = (*DynamodbDataStore)(nil)

// NewDynamoDBClient initializes a DynamoDB client using static credentials when given.
func NewDynamoDBClient(cfg *Config) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewDynamodbDataStore constructs a data store from cfg.
func NewDynamodbDataStore(cfg *Config, loggers ldlog.Loggers) (*DynamodbDataStore, error) {
	client, err := NewDynamoDBClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	loggers.Infof("DynamoDB client initialized in region %s (table prefix %q)", cfg.Region, cfg.TablePrefix)
	return NewFromClient(client, cfg.TablePrefix, loggers), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client API, tablePrefix string, loggers ldlog.Loggers) *DynamodbDataStore {
	return &DynamodbDataStore{
		client:      client,
		tablePrefix: tablePrefix,
		loggers:     loggers,
		now:         time.Now,
		retry:       storagemodels.DefaultStreamOptions(),
	}
}

func (d *DynamodbDataStore) tableName(table string) *string {
	return aws.String(d.tablePrefix + table)
}

func (d *DynamodbDataStore) Close() error {
	return nil
}

// unmarshalItem converts an item to a Record with whole numbers as int64.
func unmarshalItem(item map[string]types.AttributeValue) (storagemodels.Record, error) {
	var m map[string]interface{}
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	rec := make(storagemodels.Record, len(m))
	for k, v := range m {
		rec[k] = storagemodels.NormalizeNumber(v)
	}
	return rec, nil
}

func marshalValues(values map[string]interface{}) (map[string]types.AttributeValue, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(values))
	for k, v := range values {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

func keyOf(id interface{}) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal id: %w", err)
	}
	return map[string]types.AttributeValue{datastore.ColumnID: av}, nil
}
