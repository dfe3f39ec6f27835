//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/suparena/fpmstore/storagemodels"
)

// The table <AWS_DDB_TABLE_PREFIX>fake must exist with string partition key "id".
func getIntegrationStore(t *testing.T) *DynamodbDataStore {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		t.Skip("AWS_REGION not set, skipping integration test")
	}

	store, err := NewDynamodbDataStore(&Config{
		AccessKey:   os.Getenv("AWS_ACCESS_KEY"),
		SecretKey:   os.Getenv("AWS_SECRET_KEY"),
		Region:      region,
		Endpoint:    os.Getenv("AWS_DDB_ENDPOINT"),
		TablePrefix: os.Getenv("AWS_DDB_TABLE_PREFIX"),
	}, ldlog.NewDefaultLoggers())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestIntegrationRoundTrip(t *testing.T) {
	store := getIntegrationStore(t)
	ctx := context.Background()
	b := storagemodels.NewBaseData("fake")

	created, err := store.Create(ctx, b, storagemodels.CommonMap{"name": "integration", "value": 100})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	q := storagemodels.NewQuery().SetTable("fake").SetCondition("id = ?", created["id"])
	row, err := store.First(ctx, q)
	if err != nil || row == nil {
		t.Fatalf("First failed: %v", err)
	}
	if row["value"] != int64(100) {
		t.Fatalf("Unexpected value: %#v", row["value"])
	}

	rows, err := store.Find(ctx, storagemodels.NewQuery().SetTable("fake").SetCondition("name = ? and value >= 100", "integration"))
	if err != nil || len(rows) == 0 {
		t.Fatalf("Find failed: %v (%d rows)", err, len(rows))
	}

	if n, err := store.Remove(ctx, q.BaseData); err != nil || n != 1 {
		t.Fatalf("Remove failed: n=%d err=%v", n, err)
	}
	if row, _ := store.First(ctx, q); row != nil {
		t.Fatalf("Expected removed row to be hidden, got %+v", row)
	}
}
