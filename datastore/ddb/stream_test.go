/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/fpmstore/storagemodels"
)

func seedStream(t *testing.T, store *DynamodbDataStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.Create(context.Background(), storagemodels.NewBaseData("fake"), storagemodels.CommonMap{
			"id":  fmt.Sprintf("id-%d", i),
			"seq": i,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
}

// TestStreamWithOptions tests the enhanced streaming with various options
func TestStreamWithOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("PagesAndWindow", func(t *testing.T) {
		store, client := newTestStore()
		seedStream(t, store, 5)

		var progressCalled int32
		q := storagemodels.NewQuery().SetTable("fake").SetPager(&storagemodels.Pagination{Skip: 1, Limit: 3})
		resultChan := store.Stream(ctx, q,
			storagemodels.WithPageSize(2),
			storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
				atomic.AddInt32(&progressCalled, 1)
			}),
		)

		var seqs []int64
		for result := range resultChan {
			if result.Error != nil {
				t.Fatalf("Stream error: %v", result.Error)
			}
			seqs = append(seqs, result.Item["seq"].(int64))
		}
		if fmt.Sprint(seqs) != "[1 2 3]" {
			t.Fatalf("Unexpected window: %v", seqs)
		}
		if atomic.LoadInt32(&progressCalled) == 0 {
			t.Fatalf("Expected progress reports")
		}
		if got := aws.ToInt32(client.lastScan().Limit); got != 2 {
			t.Fatalf("Expected page size 2, got %d", got)
		}
	})

	t.Run("RetriesThrottling", func(t *testing.T) {
		store, client := newTestStore()
		seedStream(t, store, 3)
		client.scanErrs = []error{&types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}}

		count := 0
		for result := range store.Stream(ctx, storagemodels.NewQuery().SetTable("fake"),
			storagemodels.WithRetryBackoff(time.Millisecond),
		) {
			if result.Error != nil {
				t.Fatalf("Stream error: %v", result.Error)
			}
			count++
		}
		if count != 3 {
			t.Fatalf("Expected 3 items after retry, got %d", count)
		}
	})

	t.Run("StopsOnPermanentError", func(t *testing.T) {
		store, client := newTestStore()
		seedStream(t, store, 3)
		client.scanErrs = []error{fmt.Errorf("access denied")}

		var results []storagemodels.StreamResult
		for result := range store.Stream(ctx, storagemodels.NewQuery().SetTable("fake")) {
			results = append(results, result)
		}
		if len(results) != 1 || results[0].Error == nil {
			t.Fatalf("Expected a single error result, got %+v", results)
		}
	})

	t.Run("ErrorHandlerContinues", func(t *testing.T) {
		store, client := newTestStore()
		seedStream(t, store, 2)
		client.scanErrs = []error{fmt.Errorf("transient"), nil}

		var handled int32
		count := 0
		for result := range store.Stream(ctx, storagemodels.NewQuery().SetTable("fake"),
			storagemodels.WithErrorHandler(func(error) bool {
				atomic.AddInt32(&handled, 1)
				return true
			}),
		) {
			if result.Error != nil {
				t.Fatalf("Stream error: %v", result.Error)
			}
			count++
		}
		if count != 2 || atomic.LoadInt32(&handled) != 1 {
			t.Fatalf("Expected 2 items and 1 handled error, got %d and %d", count, handled)
		}
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		store, _ := newTestStore()
		seedStream(t, store, 10)

		cancelCtx, cancel := context.WithCancel(ctx)
		resultChan := store.Stream(cancelCtx, storagemodels.NewQuery().SetTable("fake"),
			storagemodels.WithBufferSize(1),
			storagemodels.WithPageSize(2),
		)
		<-resultChan
		cancel()

		done := make(chan struct{})
		go func() {
			for range resultChan {
			}
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("Stream did not stop after cancellation")
		}
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&types.ProvisionedThroughputExceededException{}, true},
		{&types.RequestLimitExceeded{}, true},
		{fmt.Errorf("wrapped: %w", &types.InternalServerError{}), true},
		{&types.ResourceNotFoundException{}, false},
		{fmt.Errorf("plain"), false},
	}
	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
