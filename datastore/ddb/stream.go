/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/fpmstore/datastore/expr"
	"github.com/suparena/fpmstore/storagemodels"
)

// consecutive failed pages tolerated when the error handler asks to continue
const maxPageFailures = 3

// Stream scans the table page by page in table order. Sorters are not applied;
// the skip and limit window is.
func (d *DynamodbDataStore) Stream(ctx context.Context, q *storagemodels.QueryData, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult, options.BufferSize)

	go d.streamWorker(ctx, q, options, resultCh)

	return resultCh
}

// streamWorker handles the actual streaming logic
func (d *DynamodbDataStore) streamWorker(
	ctx context.Context,
	q *storagemodels.QueryData,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult,
) {
	defer close(resultCh)

	var (
		itemIndex  int64
		matched    int
		pageNumber int
		failures   int
		errs       []error
		startTime  = time.Now()
	)

	fail := func(err error) {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult{
			Error: err,
			Meta: storagemodels.StreamMeta{
				Index:      itemIndex,
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			},
		}:
		}
	}

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			Errors:         errs,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	if err := q.Validate(); err != nil {
		fail(err)
		return
	}
	filter, err := buildScanFilter(q.BaseData)
	if err != nil {
		fail(err)
		return
	}
	if filter.never {
		return
	}

	skip, limit := q.Window()
	if limit == 0 {
		return
	}
	input := filter.input(d.tableName(q.Table), int32(options.PageSize))

	for {
		if ctx.Err() != nil {
			return
		}

		out, err := d.scanWithRetry(ctx, input, options)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if failures <= maxPageFailures && options.ErrorHandler != nil && options.ErrorHandler(err) {
				errs = append(errs, err)
				continue
			}
			fail(fmt.Errorf("scan failed: %w", err))
			return
		}
		failures = 0
		pageNumber++

		for _, item := range out.Items {
			rec, err := unmarshalItem(item)
			if err != nil {
				errs = append(errs, err)
				fail(err)
				return
			}
			matched++
			if matched <= skip {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case resultCh <- storagemodels.StreamResult{
				Item: expr.Project(rec, q.Fields),
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: pageNumber,
					Timestamp:  time.Now(),
				},
			}:
			}
			itemIndex++
			if limit >= 0 && itemIndex >= int64(limit) {
				reportProgress()
				return
			}
		}

		reportProgress()

		if len(out.LastEvaluatedKey) == 0 {
			return
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// scanWithRetry executes a scan with configurable retry logic
func (d *DynamodbDataStore) scanWithRetry(
	ctx context.Context,
	input *sdk.ScanInput,
	options storagemodels.StreamOptions,
) (*sdk.ScanOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := d.client.Scan(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			d.loggers.Debugf("scan of %s throttled, retrying in %s: %v", aws.ToString(input.TableName), backoff, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("scan failed after %d retries: %w", options.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if stderrors.As(err, &throughput) || stderrors.As(err, &limit) || stderrors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if stderrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
