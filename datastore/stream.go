/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/fpmstore/storagemodels"
)

const maxSkippedPages = 3

// PageFetcher loads one window of rows.
type PageFetcher func(ctx context.Context, skip, limit int) ([]storagemodels.Record, error)

// RetryableFunc decides whether a page error is worth retrying.
type RetryableFunc func(error) bool

// PagedStream streams the window [skip, skip+limit) of a query by repeatedly
// calling fetch with PageSize sized windows. A negative limit streams to the end.
func PagedStream(
	ctx context.Context,
	q *storagemodels.QueryData,
	fetch PageFetcher,
	retryable RetryableFunc,
	opts ...storagemodels.StreamOption,
) <-chan storagemodels.StreamResult {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult, options.BufferSize)

	go func() {
		defer close(resultCh)

		skip, limit := q.Window()
		var (
			index      int64
			offset     int
			pageNumber int
			failures   int
			errs       []error
			startTime  = time.Now()
		)

		report := func() {
			if options.ProgressHandler == nil {
				return
			}
			progress := storagemodels.StreamProgress{
				ItemsProcessed: index,
				PagesProcessed: pageNumber,
				Errors:         errs,
				StartTime:      startTime,
			}
			if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
				progress.CurrentRate = float64(index) / elapsed
			}
			options.ProgressHandler(progress)
		}

		send := func(r storagemodels.StreamResult) bool {
			select {
			case <-ctx.Done():
				return false
			case resultCh <- r:
				return true
			}
		}

		for {
			pageLimit := options.PageSize
			if limit >= 0 {
				remaining := limit - offset
				if remaining <= 0 {
					break
				}
				if remaining < pageLimit {
					pageLimit = remaining
				}
			}

			rows, err := fetchWithRetry(ctx, fetch, skip+offset, pageLimit, retryable, options)
			pageNumber++
			offset += pageLimit
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				// the handler may choose to skip the failed page, but not an endless run of them
				if failures <= maxSkippedPages && options.ErrorHandler != nil && options.ErrorHandler(err) {
					errs = append(errs, err)
					report()
					continue
				}
				send(storagemodels.StreamResult{
					Error: fmt.Errorf("stream page %d failed: %w", pageNumber, err),
					Meta: storagemodels.StreamMeta{
						Index:      index,
						PageNumber: pageNumber,
						Timestamp:  time.Now(),
					},
				})
				return
			}
			failures = 0

			for _, row := range rows {
				ok := send(storagemodels.StreamResult{
					Item: row,
					Meta: storagemodels.StreamMeta{
						Index:      index,
						PageNumber: pageNumber,
						Timestamp:  time.Now(),
					},
				})
				if !ok {
					return
				}
				index++
			}
			report()

			if len(rows) < pageLimit {
				break
			}
		}
	}()

	return resultCh
}

func fetchWithRetry(
	ctx context.Context,
	fetch PageFetcher,
	skip, limit int,
	retryable RetryableFunc,
	options storagemodels.StreamOptions,
) ([]storagemodels.Record, error) {
	var lastErr error
	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := fetch(ctx, skip, limit)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if retryable == nil || !retryable(err) {
			return nil, err
		}
		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("page failed after %d retries: %w", options.MaxRetries, lastErr)
}
