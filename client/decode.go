/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package client

import (
	"context"

	"github.com/suparena/fpmstore/storagemodels"
)

// FindInto runs q and decodes the rows into out, a pointer to a slice of
// structs with json tags. Timestamps are accepted as strings or epoch
// milliseconds.
func FindInto(ctx context.Context, q *Query, out interface{}) error {
	rows, err := q.Find(ctx)
	if err != nil {
		return err
	}
	return storagemodels.DecodeRecords(rows, out)
}

// FirstInto decodes the first match into out and reports whether there was one.
func FirstInto(ctx context.Context, q *Query, out interface{}) (bool, error) {
	rec, err := q.First(ctx)
	if err != nil || rec == nil {
		return false, err
	}
	return true, storagemodels.DecodeRecord(rec, out)
}
