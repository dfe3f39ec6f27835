/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"sort"

	"github.com/suparena/fpmstore/storagemodels"
)

// SortRecords orders rows in place by sorters. Missing values sort first when ascending.
func SortRecords(rows []storagemodels.Record, sorters []storagemodels.Sorter) {
	if len(sorters) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range sorters {
			c, ok := CompareValues(lookup(rows[i], s.Sortby), lookup(rows[j], s.Sortby))
			if !ok || c == 0 {
				continue
			}
			if s.Descending() {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Page returns the [skip, skip+limit) window of rows. A negative limit keeps the tail.
func Page(rows []storagemodels.Record, skip, limit int) []storagemodels.Record {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(rows) {
		return []storagemodels.Record{}
	}
	rows = rows[skip:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// Project copies the selected fields of rec. Timestamp aliases are rendered as
// epoch milliseconds. With no fields every column is copied.
func Project(rec storagemodels.Record, fields []string) storagemodels.Record {
	if len(fields) == 0 {
		out := make(storagemodels.Record, len(rec))
		for k, v := range rec {
			out[k] = v
		}
		return out
	}
	out := make(storagemodels.Record, len(fields))
	for _, f := range fields {
		if column, ok := storagemodels.TimestampAliases[f]; ok {
			if ms, ok := storagemodels.EpochMillis(rec[column]); ok {
				out[f] = ms
			} else {
				out[f] = nil
			}
			continue
		}
		f = storagemodels.FoldIdentifier(f)
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func lookup(rec storagemodels.Record, column string) interface{} {
	if column, ok := storagemodels.TimestampAliases[column]; ok {
		return rec[column]
	}
	return resolve(Operand{Column: storagemodels.FoldIdentifier(column)}, rec)
}
