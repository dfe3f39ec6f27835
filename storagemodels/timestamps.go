/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// FormatTimestamp renders t the way document backends store managed timestamps.
func FormatTimestamp(t time.Time) string {
	return strfmt.DateTime(t.UTC()).String()
}

// ParseTimestamp reads a stored timestamp, accepting time.Time, strfmt.DateTime or strings.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case strfmt.DateTime:
		return time.Time(tv), true
	case *strfmt.DateTime:
		if tv == nil {
			return time.Time{}, false
		}
		return time.Time(*tv), true
	case string:
		dt, err := strfmt.ParseDateTime(tv)
		if err != nil {
			return time.Time{}, false
		}
		return time.Time(dt), true
	}
	return time.Time{}, false
}

// EpochMillis converts a stored timestamp to milliseconds since the epoch.
func EpochMillis(v interface{}) (int64, bool) {
	t, ok := ParseTimestamp(v)
	if !ok {
		return 0, false
	}
	return t.UnixMilli(), true
}
