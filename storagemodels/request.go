/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/suparena/fpmstore/errors"
)

// QueryRequest is the param shape accepted by the common business module.
type QueryRequest struct {
	Table     string        `json:"table,omitempty" mapstructure:"table"`
	Condition interface{}   `json:"condition,omitempty" mapstructure:"condition"`
	Arguments []interface{} `json:"arguments,omitempty" mapstructure:"arguments"`
	Fields    string        `json:"fields,omitempty" mapstructure:"fields"`
	Skip      int           `json:"skip,omitempty" mapstructure:"skip"`
	Limit     int           `json:"limit,omitempty" mapstructure:"limit"`
	Row       interface{}   `json:"row,omitempty" mapstructure:"row"`
	ID        interface{}   `json:"id,omitempty" mapstructure:"id"`
	Sort      string        `json:"sort,omitempty" mapstructure:"sort"`
}

// ParseQuery converts a request into QueryData.
//
// A zero limit leaves the query unbounded. An object condition becomes an
// and-joined list of equalities with sorted keys. A non-nil id replaces the
// condition with "id = ?".
func ParseQuery(req *QueryRequest) (*QueryData, error) {
	q := NewQuery()
	q.SetTable(req.Table)

	if req.Limit != 0 {
		skip := req.Skip
		if skip < 0 {
			skip = 0
		}
		q.SetPager(&Pagination{
			Skip:  skip,
			Limit: req.Limit,
		})
	}

	if req.Fields != "" {
		q.AddFields(ParseFields(req.Fields)...)
	}

	if req.Condition != nil {
		switch c := req.Condition.(type) {
		case string:
			args := make([]interface{}, 0, len(req.Arguments))
			for _, a := range req.Arguments {
				args = append(args, NormalizeNumber(a))
			}
			q.SetCondition(c, args...)
		case map[string]interface{}:
			condition, args, err := ConditionFromMap(c)
			if err != nil {
				return nil, err
			}
			q.SetCondition(condition, args...)
		default:
			return nil, errors.NewValidationError("condition", fmt.Sprintf("unsupported type %T", req.Condition))
		}
	}

	if req.ID != nil {
		q.SetCondition("id = ?", NormalizeNumber(req.ID))
	}

	if req.Sort != "" {
		for _, part := range strings.Split(req.Sort, ",") {
			if s, ok := ParseSort(part); ok {
				q.AddSorter(s)
			}
		}
	}

	return q, nil
}

// ParseFields splits a comma separated projection.
func ParseFields(fields string) []string {
	out := make([]string, 0)
	for _, f := range strings.Split(fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseSort reads "name-" as descending and "name+" or "name" as ascending.
func ParseSort(spec string) (Sorter, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Sorter{}, false
	}
	switch spec[len(spec)-1] {
	case '-':
		spec = spec[:len(spec)-1]
		if spec == "" {
			return Sorter{}, false
		}
		return Sorter{Sortby: spec, Asc: "desc"}, true
	case '+':
		spec = spec[:len(spec)-1]
		if spec == "" {
			return Sorter{}, false
		}
	}
	return Sorter{Sortby: spec, Asc: "asc"}, true
}

// ConditionFromMap builds "k1 = ? and k2 = ?" from an equality map.
func ConditionFromMap(m map[string]interface{}) (string, []interface{}, error) {
	if len(m) == 0 {
		return DefaultCondition, make([]interface{}, 0), nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if !ValidIdentifier(k) {
			return "", nil, invalidIdentifier("condition", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" = ?")
		args = append(args, NormalizeNumber(m[k]))
	}
	return strings.Join(parts, " and "), args, nil
}

// NormalizeNumber turns whole float64 values (as decoded from JSON) into int64.
func NormalizeNumber(v interface{}) interface{} {
	if f, ok := v.(float64); ok {
		if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
	}
	return v
}

func errRequired(field string) error {
	return errors.NewValidationError(field, "required")
}

func invalidIdentifier(field, value string) error {
	return errors.NewValidationError(field, fmt.Sprintf("invalid identifier %q", value))
}
