/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"regexp"
	"strings"
)

// DefaultCondition matches every row.
const DefaultCondition = "1=1"

// Record is a single row as returned by a DataStore.
type Record map[string]interface{}

// CommonMap holds column -> value pairs for writes.
type CommonMap map[string]interface{}

// TimestampAliases maps the virtual fields clients may select to the stored timestamp columns.
// Selected aliases are returned as epoch milliseconds.
var TimestampAliases = map[string]string{
	"createAt": "created_at",
	"updateAt": "updated_at",
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether name is safe to use as a table, column or sort reference.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// FoldIdentifier folds an unquoted field or sort name to lower case the way
// PostgreSQL does. Timestamp aliases keep their spelling.
func FoldIdentifier(name string) string {
	if _, ok := TimestampAliases[name]; ok {
		return name
	}
	return strings.ToLower(name)
}

// IsTimestampKey reports whether a write key names a managed timestamp that callers may not set.
func IsTimestampKey(key string) bool {
	switch strings.ToLower(key) {
	case "createat", "updateat":
		return true
	}
	return false
}

// Pagination selects a window of rows. A negative Limit means no limit.
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// Sorter orders by one column; Asc is "asc" or "desc".
type Sorter struct {
	Sortby string `json:"sortby"`
	Asc    string `json:"asc"`
}

// Descending reports whether the sorter orders from high to low.
func (s Sorter) Descending() bool {
	return strings.EqualFold(s.Asc, "desc")
}

// BaseData addresses a set of rows: a table plus a condition with positional arguments.
type BaseData struct {
	Table     string        `json:"table"`
	Condition string        `json:"condition"`
	Arguments []interface{} `json:"arguments"`
}

// NewBaseData returns BaseData matching every row of table.
func NewBaseData(table string) *BaseData {
	return &BaseData{
		Table:     table,
		Condition: DefaultCondition,
		Arguments: make([]interface{}, 0),
	}
}

// QueryData is BaseData plus projection, paging and ordering.
type QueryData struct {
	*BaseData
	Fields []string    `json:"fields"`
	Pager  *Pagination `json:"pager"`
	Sorter []Sorter    `json:"sorter"`
}

// NewQuery creates an unbounded query with the default condition.
func NewQuery() *QueryData {
	return &QueryData{
		BaseData: NewBaseData(""),
		Fields:   make([]string, 0),
		Pager: &Pagination{
			Skip:  0,
			Limit: -1,
		},
		Sorter: make([]Sorter, 0),
	}
}

// SetTable sets the target table
func (q *QueryData) SetTable(table string) *QueryData {
	q.Table = table
	return q
}

// SetCondition replaces the condition and its arguments. An empty condition resets to DefaultCondition.
func (q *QueryData) SetCondition(condition string, args ...interface{}) *QueryData {
	if strings.TrimSpace(condition) == "" {
		condition = DefaultCondition
	}
	q.Condition = condition
	q.Arguments = args
	if q.Arguments == nil {
		q.Arguments = make([]interface{}, 0)
	}
	return q
}

// SetPager sets the paging window
func (q *QueryData) SetPager(pager *Pagination) *QueryData {
	q.Pager = pager
	return q
}

// AddFields appends projected fields
func (q *QueryData) AddFields(fields ...string) *QueryData {
	q.Fields = append(q.Fields, fields...)
	return q
}

// AddSorter appends orderings
func (q *QueryData) AddSorter(sorters ...Sorter) *QueryData {
	q.Sorter = append(q.Sorter, sorters...)
	return q
}

// Unlimited reports whether the query returns every matching row.
func (q *QueryData) Unlimited() bool {
	return q.Pager == nil || q.Pager.Limit < 0
}

// Window returns the effective skip and limit, with limit -1 for no limit.
func (q *QueryData) Window() (skip, limit int) {
	if q.Pager == nil {
		return 0, -1
	}
	skip = q.Pager.Skip
	if skip < 0 {
		skip = 0
	}
	limit = q.Pager.Limit
	if limit < 0 {
		limit = -1
	}
	return skip, limit
}

// Clone returns a deep enough copy to be modified independently.
func (q *QueryData) Clone() *QueryData {
	c := &QueryData{
		BaseData: &BaseData{
			Table:     q.Table,
			Condition: q.Condition,
			Arguments: append([]interface{}{}, q.Arguments...),
		},
		Fields: append([]string{}, q.Fields...),
		Sorter: append([]Sorter{}, q.Sorter...),
	}
	if q.Pager != nil {
		p := *q.Pager
		c.Pager = &p
	}
	return c
}

// Validate checks the identifiers a backend will interpolate into statements.
func (q *QueryData) Validate() error {
	if err := q.BaseData.Validate(); err != nil {
		return err
	}
	for _, f := range q.Fields {
		if _, ok := TimestampAliases[f]; ok {
			continue
		}
		if !ValidIdentifier(f) {
			return invalidIdentifier("fields", f)
		}
	}
	for _, s := range q.Sorter {
		if !ValidIdentifier(s.Sortby) {
			return invalidIdentifier("sort", s.Sortby)
		}
		if a := strings.ToLower(s.Asc); a != "asc" && a != "desc" && a != "" {
			return invalidIdentifier("sort", s.Asc)
		}
	}
	return nil
}

// Validate checks the table reference.
func (b *BaseData) Validate() error {
	if b == nil || b.Table == "" {
		return errRequired("table")
	}
	if !ValidIdentifier(b.Table) {
		return invalidIdentifier("table", b.Table)
	}
	return nil
}
