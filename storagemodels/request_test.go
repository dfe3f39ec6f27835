/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/fpmstore/errors"
)

func TestParseQuery(t *testing.T) {
	req := &QueryRequest{
		Table:     "fake",
		Condition: "name = 'C'",
		Fields:    "name,val",
		Skip:      0,
		Limit:     0,
		Sort:      "id-",
	}
	q, err := ParseQuery(req)
	require.NoError(t, err)

	assert.Equal(t, "fake", q.Table)
	assert.Equal(t, "name = 'C'", q.Condition)
	assert.Equal(t, 0, q.Pager.Skip)
	assert.Equal(t, -1, q.Pager.Limit)
	assert.Equal(t, []string{"name", "val"}, q.Fields)
	require.Len(t, q.Sorter, 1)
	assert.Equal(t, "id", q.Sorter[0].Sortby)
	assert.Equal(t, "desc", q.Sorter[0].Asc)
}

func TestParseQueryArguments(t *testing.T) {
	q, err := ParseQuery(&QueryRequest{
		Table:     "fake",
		Condition: "value > ? and name = ?",
		Arguments: []interface{}{float64(10), "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(10), "c"}, q.Arguments)
}

func TestParseQueryPagerAndID(t *testing.T) {
	q, err := ParseQuery(&QueryRequest{
		Table: "fake",
		Skip:  -5,
		Limit: 10,
		ID:    float64(110),
	})
	require.NoError(t, err)

	assert.Equal(t, &Pagination{Skip: 0, Limit: 10}, q.Pager)
	assert.Equal(t, "id = ?", q.Condition)
	assert.Equal(t, []interface{}{int64(110)}, q.Arguments)
}

func TestParseQueryMapCondition(t *testing.T) {
	q, err := ParseQuery(&QueryRequest{
		Table: "fake",
		Condition: map[string]interface{}{
			"value": float64(100),
			"name":  "c",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "name = ? and value = ?", q.Condition)
	assert.Equal(t, []interface{}{"c", int64(100)}, q.Arguments)

	_, err = ParseQuery(&QueryRequest{
		Table:     "fake",
		Condition: map[string]interface{}{"name; drop table fake": 1},
	})
	assert.True(t, errors.IsValidationError(err))

	_, err = ParseQuery(&QueryRequest{Table: "fake", Condition: 42})
	assert.True(t, errors.IsValidationError(err))
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		spec string
		want Sorter
		ok   bool
	}{
		{"name-", Sorter{Sortby: "name", Asc: "desc"}, true},
		{"name+", Sorter{Sortby: "name", Asc: "asc"}, true},
		{"name", Sorter{Sortby: "name", Asc: "asc"}, true},
		{" id- ", Sorter{Sortby: "id", Asc: "desc"}, true},
		{"-", Sorter{}, false},
		{"", Sorter{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseSort(tt.spec)
		assert.Equal(t, tt.ok, ok, tt.spec)
		assert.Equal(t, tt.want, got, tt.spec)
	}

	q, err := ParseQuery(&QueryRequest{Table: "fake", Sort: "name-,id"})
	require.NoError(t, err)
	assert.Equal(t, []Sorter{{Sortby: "name", Asc: "desc"}, {Sortby: "id", Asc: "asc"}}, q.Sorter)
}

func TestQueryValidate(t *testing.T) {
	q := NewQuery().SetTable("fake").AddFields("id", "createAt")
	assert.NoError(t, q.Validate())

	assert.Error(t, NewQuery().Validate())
	assert.Error(t, NewQuery().SetTable("fake f").Validate())
	assert.Error(t, NewQuery().SetTable("fake").AddFields("count(*)").Validate())
	assert.Error(t, NewQuery().SetTable("fake").AddSorter(Sorter{Sortby: "id", Asc: "sideways"}).Validate())
	assert.NoError(t, NewQuery().SetTable("public.fake").Validate())
}

func TestQueryWindowAndClone(t *testing.T) {
	q := NewQuery().SetTable("fake")
	skip, limit := q.Window()
	assert.Equal(t, 0, skip)
	assert.Equal(t, -1, limit)
	assert.True(t, q.Unlimited())

	q.SetPager(&Pagination{Skip: 20, Limit: 10}).SetCondition("name = ?", "c")
	c := q.Clone()
	c.Pager.Skip = 0
	c.Arguments[0] = "d"
	assert.Equal(t, 20, q.Pager.Skip)
	assert.Equal(t, "c", q.Arguments[0])

	q.SetCondition("  ")
	assert.Equal(t, DefaultCondition, q.Condition)
	assert.NotNil(t, q.Arguments)
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, int64(3), NormalizeNumber(float64(3)))
	assert.Equal(t, 3.5, NormalizeNumber(3.5))
	assert.Equal(t, "x", NormalizeNumber("x"))
}

func TestIsTimestampKey(t *testing.T) {
	assert.True(t, IsTimestampKey("updateAt"))
	assert.True(t, IsTimestampKey("createat"))
	assert.False(t, IsTimestampKey("created_at"))
}

func TestTimestamps(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := FormatTimestamp(now)

	parsed, ok := ParseTimestamp(s)
	require.True(t, ok)
	assert.True(t, parsed.Equal(now))

	ms, ok := EpochMillis(s)
	require.True(t, ok)
	assert.Equal(t, now.UnixMilli(), ms)

	_, ok = EpochMillis("not a time")
	assert.False(t, ok)
}
