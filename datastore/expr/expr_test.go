/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/storagemodels"
)

func TestEval(t *testing.T) {
	rec := storagemodels.Record{
		"id":         int64(7),
		"name":       "c",
		"value":      float64(100),
		"tag":        "beta",
		"created_at": storagemodels.FormatTimestamp(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
		"note":       nil,
	}

	tests := []struct {
		condition string
		args      []interface{}
		want      bool
	}{
		{"1=1", nil, true},
		{"", nil, true},
		{"1=0", nil, false},
		{"name = 'c'", nil, true},
		{"name = ?", []interface{}{"c"}, true},
		{"name <> 'c'", nil, false},
		{"name != 'd'", nil, true},
		{"value > 10", nil, true},
		{"value >= 100 and value <= 100", nil, true},
		{"value < ?", []interface{}{int64(50)}, false},
		{"id = 7", nil, true},
		{"id = '7'", nil, true},
		{"name = 'x' or id = 7", nil, true},
		{"not (name = 'c')", nil, false},
		{"tag like 'be%'", nil, true},
		{"tag like '%ta'", nil, true},
		{"tag like 'b_ta'", nil, true},
		{"tag not like 'a%'", nil, true},
		{"tag in ('alpha', 'beta')", nil, true},
		{"id not in (1, 2, 3)", nil, true},
		{"note is null", nil, true},
		{"missing is null", nil, true},
		{"name is not null", nil, true},
		{"missing = 1", nil, false},
		{"created_at > '2025-01-01T00:00:00.000Z'", nil, true},
		{"NAME = 'c' AND Value > 1", nil, true},
		{`"NAME" = 'c'`, nil, false},
		{"fake.name = 'c'", nil, true},
		{"name = 'it''s'", nil, false},
	}
	for _, tt := range tests {
		got, err := Match(tt.condition, tt.args, rec)
		require.NoError(t, err, tt.condition)
		assert.Equal(t, tt.want, got, tt.condition)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		condition string
		args      []interface{}
	}{
		{"name =", nil},
		{"name = 'c", nil},
		{"(name = 'c'", nil},
		{"name = ?", nil},
		{"name = 'c'", []interface{}{"extra"}},
		{"name ! 'c'", nil},
		{"name is 'c'", nil},
		{"name not = 'c'", nil},
		{"name = 'c' ;", nil},
	}
	for _, tt := range tests {
		_, err := Parse(tt.condition, tt.args)
		require.Error(t, err, tt.condition)
		assert.True(t, errors.IsValidationError(err), tt.condition)
	}
}

func TestParseDepthLimit(t *testing.T) {
	nested := strings.Repeat("(", MaxDepth-1) + "1=1" + strings.Repeat(")", MaxDepth-1)
	_, err := Parse(nested, nil)
	require.NoError(t, err)

	_, err = Parse(strings.Repeat("not ", MaxDepth)+"1=1", nil)
	assert.True(t, errors.IsValidationError(err))

	deep := strings.Repeat("(", 2000000) + "1=1" + strings.Repeat(")", 2000000)
	_, err = Parse(deep, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestColumnsAndConstant(t *testing.T) {
	n, err := Parse("name = ? and (value > 1 or name like 'a%')", []interface{}{"c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "value"}, Columns(n))

	_, ok := Constant(n)
	assert.False(t, ok)

	n, err = Parse("1=1 and 2 > 1", nil)
	require.NoError(t, err)
	v, ok := Constant(n)
	assert.True(t, ok)
	assert.True(t, v)
}

func TestToDynamo(t *testing.T) {
	n, err := Parse("1=1", nil)
	require.NoError(t, err)
	f, err := ToDynamo(n)
	require.NoError(t, err)
	assert.Empty(t, f.Expression)
	assert.False(t, f.Never)

	n, err = Parse("1=0 and name = 'c'", nil)
	require.NoError(t, err)
	f, err = ToDynamo(n)
	require.NoError(t, err)
	assert.True(t, f.Never)

	n, err = Parse("1=1 and name = ? and 10 < value", []interface{}{"c"})
	require.NoError(t, err)
	f, err = ToDynamo(n)
	require.NoError(t, err)
	assert.Equal(t, "(#n0 = :v0) AND (#n1 > :v1)", f.Expression)
	assert.Equal(t, map[string]string{"#n0": "name", "#n1": "value"}, f.Names)
	assert.Equal(t, map[string]interface{}{":v0": "c", ":v1": int64(10)}, f.Values)

	n, err = Parse("name like 'ab%' or name like '%b%' or id in (1, 2)", nil)
	require.NoError(t, err)
	f, err = ToDynamo(n)
	require.NoError(t, err)
	assert.Equal(t, "((begins_with(#n0, :v0)) OR (contains(#n0, :v1))) OR (#n1 IN (:v2, :v3))", f.Expression)

	n, err = Parse("note is null and name <> 'x'", nil)
	require.NoError(t, err)
	f, err = ToDynamo(n)
	require.NoError(t, err)
	assert.Equal(t, "(attribute_not_exists(#n0) OR attribute_type(#n0, :v0)) AND (#n1 <> :v1)", f.Expression)
	assert.Equal(t, "NULL", f.Values[":v0"])

	n, err = Parse("name like '%b'", nil)
	require.NoError(t, err)
	_, err = ToDynamo(n)
	assert.True(t, errors.IsUnsupported(err))
}

func TestAnd(t *testing.T) {
	assert.Equal(t, "", And("", ""))
	assert.Equal(t, "a = b", And("a = b", ""))
	assert.Equal(t, "(a = b) AND (c)", And("a = b", "", "c"))
}

func TestSortPageProject(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []storagemodels.Record{
		{"id": int64(1), "name": "b", "created_at": storagemodels.FormatTimestamp(created)},
		{"id": int64(2), "name": "a"},
		{"id": int64(3), "name": "b"},
	}

	SortRecords(rows, []storagemodels.Sorter{{Sortby: "name", Asc: "asc"}, {Sortby: "id", Asc: "desc"}})
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r["id"].(int64))
	}
	assert.Equal(t, []int64{2, 3, 1}, ids)

	assert.Len(t, Page(rows, 1, -1), 2)
	assert.Len(t, Page(rows, 1, 1), 1)
	assert.Empty(t, Page(rows, 5, 1))

	p := Project(rows[2], []string{"id", "createAt", "missing"})
	assert.Equal(t, storagemodels.Record{"id": int64(1), "createAt": created.UnixMilli()}, p)

	p = Project(rows[2], []string{"NAME", "Id"})
	assert.Equal(t, storagemodels.Record{"name": "b", "id": int64(1)}, p)

	SortRecords(rows, []storagemodels.Sorter{{Sortby: "ID", Asc: "desc"}})
	assert.Equal(t, int64(3), rows[0]["id"])

	all := Project(rows[0], nil)
	all["name"] = "changed"
	assert.Equal(t, "b", rows[0]["name"])
}
