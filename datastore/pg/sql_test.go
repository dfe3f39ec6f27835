/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/suparena/fpmstore/storagemodels"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		in     string
		offset int
		want   string
	}{
		{"name = ? and value > ?", 0, "name = $1 and value > $2"},
		{"name = ?", 2, "name = $3"},
		{"name = '?' and id = ?", 0, "name = '?' and id = $1"},
		{`"we?ird" = ?`, 0, `"we?ird" = $1`},
		{"1=1", 0, "1=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rebind(tt.in, tt.offset), tt.in)
	}
}

func TestBuildSelect(t *testing.T) {
	q := storagemodels.NewQuery().
		SetTable("fake").
		SetCondition("name = ? and value > ?", "c", float64(10)).
		AddFields("id", "name", "updateAt").
		AddSorter(storagemodels.Sorter{Sortby: "id", Asc: "desc"}, storagemodels.Sorter{Sortby: "createAt", Asc: "asc"}).
		SetPager(&storagemodels.Pagination{Skip: 20, Limit: 10})

	stmt, args := buildSelect(q)
	assert.Equal(t,
		`SELECT "id", "name", (floor(extract(epoch from "updated_at") * 1000))::bigint as "updateAt" FROM "fake"`+
			` WHERE (name = $1 and value > $2) and "deleted_at" is null`+
			` ORDER BY "id" DESC, "created_at" ASC LIMIT 10 OFFSET 20`,
		stmt)
	assert.Equal(t, []interface{}{"c", int64(10)}, args)

	stmt, _ = buildSelect(storagemodels.NewQuery().
		SetTable("fake").
		SetCondition("name = 'ff'").
		AddFields("NAME", "createAt").
		AddSorter(storagemodels.Sorter{Sortby: "Name", Asc: "desc"}).
		SetPager(&storagemodels.Pagination{Skip: 0, Limit: 10}))
	assert.Equal(t,
		`SELECT "name", (floor(extract(epoch from "created_at") * 1000))::bigint as "createAt" FROM "fake"`+
			` WHERE (name = 'ff') and "deleted_at" is null ORDER BY "name" DESC LIMIT 10`,
		stmt)

	stmt, args = buildSelect(storagemodels.NewQuery().SetTable("public.fake"))
	assert.Equal(t, `SELECT * FROM "public"."fake" WHERE (1=1) and "deleted_at" is null`, stmt)
	assert.Empty(t, args)
}

func TestBuildCount(t *testing.T) {
	b := storagemodels.NewBaseData("fake")
	b.Condition = "id = ?"
	b.Arguments = []interface{}{1}
	stmt, args := buildCount(b)
	assert.Equal(t, `SELECT count(*) FROM "fake" WHERE (id = $1) and "deleted_at" is null`, stmt)
	assert.Equal(t, []interface{}{1}, args)
}

func TestBuildWrites(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	stmt, args := buildInsert("fake", storagemodels.CommonMap{"value": int64(1), "name": "c"}, now)
	assert.Equal(t, `INSERT INTO "fake" ("created_at", "updated_at", "name", "value") VALUES ($1, $2, $3, $4) RETURNING *`, stmt)
	assert.Equal(t, []interface{}{now, now, "c", int64(1)}, args)

	b := storagemodels.NewBaseData("fake")
	b.Condition = "id = ?"
	b.Arguments = []interface{}{int64(7)}

	stmt, args = buildUpdate(b, storagemodels.CommonMap{"name": "d"}, now)
	assert.Equal(t, `UPDATE "fake" SET "updated_at" = $1, "name" = $2 WHERE (id = $3) and "deleted_at" is null`, stmt)
	assert.Equal(t, []interface{}{now, "d", int64(7)}, args)

	stmt, args = buildRemove(b, now)
	assert.Equal(t, `UPDATE "fake" SET "deleted_at" = $1 WHERE (id = $2) and "deleted_at" is null`, stmt)
	assert.Equal(t, []interface{}{now, int64(7)}, args)
}

func TestConfigDSN(t *testing.T) {
	cfg := &Config{Host: "db", Port: 5433, User: "fpm", Password: "p@ss", Database: "fpm"}
	assert.Equal(t, "postgres://fpm:p%40ss@db:5433/fpm?sslmode=disable", cfg.DSN())

	cfg = &Config{Database: "fpm", SSLMode: "require"}
	assert.Equal(t, "postgres://localhost:5432/fpm?sslmode=require", cfg.DSN())
}
