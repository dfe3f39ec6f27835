/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/storagemodels"
)

// Rebind rewrites "?" placeholders as $n, numbering from offset+1. Placeholders
// inside quoted literals and identifiers are left alone.
func Rebind(query string, offset int) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := offset
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			sb.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			sb.WriteRune(r)
		case r == '?':
			n++
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func column(name string) string {
	if c, ok := storagemodels.TimestampAliases[name]; ok {
		return quoteIdent(c)
	}
	return quoteIdent(storagemodels.FoldIdentifier(name))
}

func selectList(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if c, ok := storagemodels.TimestampAliases[f]; ok {
			cols = append(cols, fmt.Sprintf("(floor(extract(epoch from %s) * 1000))::bigint as %s", quoteIdent(c), quoteIdent(f)))
			continue
		}
		cols = append(cols, quoteIdent(storagemodels.FoldIdentifier(f)))
	}
	return strings.Join(cols, ", ")
}

// where renders the condition restricted to live rows, numbering placeholders after offset.
func where(b *storagemodels.BaseData, offset int) (string, []interface{}) {
	condition := strings.TrimSpace(b.Condition)
	if condition == "" {
		condition = storagemodels.DefaultCondition
	}
	clause := fmt.Sprintf(" WHERE (%s) and %s is null", Rebind(condition, offset), quoteIdent(datastore.ColumnDeletedAt))
	return clause, normalizeArgs(b.Arguments)
}

func orderBy(sorters []storagemodels.Sorter) string {
	if len(sorters) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sorters))
	for _, s := range sorters {
		dir := "ASC"
		if s.Descending() {
			dir = "DESC"
		}
		parts = append(parts, column(s.Sortby)+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func limitOffset(skip, limit int) string {
	var sb strings.Builder
	if limit >= 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}
	if skip > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(skip))
	}
	return sb.String()
}

func buildSelect(q *storagemodels.QueryData) (string, []interface{}) {
	clause, args := where(q.BaseData, 0)
	skip, limit := q.Window()
	stmt := "SELECT " + selectList(q.Fields) +
		" FROM " + quoteIdent(q.Table) +
		clause +
		orderBy(q.Sorter) +
		limitOffset(skip, limit)
	return stmt, args
}

func buildCount(b *storagemodels.BaseData) (string, []interface{}) {
	clause, args := where(b, 0)
	return "SELECT count(*) FROM " + quoteIdent(b.Table) + clause, args
}

func buildInsert(table string, row storagemodels.CommonMap, now time.Time) (string, []interface{}) {
	keys := sortedKeys(row)
	cols := []string{quoteIdent(datastore.ColumnCreatedAt), quoteIdent(datastore.ColumnUpdatedAt)}
	args := []interface{}{now, now}
	for _, k := range keys {
		cols = append(cols, quoteIdent(k))
		args = append(args, row[k])
	}
	holders := make([]string, len(args))
	for i := range args {
		holders[i] = "$" + strconv.Itoa(i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		quoteIdent(table), strings.Join(cols, ", "), strings.Join(holders, ", "))
	return stmt, args
}

func buildUpdate(b *storagemodels.BaseData, updates storagemodels.CommonMap, now time.Time) (string, []interface{}) {
	keys := sortedKeys(updates)
	sets := []string{quoteIdent(datastore.ColumnUpdatedAt) + " = $1"}
	args := []interface{}{now}
	for _, k := range keys {
		args = append(args, updates[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", quoteIdent(k), len(args)))
	}
	clause, whereArgs := where(b, len(args))
	stmt := "UPDATE " + quoteIdent(b.Table) + " SET " + strings.Join(sets, ", ") + clause
	return stmt, append(args, whereArgs...)
}

func buildRemove(b *storagemodels.BaseData, now time.Time) (string, []interface{}) {
	clause, args := where(b, 1)
	stmt := "UPDATE " + quoteIdent(b.Table) + " SET " + quoteIdent(datastore.ColumnDeletedAt) + " = $1" + clause
	return stmt, append([]interface{}{now}, args...)
}

func sortedKeys(m storagemodels.CommonMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		out[i] = storagemodels.NormalizeNumber(a)
	}
	return out
}
