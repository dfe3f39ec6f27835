/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/fpmstore/storagemodels"
)

// Match parses condition and evaluates it against rec.
func Match(condition string, args []interface{}, rec storagemodels.Record) (bool, error) {
	n, err := Parse(condition, args)
	if err != nil {
		return false, err
	}
	return Eval(n, rec), nil
}

// Eval evaluates n against rec. Comparisons involving a missing column are false.
func Eval(n Node, rec storagemodels.Record) bool {
	switch v := n.(type) {
	case Logical:
		if v.Op == "and" {
			return Eval(v.Left, rec) && Eval(v.Right, rec)
		}
		return Eval(v.Left, rec) || Eval(v.Right, rec)
	case Not:
		return !Eval(v.Inner, rec)
	case IsNull:
		isNull := resolve(v.Left, rec) == nil
		return isNull != v.Negate
	case In:
		left := resolve(v.Left, rec)
		if left == nil {
			return false
		}
		found := false
		for _, o := range v.Values {
			if c, ok := compare(left, resolve(o, rec)); ok && c == 0 {
				found = true
				break
			}
		}
		return found != v.Negate
	case Compare:
		left, right := resolve(v.Left, rec), resolve(v.Right, rec)
		if left == nil || right == nil {
			return false
		}
		if v.Op == "like" {
			return like(fmt.Sprint(left), fmt.Sprint(right)) != v.Negate
		}
		c, ok := compare(left, right)
		if !ok {
			return v.Op == "!="
		}
		switch v.Op {
		case "=":
			return c == 0
		case "!=":
			return c != 0
		case "<":
			return c < 0
		case "<=":
			return c <= 0
		case ">":
			return c > 0
		case ">=":
			return c >= 0
		}
	}
	return false
}

// Constant reports the value of n when it references no columns, such as "1=1".
func Constant(n Node) (value bool, ok bool) {
	if len(Columns(n)) > 0 {
		return false, false
	}
	return Eval(n, nil), true
}

func resolve(o Operand, rec storagemodels.Record) interface{} {
	if !o.IsColumn() {
		return o.Value
	}
	if v, ok := rec[o.Column]; ok {
		return v
	}
	// qualified references such as fake.name
	if i := strings.LastIndex(o.Column, "."); i >= 0 {
		return rec[o.Column[i+1:]]
	}
	return nil
}

// CompareValues orders two column values. ok is false when they are not comparable.
func CompareValues(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}
	return compare(a, b)
}

func compare(a, b interface{}) (int, bool) {
	a, b = normalize(a), normalize(b)

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmpFloat(fa, fb), true
		}
	}

	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0, true
			case !ba:
				return -1, true
			default:
				return 1, true
			}
		}
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		if ta, ok := storagemodels.ParseTimestamp(sa); ok {
			if tb, ok := storagemodels.ParseTimestamp(sb); ok {
				return ta.Compare(tb), true
			}
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return storagemodels.FormatTimestamp(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return storagemodels.FormatTimestamp(*t)
	case strfmt.DateTime:
		return storagemodels.FormatTimestamp(time.Time(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []byte:
		return string(t)
	}
	return v
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		// numeric text compares numerically, as SQL engines coerce it
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func like(s, pattern string) bool {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile("(?s)" + sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
