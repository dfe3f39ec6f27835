/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"
	"strings"

	"github.com/suparena/fpmstore/errors"
)

// DynamoFilter is a condition rendered as a DynamoDB filter expression.
// Values hold plain Go values for the caller to marshal.
type DynamoFilter struct {
	Expression string
	Names      map[string]string
	Values     map[string]interface{}

	// Never is set when the condition folds to false and no item can match.
	Never bool
}

// ToDynamo translates n into a filter expression. Subexpressions that reference
// no columns are folded, so "1=1" yields an empty expression.
func ToDynamo(n Node) (*DynamoFilter, error) {
	t := &translator{
		filter: &DynamoFilter{
			Names:  map[string]string{},
			Values: map[string]interface{}{},
		},
		names: map[string]string{},
	}
	s, value, constant, err := t.node(n)
	if err != nil {
		return nil, err
	}
	if constant {
		t.filter.Never = !value
		return t.filter, nil
	}
	t.filter.Expression = s
	return t.filter, nil
}

// And joins non-empty expressions with AND.
func And(exprs ...string) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if e != "" {
			parts = append(parts, e)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, " AND ")
}

type translator struct {
	filter *DynamoFilter
	names  map[string]string
}

func (t *translator) node(n Node) (expr string, value bool, constant bool, err error) {
	if v, ok := Constant(n); ok {
		return "", v, true, nil
	}
	switch v := n.(type) {
	case Logical:
		l, lv, lc, err := t.node(v.Left)
		if err != nil {
			return "", false, false, err
		}
		r, rv, rc, err := t.node(v.Right)
		if err != nil {
			return "", false, false, err
		}
		if v.Op == "and" {
			switch {
			case lc && !lv, rc && !rv:
				return "", false, true, nil
			case lc:
				return r, false, false, nil
			case rc:
				return l, false, false, nil
			}
			return fmt.Sprintf("(%s) AND (%s)", l, r), false, false, nil
		}
		switch {
		case lc && lv, rc && rv:
			return "", true, true, nil
		case lc:
			return r, false, false, nil
		case rc:
			return l, false, false, nil
		}
		return fmt.Sprintf("(%s) OR (%s)", l, r), false, false, nil
	case Not:
		inner, iv, ic, err := t.node(v.Inner)
		if err != nil {
			return "", false, false, err
		}
		if ic {
			return "", !iv, true, nil
		}
		return fmt.Sprintf("NOT (%s)", inner), false, false, nil
	case IsNull:
		name := t.operand(v.Left)
		typ := t.value("NULL")
		if v.Negate {
			return fmt.Sprintf("attribute_exists(%s) AND NOT attribute_type(%s, %s)", name, name, typ), false, false, nil
		}
		return fmt.Sprintf("attribute_not_exists(%s) OR attribute_type(%s, %s)", name, name, typ), false, false, nil
	case In:
		left := t.operand(v.Left)
		values := make([]string, 0, len(v.Values))
		for _, o := range v.Values {
			values = append(values, t.operand(o))
		}
		s := fmt.Sprintf("%s IN (%s)", left, strings.Join(values, ", "))
		if v.Negate {
			s = "NOT (" + s + ")"
		}
		return s, false, false, nil
	case Compare:
		s, err := t.compare(v)
		return s, false, false, err
	}
	return "", false, false, errors.NewUnsupportedError("dynamodb", fmt.Sprintf("condition %T", n))
}

var flipped = map[string]string{
	"=":  "=",
	"!=": "<>",
	"<":  ">",
	"<=": ">=",
	">":  "<",
	">=": "<=",
}

func (t *translator) compare(c Compare) (string, error) {
	if c.Op == "like" {
		return t.like(c)
	}
	left, right, op := c.Left, c.Right, c.Op
	if !left.IsColumn() {
		left, right, op = right, left, flipped[op]
	} else if op == "!=" {
		op = "<>"
	}
	return fmt.Sprintf("%s %s %s", t.operand(left), op, t.operand(right)), nil
}

func (t *translator) like(c Compare) (string, error) {
	pattern, ok := c.Right.Value.(string)
	if !c.Left.IsColumn() || c.Right.IsColumn() || !ok {
		return "", errors.NewUnsupportedError("dynamodb", "like with a non literal pattern")
	}
	name := t.operand(c.Left)

	var s string
	body := strings.Trim(pattern, "%")
	switch {
	case strings.ContainsAny(body, "%_"):
		return "", errors.NewUnsupportedError("dynamodb", fmt.Sprintf("like pattern %q", pattern))
	case !strings.ContainsAny(pattern, "%"):
		s = fmt.Sprintf("%s = %s", name, t.value(pattern))
	case strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%"):
		s = fmt.Sprintf("contains(%s, %s)", name, t.value(body))
	case strings.HasSuffix(pattern, "%"):
		s = fmt.Sprintf("begins_with(%s, %s)", name, t.value(body))
	default:
		return "", errors.NewUnsupportedError("dynamodb", fmt.Sprintf("like pattern %q", pattern))
	}
	if c.Negate {
		s = "NOT (" + s + ")"
	}
	return s, nil
}

func (t *translator) operand(o Operand) string {
	if !o.IsColumn() {
		return t.value(normalize(o.Value))
	}
	parts := strings.Split(o.Column, ".")
	for i, part := range parts {
		ph, ok := t.names[part]
		if !ok {
			ph = fmt.Sprintf("#n%d", len(t.names))
			t.names[part] = ph
			t.filter.Names[ph] = part
		}
		parts[i] = ph
	}
	return strings.Join(parts, ".")
}

func (t *translator) value(v interface{}) string {
	ph := fmt.Sprintf(":v%d", len(t.filter.Values))
	t.filter.Values[ph] = v
	return ph
}
