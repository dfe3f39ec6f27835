/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/fpmstore/errors"
)

// Node is a parsed condition.
type Node interface {
	node()
}

// Logical joins two conditions with "and" or "or".
type Logical struct {
	Op          string
	Left, Right Node
}

// Not negates a condition.
type Not struct {
	Inner Node
}

// Compare is a binary comparison. Op is one of = != < <= > >= like.
type Compare struct {
	Op          string
	Left, Right Operand
	Negate      bool
}

// In tests membership in a literal list.
type In struct {
	Left   Operand
	Values []Operand
	Negate bool
}

// IsNull tests for a missing or null column.
type IsNull struct {
	Left   Operand
	Negate bool
}

// Operand is either a column reference or a bound value.
type Operand struct {
	Column string
	Value  interface{}
}

// IsColumn reports whether the operand references a column.
func (o Operand) IsColumn() bool {
	return o.Column != ""
}

func (Logical) node() {}
func (Not) node()     {}
func (Compare) node() {}
func (In) node()      {}
func (IsNull) node()  {}

// MaxDepth bounds the nesting of parentheses and "not" in a condition.
const MaxDepth = 64

type parser struct {
	tokens []token
	pos    int
	args   []interface{}
	argIdx int
	depth  int
}

// Parse parses a condition and binds its "?" placeholders to args in order.
func Parse(condition string, args []interface{}) (Node, error) {
	if strings.TrimSpace(condition) == "" {
		return Compare{Op: "=", Left: Operand{Value: int64(1)}, Right: Operand{Value: int64(1)}}, nil
	}
	tokens, err := lex(condition)
	if err != nil {
		return nil, errors.NewValidationError("condition", err.Error())
	}
	p := &parser{tokens: tokens, args: args}
	n, err := p.parseOr()
	if err != nil {
		return nil, errors.NewValidationError("condition", err.Error())
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errors.NewValidationError("condition", fmt.Sprintf("unexpected %q at %d", t.text, t.pos))
	}
	if p.argIdx != len(args) {
		return nil, errors.NewValidationError("condition",
			fmt.Sprintf("%d placeholders but %d arguments", p.argIdx, len(args)))
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(word string) bool {
	if t := p.peek(); t.kind == tokKeyword && t.text == word {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Logical{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Logical{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, fmt.Errorf("condition nested deeper than %d levels at %d", MaxDepth, p.peek().pos)
	}

	if p.keyword("not") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at %d", t.pos)
		}
		return n, nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if p.keyword("is") {
		negate := p.keyword("not")
		if !p.keyword("null") {
			return nil, fmt.Errorf("expected null at %d", p.peek().pos)
		}
		return IsNull{Left: left, Negate: negate}, nil
	}

	negate := p.keyword("not")
	if p.keyword("like") {
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return Compare{Op: "like", Left: left, Right: right, Negate: negate}, nil
	}
	if p.keyword("in") {
		values, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return In{Left: left, Values: values, Negate: negate}, nil
	}
	if negate {
		return nil, fmt.Errorf("expected like or in at %d", p.peek().pos)
	}

	t := p.next()
	if t.kind != tokOp {
		return nil, fmt.Errorf("expected operator at %d", t.pos)
	}
	op := t.text
	if op == "<>" {
		op = "!="
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return Compare{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseList() ([]Operand, error) {
	if t := p.next(); t.kind != tokLParen {
		return nil, fmt.Errorf("expected '(' at %d", t.pos)
	}
	var values []Operand
	for {
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		t := p.next()
		if t.kind == tokRParen {
			return values, nil
		}
		if t.kind != tokComma {
			return nil, fmt.Errorf("expected ',' or ')' at %d", t.pos)
		}
	}
}

func (p *parser) parseOperand() (Operand, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		return Operand{Column: t.text}, nil
	case tokString:
		return Operand{Value: t.text}, nil
	case tokNumber:
		if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return Operand{Value: i}, nil
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Operand{}, fmt.Errorf("bad number %q at %d", t.text, t.pos)
		}
		return Operand{Value: f}, nil
	case tokParam:
		if p.argIdx >= len(p.args) {
			return Operand{}, fmt.Errorf("missing argument for placeholder %d", p.argIdx+1)
		}
		v := p.args[p.argIdx]
		p.argIdx++
		return Operand{Value: v}, nil
	case tokKeyword:
		switch t.text {
		case "true":
			return Operand{Value: true}, nil
		case "false":
			return Operand{Value: false}, nil
		case "null":
			return Operand{Value: nil}, nil
		}
	}
	if t.kind == tokEOF {
		return Operand{}, fmt.Errorf("unexpected end of condition")
	}
	return Operand{}, fmt.Errorf("unexpected %q at %d", t.text, t.pos)
}

// Columns lists the columns referenced by n.
func Columns(n Node) []string {
	seen := map[string]bool{}
	var out []string
	add := func(o Operand) {
		if o.IsColumn() && !seen[o.Column] {
			seen[o.Column] = true
			out = append(out, o.Column)
		}
	}
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case Logical:
			walk(v.Left)
			walk(v.Right)
		case Not:
			walk(v.Inner)
		case Compare:
			add(v.Left)
			add(v.Right)
		case In:
			add(v.Left)
			for _, o := range v.Values {
				add(o)
			}
		case IsNull:
			add(v.Left)
		}
	}
	walk(n)
	return out
}
