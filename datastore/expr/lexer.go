/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokParam
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokKeyword
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var keywords = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"is":    true,
	"null":  true,
	"in":    true,
	"like":  true,
	"true":  true,
	"false": true,
}

func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i++
		case r == '?':
			tokens = append(tokens, token{kind: tokParam, text: "?", pos: i})
			i++
		case r == '\'':
			start := i
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						sb.WriteRune('\'')
						i += 2
						continue
					}
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string at %d", start)
			}
			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})
		case r == '"':
			start := i
			i++
			j := i
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated identifier at %d", start)
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[i:j]), pos: start})
			i = j + 1
		case r == '=':
			tokens = append(tokens, token{kind: tokOp, text: "=", pos: i})
			i++
		case r == '!' || r == '<' || r == '>':
			start := i
			op := string(r)
			if i+1 < len(runes) && (runes[i+1] == '=' || (r == '<' && runes[i+1] == '>')) {
				op += string(runes[i+1])
				i++
			}
			i++
			if op == "!" {
				return nil, fmt.Errorf("unexpected '!' at %d", start)
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: start})
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '.') {
				i++
			}
			word := string(runes[start:i])
			if keywords[strings.ToLower(word)] {
				tokens = append(tokens, token{kind: tokKeyword, text: strings.ToLower(word), pos: start})
			} else {
				// unquoted names fold like PostgreSQL's, "Quoted" ones keep their case
				tokens = append(tokens, token{kind: tokIdent, text: strings.ToLower(word), pos: start})
			}
		default:
			return nil, fmt.Errorf("unexpected %q at %d", r, i)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}
