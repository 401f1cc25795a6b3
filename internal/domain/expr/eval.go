// Package expr evaluates small user-typed arithmetic expressions used as
// amount and balance inputs. The input is sanitized to a digits-and-operators
// alphabet and parsed with an explicit recursive-descent grammar, so no user
// input ever reaches a general-purpose evaluator.
package expr

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidExpression is returned for any input that does not reduce to a
// finite number: empty after sanitizing, malformed syntax, or division by zero.
var ErrInvalidExpression = errors.New("invalid expression")

// Evaluate parses a restricted arithmetic string such as "50+20*2" and
// returns its value. Multiplication and division bind tighter than addition
// and subtraction; equal precedence evaluates left to right.
func Evaluate(raw string) (decimal.Decimal, error) {
	sanitized := sanitize(raw)
	if sanitized == "" {
		return decimal.Zero, ErrInvalidExpression
	}

	tokens, err := tokenize(sanitized)
	if err != nil {
		return decimal.Zero, err
	}

	p := &parser{tokens: tokens}
	result, err := p.parseExpression()
	if err != nil {
		return decimal.Zero, err
	}
	if !p.done() {
		return decimal.Zero, ErrInvalidExpression
	}
	return result, nil
}

// sanitize strips every character that is not a digit, operator, or decimal point
func sanitize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenOperator
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokenOperator, text: string(c)})
			i++
		default:
			// number: digits with at most one decimal point
			start := i
			dots := 0
			for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
				if s[i] == '.' {
					dots++
				}
				i++
			}
			text := s[start:i]
			if text == "" || text == "." || dots > 1 {
				return nil, ErrInvalidExpression
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text})
		}
	}
	return tokens, nil
}

// parser implements the grammar
//
//	expression = term   { ("+" | "-") term }
//	term       = factor { ("*" | "/") factor }
//	factor     = [ "-" ] number
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool {
	return p.pos == len(p.tokens)
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseExpression() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenOperator || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return decimal.Zero, err
		}
		if tok.text == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

func (p *parser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokenOperator || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		if tok.text == "*" {
			left = left.Mul(right)
		} else {
			if right.IsZero() {
				return decimal.Zero, ErrInvalidExpression
			}
			left = left.Div(right)
		}
	}
}

func (p *parser) parseFactor() (decimal.Decimal, error) {
	tok, ok := p.peek()
	if !ok {
		return decimal.Zero, ErrInvalidExpression
	}

	negative := false
	if tok.kind == tokenOperator && tok.text == "-" {
		negative = true
		p.pos++
		tok, ok = p.peek()
		if !ok {
			return decimal.Zero, ErrInvalidExpression
		}
	}

	if tok.kind != tokenNumber {
		return decimal.Zero, ErrInvalidExpression
	}
	p.pos++

	value, err := decimal.NewFromString(tok.text)
	if err != nil {
		return decimal.Zero, ErrInvalidExpression
	}
	if negative {
		value = value.Neg()
	}
	return value, nil
}
