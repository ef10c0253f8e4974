package sql

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Expression text is tokenized and parsed by recursive descent. Precedence,
// loosest first: IS TRUE/FALSE, comparisons, + -, * / %, unary, primary.

type tokenKind int

const (
	tokWord tokenKind = iota // identifier or keyword
	tokNumber
	tokString // quoted, text holds the unquoted content
	tokSymbol
)

type token struct {
	kind tokenKind
	text string
}

func lex(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'':
			i++
			var b strings.Builder
			closed := false
			for i < len(rs) {
				if rs[i] == '\'' {
					// '' escapes a quote inside the string
					if i+1 < len(rs) && rs[i+1] == '\'' {
						b.WriteRune('\'')
						i += 2
						continue
					}
					closed = true
					i++
					break
				}
				b.WriteRune(rs[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{tokString, b.String()})
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, string(rs[i:j])})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{tokWord, string(rs[i:j])})
			i = j
		default:
			// two-char operators first
			if i+1 < len(rs) {
				two := string(rs[i : i+2])
				if two == "<=" || two == ">=" || two == "!=" || two == "<>" {
					toks = append(toks, token{tokSymbol, two})
					i += 2
					continue
				}
			}
			switch r {
			case '(', ')', ',', '*', '/', '%', '+', '-', '=', '<', '>':
				toks = append(toks, token{tokSymbol, string(r)})
				i++
			default:
				return nil, fmt.Errorf("unexpected character %q", string(r))
			}
		}
	}
	return toks, nil
}

type exprParser struct {
	toks []token
	pos  int
}

// ParseExpr parses a single expression from text.
func ParseExpr(s string) (Expr, error) {
	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("trailing input after expression: %q", p.toks[p.pos].text)
	}
	return e, nil
}

func (p *exprParser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) peekWord(w string) bool {
	t, ok := p.peek()
	return ok && t.kind == tokWord && strings.EqualFold(t.text, w)
}

func (p *exprParser) peekSymbol(syms ...string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokSymbol {
		return "", false
	}
	for _, s := range syms {
		if t.text == s {
			return s, true
		}
	}
	return "", false
}

func (p *exprParser) next() (token, error) {
	t, ok := p.peek()
	if !ok {
		return token{}, fmt.Errorf("unexpected end of expression")
	}
	p.pos++
	return t, nil
}

func (p *exprParser) parseExpr() (Expr, error) {
	e, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	// postfix IS [NOT] TRUE / FALSE
	for p.peekWord("IS") {
		p.pos++
		negated := false
		if p.peekWord("NOT") {
			p.pos++
			negated = true
		}
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.kind != tokWord {
			return nil, fmt.Errorf("expected TRUE or FALSE after IS, got %q", t.text)
		}
		switch {
		case strings.EqualFold(t.text, "TRUE"):
			if negated {
				e = &IsFalseExpr{Inner: e}
			} else {
				e = &IsTrueExpr{Inner: e}
			}
		case strings.EqualFold(t.text, "FALSE"):
			if negated {
				e = &IsTrueExpr{Inner: e}
			} else {
				e = &IsFalseExpr{Inner: e}
			}
		default:
			return nil, fmt.Errorf("expected TRUE or FALSE after IS, got %q", t.text)
		}
	}
	return e, nil
}

var comparisonOps = map[string]BinaryOp{
	"=":  OpEq,
	"<":  OpLt,
	">":  OpGt,
	"<=": OpLtEq,
	">=": OpGtEq,
	"!=": OpNotEq,
	"<>": OpNotEq,
}

func (p *exprParser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	t, ok := p.peek()
	if !ok || t.kind != tokSymbol {
		return left, nil
	}
	op, ok := comparisonOps[t.text]
	if !ok {
		return left, nil
	}
	p.pos++
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: op, Left: left, Right: right}, nil
}

func (p *exprParser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		sym, ok := p.peekSymbol("+", "-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		op := OpPlus
		if sym == "-" {
			op = OpMinus
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *exprParser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		sym, ok := p.peekSymbol("*", "/", "%")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		var op BinaryOp
		switch sym {
		case "*":
			op = OpMul
		case "/":
			op = OpDiv
		case "%":
			op = OpRem
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	if p.peekWord("NOT") {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: UnaryNot, Inner: inner}, nil
	}
	if sym, ok := p.peekSymbol("+", "-"); ok {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := UnaryPlus
		if sym == "-" {
			op = UnaryMinus
		}
		return &UnaryExpr{Op: op, Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (Expr, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tokString:
		return StrLit(t.text), nil
	case tokNumber:
		return numberLiteral(t.text)
	case tokWord:
		switch {
		case strings.EqualFold(t.text, "TRUE"):
			return BoolLit(true), nil
		case strings.EqualFold(t.text, "FALSE"):
			return BoolLit(false), nil
		case strings.EqualFold(t.text, "NULL"):
			return NullLit{}, nil
		default:
			return &ColumnRef{Name: t.text}, nil
		}
	case tokSymbol:
		switch t.text {
		case "*":
			return &Wildcard{}, nil
		case "(":
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.peekSymbol(")"); !ok {
				return nil, fmt.Errorf("missing closing parenthesis")
			}
			p.pos++
			return inner, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q in expression", t.text)
}

// numberLiteral infers the narrowest type that holds the value: int32 first,
// then float32, then float64.
func numberLiteral(s string) (Expr, error) {
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return IntLit(int32(v)), nil
	}
	if v, err := strconv.ParseFloat(s, 32); err == nil {
		return FloatLit(float32(v)), nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return DoubleLit(v), nil
	}
	return nil, fmt.Errorf("invalid numeric literal %q", s)
}
