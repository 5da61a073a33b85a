package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokOp  // arithmetic and comparison operators, parens, comma
	tokAnd // keyword and
	tokOr  // keyword or
)

type token struct {
	kind tokKind
	text string
	pos  int
	num  float64
}

type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer { return &lexer{src: src} }

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}
	start := l.pos
	c := l.src[l.pos]

	switch {
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.lexNumber(start)
	case isAlpha(c):
		for l.pos < len(l.src) && (isAlpha(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.pos++
		}
		word := l.src[start:l.pos]
		switch word {
		case "and":
			return token{kind: tokAnd, text: word, pos: start}, nil
		case "or":
			return token{kind: tokOr, text: word, pos: start}, nil
		}
		return token{kind: tokIdent, text: word, pos: start}, nil
	}

	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "**", "//", "<=", ">=", "==", "!=":
		l.pos += 2
		return token{kind: tokOp, text: two, pos: start}, nil
	}
	switch c {
	case '+', '-', '*', '/', '%', '<', '>', '(', ')', ',':
		l.pos++
		return token{kind: tokOp, text: string(c), pos: start}, nil
	}
	return token{}, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, string(c), start)
}

func (l *lexer) lexNumber(start int) (token, error) {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = mark // bare e belongs to a following identifier, not the number
		}
	}
	text := l.src[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, fmt.Errorf("%w: bad number %q at position %d", ErrSyntax, text, start)
	}
	return token{kind: tokNumber, text: text, pos: start, num: v}, nil
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// allowedFuncs is the complete call surface an expression may use.
var allowedFuncs = map[string]struct {
	minArgs, maxArgs int
}{
	"abs":   {1, 1},
	"int":   {1, 1},
	"round": {1, 1},
	"float": {1, 1},
	"min":   {1, -1},
	"max":   {1, -1},
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) next() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expectOp(text string) error {
	if p.tok.kind != tokOp || p.tok.text != text {
		return fmt.Errorf("%w: expected %q at position %d, got %q", ErrSyntax, text, p.tok.pos, p.tok.text)
	}
	return p.next()
}

func (p *parser) atOp(texts ...string) bool {
	if p.tok.kind != tokOp {
		return false
	}
	for _, t := range texts {
		if p.tok.text == t {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokOr {
		return first, nil
	}
	operands := []node{first}
	for p.tok.kind == tokOr {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, n)
	}
	return boolNode{and: false, operands: operands}, nil
}

func (p *parser) parseAnd() (node, error) {
	first, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokAnd {
		return first, nil
	}
	operands := []node{first}
	for p.tok.kind == tokAnd {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		operands = append(operands, n)
	}
	return boolNode{and: true, operands: operands}, nil
}

func (p *parser) parseComparison() (node, error) {
	first, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if !p.atOp("<", "<=", ">", ">=", "==", "!=") {
		return first, nil
	}
	chain := cmpChainNode{operands: []node{first}}
	for p.atOp("<", "<=", ">", ">=", "==", "!=") {
		op := p.tok.text
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		chain.ops = append(chain.ops, op)
		chain.operands = append(chain.operands, n)
	}
	return chain, nil
}

func (p *parser) parseAdd() (node, error) {
	n, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.atOp("+", "-") {
		op := p.tok.text
		if err := p.next(); err != nil {
			return nil, err
		}
		r, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		n = binNode{op: op, l: n, r: r}
	}
	return n, nil
}

func (p *parser) parseMul() (node, error) {
	n, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atOp("*", "/", "//", "%") {
		op := p.tok.text
		if err := p.next(); err != nil {
			return nil, err
		}
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n = binNode{op: op, l: n, r: r}
	}
	return n, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.atOp("+", "-") {
		neg := p.tok.text == "-"
		if err := p.next(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{neg: neg, x: x}, nil
	}
	return p.parsePower()
}

// parsePower binds tighter than unary minus on the left and loops back to
// unary on the right, so -2**2 is -(2**2) and 2**-1 parses.
func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.atOp("**") {
		return base, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return binNode{op: "**", l: base, r: exp}, nil
}

func (p *parser) parsePrimary() (node, error) {
	switch p.tok.kind {
	case tokNumber:
		n := numNode{v: p.tok.num}
		return n, p.next()
	case tokIdent:
		name := p.tok.text
		if err := p.next(); err != nil {
			return nil, err
		}
		if !p.atOp("(") {
			return varNode{name: name}, nil
		}
		return p.parseCall(name)
	}
	if p.atOp("(") {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return n, p.expectOp(")")
	}
	return nil, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, p.tok.text, p.tok.pos)
}

func (p *parser) parseCall(name string) (node, error) {
	sig, ok := allowedFuncs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (allowed: %s)", ErrUnknownFunction, name, allowedFuncNames())
	}
	if err := p.next(); err != nil { // consume (
		return nil, err
	}
	var args []node
	if !p.atOp(")") {
		for {
			a, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.atOp(",") {
				break
			}
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if len(args) < sig.minArgs || (sig.maxArgs >= 0 && len(args) > sig.maxArgs) {
		return nil, fmt.Errorf("%w: wrong number of arguments for %s: %d", ErrSyntax, name, len(args))
	}
	return callNode{name: name, args: args}, nil
}

func allowedFuncNames() string {
	names := make([]string, 0, len(allowedFuncs))
	for n := range allowedFuncs {
		names = append(names, n)
	}
	// Small fixed set; sort inline for a stable message.
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return strings.Join(names, ", ")
}
