// Package expr evaluates restricted arithmetic expressions over trace and
// binary header fields. Only literals, named variables, arithmetic and
// comparison operators, boolean and/or, and an allow-listed set of functions
// can appear; anything else is rejected at parse time.
package expr

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrSyntax          = errors.New("invalid expression")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrUnknownFunction = errors.New("function not allowed")
	ErrDivisionByZero  = errors.New("division by zero")
)

// Expr is a parsed, reusable expression.
type Expr struct {
	src  string
	root node
	vars map[string]struct{}
}

// Parse compiles src. Unknown functions and malformed syntax fail here;
// unknown variables fail at Eval (or Validate) time since the variable set
// depends on the header the expression runs against.
func Parse(src string) (*Expr, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, p.tok.text, p.tok.pos)
	}
	e := &Expr{src: src, root: root, vars: make(map[string]struct{})}
	collectVars(root, e.vars)
	return e, nil
}

// Eval computes the expression against env. A variable absent from env is an
// ErrUnknownVariable; numeric truthiness follows the usual nonzero rule.
func (e *Expr) Eval(env map[string]float64) (float64, error) {
	return e.root.eval(env)
}

// Vars returns the variable names the expression references, sorted.
func (e *Expr) Vars() []string {
	out := make([]string, 0, len(e.vars))
	for v := range e.vars {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (e *Expr) String() string { return e.src }

// Validate parses src and checks that every referenced variable is in
// allowed. It is the static check run before an edit job starts.
func Validate(src string, allowed []string) error {
	e, err := Parse(src)
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	for _, v := range e.Vars() {
		if _, ok := set[v]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, v)
		}
	}
	return nil
}

// Eval is a one-shot parse and evaluate.
func Eval(src string, env map[string]float64) (float64, error) {
	e, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(env)
}

type node interface {
	eval(env map[string]float64) (float64, error)
}

type numNode struct{ v float64 }

func (n numNode) eval(map[string]float64) (float64, error) { return n.v, nil }

type varNode struct{ name string }

func (n varNode) eval(env map[string]float64) (float64, error) {
	v, ok := env[n.name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, n.name)
	}
	return v, nil
}

type unaryNode struct {
	neg bool
	x   node
}

func (n unaryNode) eval(env map[string]float64) (float64, error) {
	v, err := n.x.eval(env)
	if err != nil {
		return 0, err
	}
	if n.neg {
		return -v, nil
	}
	return v, nil
}

type binNode struct {
	op   string
	l, r node
}

func (n binNode) eval(env map[string]float64) (float64, error) {
	a, err := n.l.eval(env)
	if err != nil {
		return 0, err
	}
	b, err := n.r.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Floor(a / b), nil
	case "%":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r, nil
	case "**":
		return math.Pow(a, b), nil
	}
	return 0, fmt.Errorf("%w: operator %q", ErrSyntax, n.op)
}

// cmpChainNode evaluates a < b <= c style chains left to right, short
// circuiting to 0 on the first failed link.
type cmpChainNode struct {
	operands []node
	ops      []string
}

func (n cmpChainNode) eval(env map[string]float64) (float64, error) {
	left, err := n.operands[0].eval(env)
	if err != nil {
		return 0, err
	}
	for i, op := range n.ops {
		right, err := n.operands[i+1].eval(env)
		if err != nil {
			return 0, err
		}
		if !compare(op, left, right) {
			return 0, nil
		}
		left = right
	}
	return 1, nil
}

func compare(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

// boolNode is an n-ary and/or. It returns operand values rather than bare
// 0/1: "and" yields the first falsy operand or the last one, "or" the first
// truthy operand or the last one.
type boolNode struct {
	and      bool
	operands []node
}

func (n boolNode) eval(env map[string]float64) (float64, error) {
	var v float64
	for i, op := range n.operands {
		var err error
		v, err = op.eval(env)
		if err != nil {
			return 0, err
		}
		if i == len(n.operands)-1 {
			break
		}
		if n.and && v == 0 {
			return v, nil
		}
		if !n.and && v != 0 {
			return v, nil
		}
	}
	return v, nil
}

type callNode struct {
	name string
	args []node
}

func (n callNode) eval(env map[string]float64) (float64, error) {
	vals := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	switch n.name {
	case "abs":
		return math.Abs(vals[0]), nil
	case "int":
		return math.Trunc(vals[0]), nil
	case "round":
		return math.Round(vals[0]), nil
	case "float":
		return vals[0], nil
	case "min":
		out := vals[0]
		for _, v := range vals[1:] {
			if v < out {
				out = v
			}
		}
		return out, nil
	case "max":
		out := vals[0]
		for _, v := range vals[1:] {
			if v > out {
				out = v
			}
		}
		return out, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, n.name)
}

func collectVars(n node, out map[string]struct{}) {
	switch t := n.(type) {
	case varNode:
		out[t.name] = struct{}{}
	case unaryNode:
		collectVars(t.x, out)
	case binNode:
		collectVars(t.l, out)
		collectVars(t.r, out)
	case cmpChainNode:
		for _, op := range t.operands {
			collectVars(op, out)
		}
	case boolNode:
		for _, op := range t.operands {
			collectVars(op, out)
		}
	case callNode:
		for _, a := range t.args {
			collectVars(a, out)
		}
	}
}
