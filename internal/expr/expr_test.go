package expr

import (
	"errors"
	"math"
	"testing"
)

func TestEvalArithmetic(t *testing.T) {
	env := map[string]float64{
		"source_x":    500,
		"trace_index": 7,
		"scalar":      -100,
	}
	cases := []struct {
		src  string
		want float64
	}{
		{"source_x * 100 + 500000", 550000},
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"7 / 2", 3.5},
		{"7 // 2", 3},
		{"-7 // 2", -4},
		{"7 % 3", 1},
		{"-7 % 3", 2},
		{"7 % -3", -2},
		{"2 ** 10", 1024},
		{"-2 ** 2", -4},
		{"2 ** -1", 0.5},
		{"2 ** 3 ** 2", 512},
		{"abs(scalar)", 100},
		{"int(3.9)", 3},
		{"int(-3.9)", -3},
		{"round(2.5)", 3},
		{"round(-2.5)", -3},
		{"min(3, 1, 2)", 1},
		{"max(3, 1, 2)", 3},
		{"float(5)", 5},
		{"1e3 + 1", 1001},
		{"trace_index", 7},
	}
	for _, c := range cases {
		got, err := Eval(c.src, env)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%q = %v, want %v", c.src, got, c.want)
		}
	}
}

func TestEvalComparisonsAndBool(t *testing.T) {
	env := map[string]float64{"trace_index": 50, "cdp": 0}
	cases := []struct {
		src  string
		want float64
	}{
		{"trace_index < 100", 1},
		{"trace_index > 100", 0},
		{"0 < trace_index < 100", 1},
		{"0 < trace_index < 40", 0},
		{"100 < trace_index < 1", 0},
		{"trace_index == 50", 1},
		{"trace_index != 50", 0},
		{"trace_index >= 50 and cdp == 0", 1},
		{"trace_index > 50 and cdp == 0", 0},
		{"trace_index > 50 or cdp == 0", 1},
		{"cdp or trace_index", 50},
		{"cdp and trace_index", 0},
		{"1 and 2 and 3", 3},
	}
	for _, c := range cases {
		got, err := Eval(c.src, env)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q = %v, want %v", c.src, got, c.want)
		}
	}
}

func TestChainShortCircuit(t *testing.T) {
	// The failed first link must stop the chain before the divide.
	got, err := Eval("2 < 1 < 1/0", map[string]float64{})
	if err != nil {
		t.Fatalf("err = %v, chain should short circuit", err)
	}
	if got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, src := range []string{"1 / 0", "1 // 0", "1 % 0", "source_x / cdp"} {
		_, err := Eval(src, map[string]float64{"source_x": 1, "cdp": 0})
		if !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("%q: err = %v, want ErrDivisionByZero", src, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src  string
		want error
	}{
		{"1 +", ErrSyntax},
		{"(1 + 2", ErrSyntax},
		{"1 ; 2", ErrSyntax},
		{"min()", ErrSyntax},
		{"abs(1, 2)", ErrSyntax},
		{"__import__(1)", ErrUnknownFunction},
		{"open(1)", ErrUnknownFunction},
		{"eval(1)", ErrUnknownFunction},
	}
	for _, c := range cases {
		_, err := Parse(c.src)
		if !errors.Is(err, c.want) {
			t.Errorf("%q: err = %v, want %v", c.src, err, c.want)
		}
	}
}

func TestUnknownVariable(t *testing.T) {
	_, err := Eval("bogus_field + 1", map[string]float64{"source_x": 1})
	if !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("err = %v, want ErrUnknownVariable", err)
	}
}

func TestValidate(t *testing.T) {
	allowed := []string{"source_x", "trace_index"}
	if err := Validate("source_x * 100 + trace_index", allowed); err != nil {
		t.Fatalf("valid expression rejected: %v", err)
	}
	if err := Validate("group_x + 1", allowed); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("err = %v, want ErrUnknownVariable", err)
	}
	if err := Validate("1 +", allowed); !errors.Is(err, ErrSyntax) {
		t.Fatalf("err = %v, want ErrSyntax", err)
	}
}

func TestVars(t *testing.T) {
	e, err := Parse("source_x + abs(group_y) + source_x")
	if err != nil {
		t.Fatal(err)
	}
	got := e.Vars()
	want := []string{"group_y", "source_x"}
	if len(got) != len(want) {
		t.Fatalf("Vars = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Vars = %v, want %v", got, want)
		}
	}
}
