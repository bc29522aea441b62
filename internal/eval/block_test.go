package eval

import (
	"math"
	"testing"

	"numexpr/internal/lexer"
	"numexpr/internal/parser"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

func compile(t *testing.T, src string, vars []types.VarDesc, outTag types.Tag) *semantic.Result {
	t.Helper()
	toks, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	root, arena, err := parser.NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := semantic.Analyze(arena, root, vars, outTag)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return res
}

func TestElementwiseIntAdd(t *testing.T) {
	vars := []types.VarDesc{{Name: "a", Declared: types.Int32}, {Name: "b", Declared: types.Int32}}
	res := compile(t, "a + b", vars, types.Int32)
	a := NewInt32Array([]int32{0, 1, 2, 3, 4})
	b := NewInt32Array([]int32{10, 20, 30, 40, 50})
	out := make(Int64Output, 5)
	if err := EvalBlock(res, []Array{a, b}, out, Params{}); err != nil {
		t.Fatalf("EvalBlock: %v", err)
	}
	want := []int64{10, 21, 32, 43, 54}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %d, want %d", i, out[i], w)
		}
	}
}

func TestPythagoras(t *testing.T) {
	vars := []types.VarDesc{{Name: "a", Declared: types.Float64}, {Name: "b", Declared: types.Float64}}
	res := compile(t, "sqrt(a*a + b*b)", vars, types.Float64)
	a := NewFloat64Array([]float64{3.0, 5.0, 8.0})
	b := NewFloat64Array([]float64{4.0, 12.0, 15.0})
	out := make(Float64Output, 3)
	if err := EvalBlock(res, []Array{a, b}, out, Params{}); err != nil {
		t.Fatalf("EvalBlock: %v", err)
	}
	want := []float64{5.0, 13.0, 17.0}
	for i, w := range want {
		if math.Abs(out[i]-w) > 1e-9 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestMixedTypeWithDeclaredOutput(t *testing.T) {
	vars := []types.VarDesc{{Name: "a", Declared: types.Int32}, {Name: "b", Declared: types.Float64}}
	res := compile(t, "a + b", vars, types.Float32)
	a := NewInt32Array([]int32{10, 20, 30, 40, 50})
	b := NewFloat64Array([]float64{1.5, 2.5, 3.5, 4.5, 5.5})
	out := make(Float32Output, 5)
	if err := EvalBlock(res, []Array{a, b}, out, Params{}); err != nil {
		t.Fatalf("EvalBlock: %v", err)
	}
	want := []float32{11.5, 22.5, 33.5, 44.5, 55.5}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestElementwiseWhere(t *testing.T) {
	vars := []types.VarDesc{{Name: "x", Declared: types.Float64}}
	res := compile(t, "where(x < 0, 0, where(x > 1, 1, x))", vars, types.Float64)
	x := NewFloat64Array([]float64{-0.5, 0.0, 0.3, 0.7, 1.0, 1.5})
	out := make(Float64Output, 6)
	if err := EvalBlock(res, []Array{x}, out, Params{}); err != nil {
		t.Fatalf("EvalBlock: %v", err)
	}
	want := []float64{0.0, 0.0, 0.3, 0.7, 1.0, 1.0}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestVarMismatchError(t *testing.T) {
	vars := []types.VarDesc{{Name: "a", Declared: types.Int32}, {Name: "b", Declared: types.Int32}}
	res := compile(t, "a + b", vars, types.Int32)
	a := NewInt32Array([]int32{1, 2, 3})
	out := make(Int64Output, 3)
	if err := EvalBlock(res, []Array{a}, out, Params{}); err == nil {
		t.Fatal("expected var_mismatch error")
	}
}

func TestBlockSizeIndependence(t *testing.T) {
	vars := []types.VarDesc{{Name: "a", Declared: types.Int32}, {Name: "b", Declared: types.Int32}}
	res := compile(t, "a * b - a", vars, types.Int32)
	a := make([]int32, 100)
	b := make([]int32, 100)
	for i := range a {
		a[i] = int32(i)
		b[i] = int32(100 - i)
	}
	big := make(Int64Output, 100)
	small := make(Int64Output, 100)
	if err := EvalBlock(res, []Array{NewInt32Array(a), NewInt32Array(b)}, big, Params{BlockSize: 4096}); err != nil {
		t.Fatalf("EvalBlock: %v", err)
	}
	if err := EvalBlock(res, []Array{NewInt32Array(a), NewInt32Array(b)}, small, Params{BlockSize: 7}); err != nil {
		t.Fatalf("EvalBlock: %v", err)
	}
	for i := range big {
		if big[i] != small[i] {
			t.Errorf("block-size dependent result at %d: %d != %d", i, big[i], small[i])
		}
	}
}
