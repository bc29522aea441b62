package numexpr

import "testing"

func TestCompileAndEvaluateElementwise(t *testing.T) {
	vars := []VarDesc{{Name: "a", Declared: Float64}, {Name: "b", Declared: Float64}}
	e, err := Compile("a*a + b*b", vars, Auto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	a := NewFloat64Array([]float64{3, 5, 8})
	b := NewFloat64Array([]float64{4, 12, 15})
	out := make(Float64Output, 3)
	if err := Evaluate(e, []Array{a, b}, 3, out, Params{}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []float64{25, 169, 289}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestCompileRejectsBadSyntax(t *testing.T) {
	if _, err := Compile("a +", nil, Auto); err == nil {
		t.Fatal("expected a parse error, got nil")
	}
	if msg, ok := LastError(); !ok || msg == "" {
		t.Errorf("LastError() = %q, %v, want a recorded message", msg, ok)
	}
}

func TestEvaluateRejectsVarCountMismatch(t *testing.T) {
	vars := []VarDesc{{Name: "a", Declared: Float64}}
	e, err := Compile("a + 1", vars, Auto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out := make(Float64Output, 1)
	if err := Evaluate(e, []Array{}, 1, out, Params{}); err == nil {
		t.Fatal("expected var_mismatch error, got nil")
	}
}

func TestEvaluateNilExpr(t *testing.T) {
	var e *Expr
	out := make(Float64Output, 1)
	if err := Evaluate(e, nil, 1, out, Params{}); err == nil {
		t.Fatal("expected null_expr error, got nil")
	}
}

func TestCompileKernelEvaluatesMultiStatement(t *testing.T) {
	src := "def scale(x):\n  y = x * 2\n  return y\n"
	e, err := CompileKernel(src)
	if err != nil {
		t.Fatalf("CompileKernel: %v", err)
	}
	x := NewFloat64Array([]float64{1, 2, 3})
	out := make(Float64Output, 3)
	if err := Evaluate(e, []Array{x}, 3, out, Params{}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []float64{2, 4, 6}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestCompileNDAndValidCount(t *testing.T) {
	vars := []VarDesc{{Name: "a", Declared: Float64}}
	e, err := CompileND("a + 1", vars, Auto, []int64{10}, []int32{4}, []int32{4})
	if err != nil {
		t.Fatalf("CompileND: %v", err)
	}
	n, err := e.ValidCount([]int{2}, []int{0})
	if err != nil {
		t.Fatalf("ValidCount: %v", err)
	}
	if n != 2 {
		t.Errorf("ValidCount = %d, want 2 (10 elements, chunk 2 of size 4 holds only 2 valid)", n)
	}
}

func TestCompileNDRejectsDimensionalityMismatch(t *testing.T) {
	vars := []VarDesc{{Name: "a", Declared: Float64}}
	if _, err := CompileND("a + 1", vars, Auto, []int64{10}, []int32{4}, []int32{4, 4}); err == nil {
		t.Fatal("expected a dimensionality-mismatch error, got nil")
	}
}

func TestVersionNonEmpty(t *testing.T) {
	v := Version()
	if v == "" {
		t.Fatal("Version() returned empty string")
	}
}
