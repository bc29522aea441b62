package jit

import (
	"strings"
	"testing"

	"numexpr/internal/ast"
	"numexpr/internal/lexer"
	"numexpr/internal/parser"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

func compileExpr(t *testing.T, src string, varTags map[string]types.Tag) *semantic.Result {
	t.Helper()
	toks, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}
	root, arena, err := parser.NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	vars := make([]types.VarDesc, 0, len(varTags))
	for name, tag := range varTags {
		vars = append(vars, types.VarDesc{Name: name, Declared: tag})
	}
	res, err := semantic.Analyze(arena, root, vars, types.Auto)
	if err != nil {
		t.Fatalf("analyze %q: %v", src, err)
	}
	return res
}

func TestGenerateCEmitsLoopOverN(t *testing.T) {
	res := compileExpr(t, "2.0 * a + b", map[string]types.Tag{
		"a": types.Float64, "b": types.Float64,
	})
	src, err := GenerateC("kernel0", res)
	if err != nil {
		t.Fatalf("GenerateC: %v", err)
	}
	for _, want := range []string{"void kernel0(int64_t n", "for (int64_t i = 0; i < n; i++)", "var0[i]", "var1[i]"} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q:\n%s", want, src)
		}
	}
}

func TestGenerateCRejectsKernelDef(t *testing.T) {
	res := compileExpr(t, "1 + 1", nil)
	kernelRoot := res.Arena.Add(ast.Node{Kind: ast.KindKernelDef, Op: "k", List: []ast.NodeID{res.Root}})
	res.Root = kernelRoot
	if _, err := GenerateC("kernel2", res); err == nil {
		t.Fatalf("GenerateC accepted a KindKernelDef root, want jit_unsupported error")
	}
}

func TestGenerateCAcceptsSingleArgCall(t *testing.T) {
	res := compileExpr(t, "sqrt(a)", map[string]types.Tag{"a": types.Float64})
	if _, err := GenerateC("kernel1", res); err != nil {
		t.Fatalf("GenerateC single-arg call: %v", err)
	}
}

func TestCLiteralFormatsByTag(t *testing.T) {
	cases := []struct {
		s    types.Scalar
		want string
	}{
		{types.Scalar{Tag: types.Float64, F64: 1.5}, "1.5"},
		{types.Scalar{Tag: types.Uint64, U: 7}, "7ULL"},
		{types.Scalar{Tag: types.Bool, I: 1}, "1"},
		{types.Scalar{Tag: types.Bool, I: 0}, "0"},
		{types.Scalar{Tag: types.Int64, I: -3}, "-3LL"},
	}
	for _, c := range cases {
		got, err := cLiteral(c.s)
		if err != nil {
			t.Fatalf("cLiteral(%+v): %v", c.s, err)
		}
		if got != c.want {
			t.Errorf("cLiteral(%+v) = %q, want %q", c.s, got, c.want)
		}
	}
}
