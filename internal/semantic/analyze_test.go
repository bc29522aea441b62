package semantic

import (
	"testing"

	"github.com/kr/pretty"

	"numexpr/internal/ast"
	"numexpr/internal/lexer"
	"numexpr/internal/parser"
	"numexpr/internal/types"
)

func compileExpr(t *testing.T, src string, vars []types.VarDesc, outTag types.Tag) *Result {
	t.Helper()
	toks, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	root, arena, err := parser.NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := Analyze(arena, root, vars, outTag)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return res
}

func TestAnalyzePromotesMixedTypes(t *testing.T) {
	vars := []types.VarDesc{
		{Name: "a", Declared: types.Int32},
		{Name: "b", Declared: types.Float64},
	}
	res := compileExpr(t, "a + b", vars, types.Auto)
	if res.OutputTag != types.Float64 {
		t.Fatalf("OutputTag = %v, want float64", res.OutputTag)
	}
}

func TestAnalyzeCastsAtRoot(t *testing.T) {
	vars := []types.VarDesc{
		{Name: "a", Declared: types.Int32},
		{Name: "b", Declared: types.Float64},
	}
	res := compileExpr(t, "a + b", vars, types.Float32)
	if res.OutputTag != types.Float32 {
		t.Fatalf("OutputTag = %v, want float32", res.OutputTag)
	}
	if res.Arena.Get(res.Root).Kind != ast.KindCast {
		t.Fatalf("root kind = %v, want Cast", res.Arena.Get(res.Root).Kind)
	}
}

func TestAnalyzeRejectsMixedVarModes(t *testing.T) {
	vars := []types.VarDesc{
		{Name: "a", Declared: types.Auto},
		{Name: "b", Declared: types.Float64},
	}
	toks, _ := lexer.NewScanner("a + b").ScanTokens()
	root, arena, _ := parser.NewParser(toks).ParseExpression()
	if _, err := Analyze(arena, root, vars, types.Float64); err == nil {
		t.Fatal("expected var_mixed error")
	}
}

func TestAnalyzePredicateReduction(t *testing.T) {
	vars := []types.VarDesc{{Name: "x", Declared: types.Int32}}
	res := compileExpr(t, "sum(x == 1)", vars, types.Auto)
	root := res.Arena.Get(res.Root)
	if root.Kind != ast.KindReduction || !root.Predicate {
		t.Fatalf("root = %+v, want predicate reduction", root)
	}
	if res.OutputTag != types.Int64 {
		t.Fatalf("OutputTag = %v, want int64", res.OutputTag)
	}
}

func TestAnalyzeRejectsBitwiseOnFloat(t *testing.T) {
	vars := []types.VarDesc{{Name: "a", Declared: types.Float64}, {Name: "b", Declared: types.Float64}}
	toks, _ := lexer.NewScanner("a & b").ScanTokens()
	root, arena, _ := parser.NewParser(toks).ParseExpression()
	if _, err := Analyze(arena, root, vars, types.Auto); err == nil {
		t.Fatal("expected invalid_arg_type error")
	}
}

func TestAnalyzeEchoesVarTableUnchanged(t *testing.T) {
	vars := []types.VarDesc{
		{Name: "a", Declared: types.Int32},
		{Name: "b", Declared: types.Float64},
	}
	res := compileExpr(t, "a + b", vars, types.Auto)
	if diff := pretty.Diff(res.Vars, vars); len(diff) > 0 {
		t.Fatalf("Result.Vars diverged from the input descriptor table: %v", diff)
	}
}

func TestAnalyzeWhereChain(t *testing.T) {
	vars := []types.VarDesc{{Name: "x", Declared: types.Float64}}
	res := compileExpr(t, "where(x < 0, 0, where(x > 1, 1, x))", vars, types.Auto)
	if res.OutputTag != types.Float64 {
		t.Fatalf("OutputTag = %v, want float64", res.OutputTag)
	}
	if res.Arena.Get(res.Root).Kind != ast.KindWhere {
		t.Fatalf("root kind = %v, want Where", res.Arena.Get(res.Root).Kind)
	}
}
