package jit

import (
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"numexpr/internal/lexer"
	"numexpr/internal/parser"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

// compileExprOrdered is compileExpr's deterministic-order counterpart:
// golden-output comparisons need var0/var1/... assigned in a fixed
// order, which a map-keyed variable table (compileExpr) cannot give.
func compileExprOrdered(t *testing.T, src string, vars []types.VarDesc) *semantic.Result {
	t.Helper()
	toks, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}
	root, arena, err := parser.NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	res, err := semantic.Analyze(arena, root, vars, types.Float64)
	if err != nil {
		t.Fatalf("analyze %q: %v", src, err)
	}
	return res
}

// TestGenerateCMatchesGoldenFixtures replays every <name>.expr/<name>.c
// pair in testdata/golden_codegen.txtar against a fixed two-variable
// (a, b float64) table and checks GenerateC's output byte-for-byte.
func TestGenerateCMatchesGoldenFixtures(t *testing.T) {
	archive, err := txtar.ParseFile("testdata/golden_codegen.txtar")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	exprs := map[string]string{}
	goldens := map[string]string{}
	for _, f := range archive.Files {
		name := strings.TrimSuffix(f.Name, ".expr")
		if name != f.Name {
			exprs[name] = strings.TrimSpace(string(f.Data))
			continue
		}
		name = strings.TrimSuffix(f.Name, ".c")
		goldens[name] = string(f.Data)
	}

	vars := []types.VarDesc{{Name: "a", Declared: types.Float64}, {Name: "b", Declared: types.Float64}}
	for name, src := range exprs {
		want, ok := goldens[name]
		if !ok {
			t.Fatalf("fixture %q has an .expr file but no matching .c golden", name)
		}
		res := compileExprOrdered(t, src, vars)
		got, err := GenerateC("kernel", res)
		if err != nil {
			t.Fatalf("GenerateC(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("GenerateC(%q) mismatch:\ngot:\n%s\nwant:\n%s", name, got, want)
		}
	}
}
