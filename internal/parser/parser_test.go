package parser

import (
	"testing"

	"numexpr/internal/ast"
	"numexpr/internal/lexer"
)

func mustScan(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}
	return toks
}

func TestParsePrecedence(t *testing.T) {
	toks := mustScan(t, "1 + 2 * 3")
	root, arena, err := NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	n := arena.Get(root)
	if n.Kind != ast.KindBinary || n.Op != "+" {
		t.Fatalf("root = %+v, want top-level '+'", n)
	}
	right := arena.Get(n.B)
	if right.Kind != ast.KindBinary || right.Op != "*" {
		t.Fatalf("right child = %+v, want '*'", right)
	}
}

func TestParsePowerRightAssoc(t *testing.T) {
	toks := mustScan(t, "2 ** 3 ** 2")
	root, arena, err := NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	n := arena.Get(root)
	if n.Op != "**" {
		t.Fatalf("root op = %q, want **", n.Op)
	}
	right := arena.Get(n.B)
	if right.Op != "**" {
		t.Fatalf("right child op = %q, want nested **", right.Op)
	}
}

func TestParseRejectsChainedComparison(t *testing.T) {
	toks := mustScan(t, "a < b < c")
	if _, _, err := NewParser(toks).ParseExpression(); err == nil {
		t.Fatal("expected error for chained comparison")
	}
}

func TestParseCall(t *testing.T) {
	toks := mustScan(t, "where(a > 0, a, -a)")
	root, arena, err := NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("ParseExpression: %v", err)
	}
	n := arena.Get(root)
	if n.Kind != ast.KindCall || n.Op != "where" || len(n.List) != 3 {
		t.Fatalf("root = %+v, want 3-arg where() call", n)
	}
}

func TestParseKernel(t *testing.T) {
	src := "def f(x):\n    y = x + 1\n    if y > 0:\n        return y\n    return 0\n"
	toks, err := lexer.NewScriptScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	root, arena, err := NewScriptParser(toks).ParseKernel()
	if err != nil {
		t.Fatalf("ParseKernel: %v", err)
	}
	n := arena.Get(root)
	if n.Kind != ast.KindKernelDef || n.Op != "f" {
		t.Fatalf("root = %+v, want KernelDef 'f'", n)
	}
	if len(n.Params) != 1 || n.Params[0] != "x" {
		t.Fatalf("params = %v, want [x]", n.Params)
	}
	if len(n.List) != 3 {
		t.Fatalf("body has %d statements, want 3 (assign, if, return)", len(n.List))
	}
}
