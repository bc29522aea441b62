package formatter

import (
	"strings"
	"testing"

	"numexpr/internal/lexer"
	"numexpr/internal/parser"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

func compile(t *testing.T, src string) *semantic.Result {
	t.Helper()
	toks, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	root, arena, err := parser.NewParser(toks).ParseExpression()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vars := []types.VarDesc{{Name: "a", Declared: types.Float64}, {Name: "b", Declared: types.Float64}}
	res, err := semantic.Analyze(arena, root, vars, types.Float64)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return res
}

func TestFormatShowsOperatorAndOperands(t *testing.T) {
	res := compile(t, "a + b")
	out := New(res.Arena, false).Format(res.Root)
	if !strings.Contains(out, "Binary +") {
		t.Errorf("output %q missing root binary node", out)
	}
	if !strings.Contains(out, "VarRef a") {
		t.Errorf("output %q missing operand a", out)
	}
	if !strings.Contains(out, "VarRef b") {
		t.Errorf("output %q missing operand b", out)
	}
}

func TestFormatIndentsByDepth(t *testing.T) {
	res := compile(t, "a + b")
	out := New(res.Arena, false).Format(res.Root)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (root + two operands)", len(lines))
	}
	if strings.HasPrefix(lines[0], " ") {
		t.Errorf("root line %q should not be indented", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  ") || !strings.HasPrefix(lines[2], "  ") {
		t.Errorf("operand lines should be indented one level: %q, %q", lines[1], lines[2])
	}
}

func TestFormatColorWrapsWithANSI(t *testing.T) {
	res := compile(t, "a")
	out := New(res.Arena, true).Format(res.Root)
	if !strings.Contains(out, colorKind) {
		t.Errorf("color output %q missing ANSI kind color", out)
	}
}
