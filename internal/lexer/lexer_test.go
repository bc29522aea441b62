package lexer

import "testing"

func TestScanAlgebraic(t *testing.T) {
	toks, err := NewScanner("a + b * 2.5 ** c").ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens: %v", err)
	}
	want := []TokenType{TokenIdent, TokenPlus, TokenIdent, TokenStar, TokenFloat, TokenStarStar, TokenIdent, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestScanHexAndImaginary(t *testing.T) {
	toks, err := NewScanner("0xFF + 3.0I").ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens: %v", err)
	}
	if toks[0].Type != TokenHexInt {
		t.Errorf("got %v, want TokenHexInt", toks[0].Type)
	}
	if toks[2].Type != TokenImag {
		t.Errorf("got %v, want TokenImag", toks[2].Type)
	}
}

func TestScanAlgebraicRejectsSingleEquals(t *testing.T) {
	if _, err := NewScanner("a = b").ScanTokens(); err == nil {
		t.Fatal("expected error for bare '=' in algebraic grammar")
	}
}

func TestScriptIndentDedent(t *testing.T) {
	src := "def f(x):\n    y = x + 1\n    if y > 0:\n        return y\n    return 0\n"
	toks, err := NewScriptScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens: %v", err)
	}
	var indents, dedents int
	for _, tok := range toks {
		switch tok.Type {
		case TokenIndent:
			indents++
		case TokenDedent:
			dedents++
		}
	}
	if indents != 2 {
		t.Errorf("got %d INDENT, want 2", indents)
	}
	if dedents != 2 {
		t.Errorf("got %d DEDENT, want 2", dedents)
	}
}

func TestScriptRejectsMixedTabsAndSpaces(t *testing.T) {
	src := "def f(x):\n \tx\n"
	if _, err := NewScriptScanner(src).ScanTokens(); err == nil {
		t.Fatal("expected error for mixed tabs/spaces indentation")
	}
}

func TestScriptAssignAllowed(t *testing.T) {
	toks, err := NewScriptScanner("x = 1\n").ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens: %v", err)
	}
	if toks[1].Type != TokenAssign {
		t.Errorf("got %v, want TokenAssign", toks[1].Type)
	}
}
