package numexpr

import (
	"strings"
	"testing"
)

func TestExplainRendersBinaryNode(t *testing.T) {
	vars := []VarDesc{{Name: "a", Declared: Float64}, {Name: "b", Declared: Float64}}
	e, err := Compile("a + b", vars, Auto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out := Explain(e, false)
	if !strings.Contains(out, "Binary +") {
		t.Errorf("Explain output %q missing root binary node", out)
	}
}

func TestExplainNilExpr(t *testing.T) {
	if out := Explain(nil, false); out != "" {
		t.Errorf("Explain(nil) = %q, want empty string", out)
	}
}
