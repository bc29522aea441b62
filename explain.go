package numexpr

import "numexpr/internal/formatter"

// Explain renders e's parsed AST as indented text, one line per node,
// colorized with ANSI codes when color is true (the caller decides
// based on whether its output stream is a terminal).
func Explain(e *Expr, color bool) string {
	if e == nil || e.res == nil {
		return ""
	}
	return formatter.New(e.res.Arena, color).Format(e.res.Root)
}
