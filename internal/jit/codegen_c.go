package jit

import (
	"fmt"
	"strings"

	"numexpr/internal/ast"
	"numexpr/internal/errors"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

// cType maps a numeric tag onto the C99 type the generated block
// function uses for that variable or the output. Complex tags and
// String are not JIT-eligible; GenerateC reports them as an error so
// the caller falls back to the scalar interpreter.
func cType(t types.Tag) (string, error) {
	switch t {
	case types.Bool:
		return "uint8_t", nil
	case types.Int8:
		return "int8_t", nil
	case types.Int16:
		return "int16_t", nil
	case types.Int32:
		return "int32_t", nil
	case types.Int64:
		return "int64_t", nil
	case types.Uint8:
		return "uint8_t", nil
	case types.Uint16:
		return "uint16_t", nil
	case types.Uint32:
		return "uint32_t", nil
	case types.Uint64:
		return "uint64_t", nil
	case types.Float32:
		return "float", nil
	case types.Float64:
		return "double", nil
	default:
		return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: tag %v has no C codegen", t)
	}
}

// GenerateC emits a C99 translation unit defining a single function,
// FuncName, that evaluates res.Root over n elements: one input pointer
// per variable, an output pointer, and an element count. Only the pure
// algebraic expression form is supported — a KindKernelDef root (the
// multi-statement DSL form) is rejected, matching the narrower scope a
// JIT backend covers in practice versus the always-available
// interpreter.
func GenerateC(funcName string, res *semantic.Result) (string, error) {
	src, _, err := generateC(funcName, res, false)
	return src, err
}

// GenerateCWithBridge is GenerateC's scalar_math_bridge variant (spec
// §4.I): every math-library call (sqrt, exp, log, sin, cos, tan) is
// routed through an extra function-pointer parameter instead of a
// direct libm call, for hosts where the JIT image cannot see libm
// symbols. bridgeFuncs lists the math function names actually used,
// in the same order as the trailing mathfn_<name> parameters appended
// to the generated signature — a caller supplies one purego callback
// pointer per name, in that order, between the variable pointers and
// the output pointer.
func GenerateCWithBridge(funcName string, res *semantic.Result) (string, []string, error) {
	return generateC(funcName, res, true)
}

func generateC(funcName string, res *semantic.Result, bridge bool) (string, []string, error) {
	root := res.Arena.Get(res.Root)
	if root.Kind == ast.KindKernelDef {
		return "", nil, errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: multi-statement kernels are not JIT-compiled")
	}

	outType, err := cType(res.OutputTag)
	if err != nil {
		return "", nil, err
	}

	argTypes := make([]string, len(res.Vars))
	for i, v := range res.Vars {
		ct, err := cType(v.Declared)
		if err != nil {
			return "", nil, err
		}
		argTypes[i] = ct
	}

	g := &cGen{arena: res.Arena, bridge: bridge}
	expr, err := g.emit(res.Root)
	if err != nil {
		return "", nil, err
	}

	var sig strings.Builder
	fmt.Fprintf(&sig, "void %s(int64_t n", funcName)
	for i, ct := range argTypes {
		fmt.Fprintf(&sig, ", const %s *var%d", ct, i)
	}
	for _, name := range g.order {
		fmt.Fprintf(&sig, ", double (*mathfn_%s)(double)", name)
	}
	fmt.Fprintf(&sig, ", %s *out)", outType)

	var out strings.Builder
	out.WriteString("#include <stdint.h>\n#include <math.h>\n\n")
	fmt.Fprintf(&out, "%s {\n", sig.String())
	out.WriteString("  for (int64_t i = 0; i < n; i++) {\n")
	fmt.Fprintf(&out, "    out[i] = (%s)(%s);\n", outType, expr)
	out.WriteString("  }\n}\n")
	return out.String(), g.order, nil
}

// cGen lowers an AST to a C expression. When bridge is set, math calls
// are routed through a mathfn_<name> function-pointer parameter
// instead of a direct libm call; order records the distinct names
// used, in first-use order, so the signature and the caller-supplied
// callback pointers line up positionally.
type cGen struct {
	arena  *ast.Arena
	bridge bool
	seen   map[string]bool
	order  []string
}

func (g *cGen) emit(id ast.NodeID) (string, error) {
	n := g.arena.Get(id)
	switch n.Kind {
	case ast.KindLiteral:
		return cLiteral(n.Lit)
	case ast.KindVarRef:
		return fmt.Sprintf("var%d[i]", n.VarIx), nil
	case ast.KindCast:
		ct, err := cType(n.Tag)
		if err != nil {
			return "", err
		}
		inner, err := g.emit(n.A)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s)(%s)", ct, inner), nil
	case ast.KindUnary:
		inner, err := g.emit(n.A)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case "not":
			return fmt.Sprintf("(!(%s))", inner), nil
		case "-":
			return fmt.Sprintf("(-(%s))", inner), nil
		case "~":
			return fmt.Sprintf("(~(%s))", inner), nil
		}
		return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: unary operator %q", n.Op)
	case ast.KindBinary:
		l, err := g.emit(n.A)
		if err != nil {
			return "", err
		}
		r, err := g.emit(n.B)
		if err != nil {
			return "", err
		}
		return g.emitBinary(n, l, r)
	case ast.KindWhere:
		cond, err := g.emit(n.A)
		if err != nil {
			return "", err
		}
		t, err := g.emit(n.B)
		if err != nil {
			return "", err
		}
		f, err := g.emit(n.C)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("((%s) ? (%s) : (%s))", cond, t, f), nil
	case ast.KindCall:
		return g.emitCall(n)
	default:
		return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: node kind %v", n.Kind)
	}
}

func (g *cGen) emitBinary(n *ast.Node, l, r string) (string, error) {
	switch n.Op {
	case "+", "-", "*", "&", "|", "^", "<<", ">>", "<", "<=", "==", "!=", ">=", ">":
		return fmt.Sprintf("((%s) %s (%s))", l, n.Op, r), nil
	case "/":
		return fmt.Sprintf("((double)(%s) / (double)(%s))", l, r), nil
	case "%":
		return fmt.Sprintf("fmod((double)(%s), (double)(%s))", l, r), nil
	case "**":
		return fmt.Sprintf("pow((double)(%s), (double)(%s))", l, r), nil
	case "and":
		return fmt.Sprintf("((%s) && (%s))", l, r), nil
	case "or":
		return fmt.Sprintf("((%s) || (%s))", l, r), nil
	}
	return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: binary operator %q", n.Op)
}

var cMathFuncs = map[string]string{
	"sqrt": "sqrt", "exp": "exp", "log": "log",
	"sin": "sin", "cos": "cos", "tan": "tan",
}

func (g *cGen) emitCall(n *ast.Node) (string, error) {
	if len(n.List) != 1 {
		return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: function %q takes %d arguments, only single-argument calls are JIT-compiled", n.Op, len(n.List))
	}
	arg, err := g.emit(n.List[0])
	if err != nil {
		return "", err
	}
	if n.Op == "abs" {
		return fmt.Sprintf("fabs((double)(%s))", arg), nil
	}
	if cname, ok := cMathFuncs[n.Op]; ok {
		if g.bridge {
			if g.seen == nil {
				g.seen = make(map[string]bool)
			}
			if !g.seen[n.Op] {
				g.seen[n.Op] = true
				g.order = append(g.order, n.Op)
			}
			return fmt.Sprintf("mathfn_%s((double)(%s))", n.Op, arg), nil
		}
		return fmt.Sprintf("%s((double)(%s))", cname, arg), nil
	}
	return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: function %q", n.Op)
}

func cLiteral(s types.Scalar) (string, error) {
	switch {
	case types.IsFloat(s.Tag):
		return fmt.Sprintf("%g", s.F64), nil
	case types.IsComplex(s.Tag):
		return "", errors.New(errors.KindMisuse, errors.Position{}, "jit_unsupported: complex literal")
	case types.IsUnsignedInt(s.Tag):
		return fmt.Sprintf("%dULL", s.U), nil
	case s.Tag == types.Bool:
		if s.I != 0 {
			return "1", nil
		}
		return "0", nil
	default:
		return fmt.Sprintf("%dLL", s.I), nil
	}
}
