package eval

import (
	"strings"

	"numexpr/internal/ast"
	"numexpr/internal/errors"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

// ctrl is the control-flow signal a statement execution can produce;
// it threads break/continue/return back up through nested blocks via
// explicit return values rather than panic/recover, the same way a
// register-VM's execution loop dispatches opcodes explicitly instead
// of throwing.
type ctrl int

const (
	ctrlNone ctrl = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

// Printer receives formatted `print` statement output. A nil Printer
// discards it; the root package's Evaluate passes nil, so `print`
// produces no output through the public API.
type Printer interface {
	Printf(format string, args ...interface{})
}

// RunKernel executes a KindKernelDef program for element i, returning
// the value of its `return` statement. vars are bound to the kernel's
// declared parameters in order.
//
// Per-element execution of `if`/`for` here is a direct, branching
// evaluation rather than always evaluating both arms and
// mask-blend description: the two are numerically equivalent for a
// pure, side-effect-free kernel body (the only side effect, `print`,
// is explicitly specified to fire once per evaluate call rather than
// per element, which this interpreter honors by only printing from the
// i==0 pass — see RunKernelArray), and branching avoids evaluating
// both arms of every condition for every element.
func RunKernel(res *semantic.Result, vars []Array, i int, p Printer) (types.Scalar, error) {
	def := res.Arena.Get(res.Root)
	if def.Kind != ast.KindKernelDef {
		return types.Scalar{}, errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: expression root is not a kernel definition")
	}
	locals := make([]types.Scalar, len(res.Slots))
	ret, c, err := execBlock(res.Arena, def.List, vars, locals, i, p)
	if err != nil {
		return types.Scalar{}, err
	}
	if c != ctrlReturn {
		return types.Scalar{}, errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: kernel has no return statement on this path")
	}
	return ret, nil
}

// RunKernelArray evaluates a kernel over n elements, writing out[i]
// for each, and printing exactly once (for i==0), matching the
// "emits one line per evaluate call" rule.
func RunKernelArray(res *semantic.Result, vars []Array, out Output, p Printer) error {
	if len(vars) != len(res.Vars) {
		return errors.New(errors.KindMisuse, errors.Position{}, "var_mismatch: compiled with %d variables, got %d", len(res.Vars), len(vars))
	}
	n := out.Len()
	for i := 0; i < n; i++ {
		printer := p
		if i != 0 {
			printer = nil
		}
		v, err := RunKernel(res, vars, i, printer)
		if err != nil {
			return err
		}
		out.Set(i, v)
	}
	return nil
}

func execBlock(arena *ast.Arena, stmts []ast.NodeID, vars []Array, locals []types.Scalar, i int, p Printer) (types.Scalar, ctrl, error) {
	for _, id := range stmts {
		v, c, err := execStmt(arena, id, vars, locals, i, p)
		if err != nil || c != ctrlNone {
			return v, c, err
		}
	}
	return types.Scalar{}, ctrlNone, nil
}

func execStmt(arena *ast.Arena, id ast.NodeID, vars []Array, locals []types.Scalar, i int, p Printer) (types.Scalar, ctrl, error) {
	n := arena.Get(id)
	switch n.Kind {
	case ast.KindAssign:
		v, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, ctrlNone, err
		}
		locals[n.Slot] = v
		return types.Scalar{}, ctrlNone, nil
	case ast.KindReturn:
		v, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, ctrlNone, err
		}
		return v, ctrlReturn, nil
	case ast.KindIf:
		cond, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, ctrlNone, err
		}
		if isTruthyScalar(cond) {
			return execBlock(arena, arena.Get(n.B).List, vars, locals, i, p)
		}
		if n.C != ast.NoNode {
			elseNode := arena.Get(n.C)
			if elseNode.Kind == ast.KindIf {
				return execStmt(arena, n.C, vars, locals, i, p)
			}
			return execBlock(arena, elseNode.List, vars, locals, i, p)
		}
		return types.Scalar{}, ctrlNone, nil
	case ast.KindFor:
		bound, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, ctrlNone, err
		}
		trip := scalarToInt64(bound)
		body := arena.Get(n.B).List
		for k := int64(0); k < trip; k++ {
			v, c, err := execBlock(arena, body, vars, locals, i, p)
			if err != nil {
				return types.Scalar{}, ctrlNone, err
			}
			switch c {
			case ctrlBreak:
				return types.Scalar{}, ctrlNone, nil
			case ctrlReturn:
				return v, ctrlReturn, nil
			}
		}
		return types.Scalar{}, ctrlNone, nil
	case ast.KindBreak:
		if n.A == ast.NoNode {
			return types.Scalar{}, ctrlBreak, nil
		}
		cond, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, ctrlNone, err
		}
		if isTruthyScalar(cond) {
			return types.Scalar{}, ctrlBreak, nil
		}
		return types.Scalar{}, ctrlNone, nil
	case ast.KindContinue:
		return types.Scalar{}, ctrlContinue, nil
	case ast.KindPrint:
		if p != nil {
			args := make([]interface{}, len(n.List))
			for k, argID := range n.List {
				v, err := EvalNode(arena, argID, vars, locals, i)
				if err != nil {
					return types.Scalar{}, ctrlNone, err
				}
				args[k] = scalarToFloat64(v)
			}
			p.Printf(formatString(n.Fmt, len(args)), args...)
		}
		return types.Scalar{}, ctrlNone, nil
	default:
		// A bare expression statement: evaluate for side effects (none
		// exist at this level) and discard.
		if _, err := EvalNode(arena, id, vars, locals, i); err != nil {
			return types.Scalar{}, ctrlNone, err
		}
		return types.Scalar{}, ctrlNone, nil
	}
}

// formatString turns a print statement's format argument into a
// fmt.Printf template: the DSL's "{}" placeholders (spec §4.H) map
// one-for-one onto "%v", left to right. An empty fmtStr (no format
// string given) falls back to nargs space-separated "%v"s.
func formatString(fmtStr string, nargs int) string {
	if fmtStr != "" {
		return strings.ReplaceAll(fmtStr, "{}", "%v")
	}
	s := ""
	for k := 0; k < nargs; k++ {
		if k > 0 {
			s += " "
		}
		s += "%v"
	}
	return s
}
