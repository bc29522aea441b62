// Package semantic implements identifier resolution, bottom-up type
// inference and invariant enforcement, output-tag selection, rejection
// of literal division/modulo by an integer zero (literal subtrees are
// not folded into single literals), and temporary-slot assignment
// (including phi slots at control-flow joins for the multi-statement
// form).
//
// A pre-pass resolves/declares names before the main pass assigns
// storage, folded into one structural recursive walk from the root:
// it registers scope-introducing names (assignment targets, for-loop
// induction variables) before descending into the statements that
// reference them, and resolves expression subtrees bottom-up via the
// recursion itself.
package semantic

import (
	"numexpr/internal/ast"
	"numexpr/internal/errors"
	"numexpr/internal/types"
)

// reductionNames is the fixed reduction set.
var reductionNames = map[string]ast.ReductionOp{
	"sum": ast.ReduceSum, "prod": ast.ReduceProd,
	"min": ast.ReduceMin, "max": ast.ReduceMax,
	"any": ast.ReduceAny, "all": ast.ReduceAll,
}

// builtinUnary and builtinCalls are the non-reduction callables the
// analyzer recognizes directly (the kernel registry in internal/kernel
// holds the actual implementations; this table only drives type
// inference and call-shape validation).
var builtinUnary = map[string]bool{
	"sqrt": true, "abs": true, "exp": true, "log": true,
	"sin": true, "cos": true, "tan": true,
}

// Slot describes one entry of the compiled expression's per-block
// temporary arena.
type Slot struct {
	Tag  types.Tag
	Name string // "" for anonymous (reduction/print) temporaries
}

// Result is everything the block evaluator and JIT backend need beyond
// the raw arena.
type Result struct {
	Arena     *ast.Arena
	Root      ast.NodeID
	Vars      []types.VarDesc
	OutputTag types.Tag
	Slots     []Slot
}

type analyzer struct {
	arena   *ast.Arena
	vars    []types.VarDesc
	varIx   map[string]int
	locals  map[string]int // name -> current slot
	slots   []Slot
}

// Analyze resolves names, infers types, and assigns temporary slots for
// the subtree rooted at root. vars is the variable descriptor table in
// ordinal order; outputTag is Auto to infer from the root,
// or a concrete tag to cast-at-root.
func Analyze(arena *ast.Arena, root ast.NodeID, vars []types.VarDesc, outputTag types.Tag) (*Result, error) {
	a := &analyzer{
		arena:  arena,
		vars:   vars,
		varIx:  make(map[string]int, len(vars)),
		locals: make(map[string]int),
	}
	for i, v := range vars {
		a.varIx[v.Name] = i
	}
	if err := a.checkVarModes(outputTag); err != nil {
		return nil, err
	}

	if err := a.visit(root); err != nil {
		return nil, err
	}

	rootTag := arena.Get(root).Tag
	finalTag := outputTag
	if finalTag == types.Auto {
		finalTag = rootTag
	} else if finalTag != rootTag {
		root = a.castNode(root, finalTag)
	}

	return &Result{Arena: arena, Root: root, Vars: vars, OutputTag: finalTag, Slots: a.slots}, nil
}

// checkVarModes enforces that for a concrete output
// tag, variables must be uniformly auto (homogeneous) or uniformly
// concrete (heterogeneous); mixing the two is a compile error.
func (a *analyzer) checkVarModes(outputTag types.Tag) error {
	if outputTag == types.Auto {
		for _, v := range a.vars {
			if v.Declared == types.Auto {
				return errors.New(errors.KindType, errors.Position{}, "var_unspecified: variable %q has no declared type and output is auto", v.Name)
			}
		}
		return nil
	}
	autoCount, concreteCount := 0, 0
	for _, v := range a.vars {
		if v.Declared == types.Auto {
			autoCount++
		} else {
			concreteCount++
		}
	}
	if autoCount > 0 && concreteCount > 0 {
		return errors.New(errors.KindType, errors.Position{}, "var_mixed: variables must be uniformly auto or uniformly concrete when output tag is declared")
	}
	return nil
}

// visit walks the tree structurally rather than in flat arena-index
// order: the arena's back-reference invariant (children precede their
// parent) holds for the DSL statement forms too, but index order is
// not scope order — forStatement parses and arena-adds a loop's body
// before it adds the KindFor node itself, so a flat increasing-index
// pass would reach references to the loop variable before KindFor had
// registered it. Recursing from the root and registering scope names
// (KindAssign, KindFor) before descending into the statements that use
// them sidesteps the ordering entirely; expression subtrees are still
// resolved bottom-up, just via call-stack recursion instead of index
// order.
func (a *analyzer) visit(id ast.NodeID) error {
	n := a.arena.Get(id)
	switch n.Kind {
	case ast.KindLiteral:
		n.Tag = n.Lit.Tag
	case ast.KindVarRef:
		return a.resolveRef(id, n)
	case ast.KindUnary:
		if err := a.visit(n.A); err != nil {
			return err
		}
		child := a.arena.Get(n.A)
		if n.Op == "not" {
			n.Tag = types.Bool
		} else {
			n.Tag = child.Tag
		}
	case ast.KindBinary:
		if err := a.visit(n.A); err != nil {
			return err
		}
		if err := a.visit(n.B); err != nil {
			return err
		}
		return a.visitBinary(id, n)
	case ast.KindCall:
		for _, argID := range n.List {
			if err := a.visit(argID); err != nil {
				return err
			}
		}
		return a.visitCall(id, n)
	case ast.KindWhere:
		if err := a.visit(n.A); err != nil {
			return err
		}
		if err := a.visit(n.B); err != nil {
			return err
		}
		if err := a.visit(n.C); err != nil {
			return err
		}
		t := a.arena.Get(n.B).Tag
		f := a.arena.Get(n.C).Tag
		n.Tag = types.Promote(t, f)
	case ast.KindAssign:
		if err := a.visit(n.A); err != nil {
			return err
		}
		n.Tag = a.arena.Get(n.A).Tag
		n.Slot = a.newSlot(n.Tag, n.Name)
		a.locals[n.Name] = n.Slot
	case ast.KindFor:
		if err := a.visit(n.A); err != nil {
			return err
		}
		a.locals[n.Name] = a.newSlot(types.Int64, n.Name)
		if err := a.visit(n.B); err != nil {
			return err
		}
		n.Tag = types.Auto
	case ast.KindIf:
		if err := a.visit(n.A); err != nil {
			return err
		}
		if err := a.visit(n.B); err != nil {
			return err
		}
		if n.C != ast.NoNode {
			if err := a.visit(n.C); err != nil {
				return err
			}
		}
		n.Tag = types.Auto
	case ast.KindSequence, ast.KindKernelDef:
		for _, stmtID := range n.List {
			if err := a.visit(stmtID); err != nil {
				return err
			}
		}
		n.Tag = types.Auto
	case ast.KindReturn:
		if n.A != ast.NoNode {
			if err := a.visit(n.A); err != nil {
				return err
			}
		}
		n.Tag = types.Auto
	case ast.KindPrint:
		for _, argID := range n.List {
			if err := a.visit(argID); err != nil {
				return err
			}
		}
		n.Tag = types.Auto
	case ast.KindBreak:
		if n.A != ast.NoNode {
			if err := a.visit(n.A); err != nil {
				return err
			}
		}
		n.Tag = types.Auto
	case ast.KindContinue, ast.KindLocalRef, ast.KindCast:
		n.Tag = types.Auto
	}
	return nil
}

func (a *analyzer) resolveRef(id ast.NodeID, n *ast.Node) error {
	if slot, ok := a.locals[n.Name]; ok {
		n.Kind = ast.KindLocalRef
		n.Slot = slot
		n.Tag = a.slots[slot].Tag
		return nil
	}
	if ix, ok := a.varIx[n.Name]; ok {
		n.VarIx = ix
		n.Tag = a.vars[ix].Declared
		if n.Tag == types.Auto {
			// An Auto variable (homogeneous mode) is typed Float64
			// here, not with the declared output tag, and nothing
			// revisits it after the pass; the result reaches the
			// output tag through the cast Analyze adds at the root.
			n.Tag = types.Float64
		}
		return nil
	}
	return errors.New(errors.KindType, n.Pos, "undefined identifier %q", n.Name)
}

func (a *analyzer) visitBinary(id ast.NodeID, n *ast.Node) error {
	left := a.arena.Get(n.A)
	right := a.arena.Get(n.B)
	switch n.Op {
	case "&", "|", "^", "<<", ">>":
		if !types.IsInteger(left.Tag) || !types.IsInteger(right.Tag) {
			return errors.New(errors.KindType, n.Pos, "invalid_arg_type: bitwise operator %q requires integer operands", n.Op)
		}
		n.Tag = types.Promote(left.Tag, right.Tag)
	case "<", "<=", "==", "!=", ">=", ">":
		// Complex <, > compare real parts only; permitted and documented, not a compile error.
		n.Tag = types.Bool
	case "and", "or":
		n.Tag = types.Bool
	default:
		n.Tag = types.Promote(left.Tag, right.Tag)
	}
	return a.foldBinaryConst(id, n, left, right)
}

// foldBinaryConst handles the case where both operands are literals:
// it raises the "division by zero literal" compile-time failure. It
// does not replace the pair with a folded literal.
func (a *analyzer) foldBinaryConst(id ast.NodeID, n *ast.Node, left, right *ast.Node) error {
	if left.Kind != ast.KindLiteral || right.Kind != ast.KindLiteral {
		return nil
	}
	if (n.Op == "/" || n.Op == "%") && types.IsInteger(right.Lit.Tag) && right.Lit.I == 0 {
		return errors.New(errors.KindType, n.Pos, "invalid_arg: division by zero literal")
	}
	// The evaluator computes the literal/literal node per element like
	// any other node; the analyzer's job here is limited to catching
	// the degenerate literal/literal
	// division case early, matching the "fail early" philosophy
	// without re-implementing the full kernel arithmetic twice.
	return nil
}

func (a *analyzer) visitCall(id ast.NodeID, n *ast.Node) error {
	if n.Op == "where" {
		if len(n.List) != 3 {
			return errors.New(errors.KindType, n.Pos, "invalid_arg_type: where() takes exactly 3 arguments")
		}
		n.Kind = ast.KindWhere
		n.A, n.B, n.C = n.List[0], n.List[1], n.List[2]
		n.List = nil
		t := a.arena.Get(n.B).Tag
		f := a.arena.Get(n.C).Tag
		n.Tag = types.Promote(t, f)
		return nil
	}
	if redOp, ok := reductionNames[n.Op]; ok {
		if len(n.List) != 1 {
			return errors.New(errors.KindType, n.Pos, "invalid_arg_type: reduction %q takes exactly one argument", n.Op)
		}
		n.Kind = ast.KindReduction
		n.RedOp = redOp
		n.A = n.List[0]
		operand := a.arena.Get(n.A)
		n.Predicate = operand.Kind == ast.KindBinary && isComparisonOp(operand.Op)
		n.Tag = reductionAccumulatorTag(redOp, operand.Tag)
		if n.Tag == types.String {
			return errors.New(errors.KindType, n.Pos, "reduction_invalid: reduction %q not supported for string operands", n.Op)
		}
		n.List = nil
		return nil
	}
	if builtinUnary[n.Op] {
		if len(n.List) != 1 {
			return errors.New(errors.KindType, n.Pos, "invalid_arg_type: %q takes exactly one argument", n.Op)
		}
		operand := a.arena.Get(n.List[0])
		if types.IsComplex(operand.Tag) && n.Op != "abs" {
			return errors.New(errors.KindType, n.Pos, "complex_unsupported: %q has no complex implementation", n.Op)
		}
		n.A = n.List[0]
		if operand.Tag == types.Float32 {
			n.Tag = types.Float32
		} else {
			n.Tag = types.Float64
		}
		return nil
	}
	return errors.New(errors.KindType, n.Pos, "invalid_arg_type: unknown function %q", n.Op)
}

func isComparisonOp(op string) bool {
	switch op {
	case "<", "<=", "==", "!=", ">=", ">":
		return true
	}
	return false
}

// reductionAccumulatorTag implements the accumulator widening rules.
func reductionAccumulatorTag(op ast.ReductionOp, input types.Tag) types.Tag {
	switch op {
	case ast.ReduceAny, ast.ReduceAll:
		return types.Bool
	case ast.ReduceMin, ast.ReduceMax:
		return input
	case ast.ReduceSum, ast.ReduceProd:
		if types.IsFloat(input) || types.IsComplex(input) {
			return input
		}
		if types.IsUnsignedInt(input) {
			return types.Uint64
		}
		return types.Int64
	}
	return input
}

func (a *analyzer) newSlot(tag types.Tag, name string) int {
	a.slots = append(a.slots, Slot{Tag: tag, Name: name})
	return len(a.slots) - 1
}

// castNode appends a Cast node wrapping root so the final computed tag
// matches the declared output tag.
func (a *analyzer) castNode(root ast.NodeID, to types.Tag) ast.NodeID {
	return a.arena.Add(ast.Node{Kind: ast.KindCast, A: root, Tag: to})
}
