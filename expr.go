// Package numexpr is the public entry point: compile an algebraic
// expression or a multi-statement kernel definition once, then
// evaluate the compiled handle over arrays many times. Mirrors the
// teacher's own layered structure — a thin root package (`numexpr`)
// wrapping the internal lexer/parser/semantic/eval/reduce/jit stack,
// the same way its `cmd/sentra` binary is a thin wrapper over
// `internal/vm`.
package numexpr

import (
	"fmt"

	"numexpr/internal/ast"
	"numexpr/internal/errors"
	"numexpr/internal/eval"
	"numexpr/internal/kernel"
	"numexpr/internal/lexer"
	"numexpr/internal/parser"
	"numexpr/internal/reduce"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

// Re-exported so callers never need to import internal/types directly.
type (
	Tag      = types.Tag
	VarDesc  = types.VarDesc
	Category = types.Category
	Scalar   = types.Scalar
)

const (
	Auto = types.Auto

	Bool       = types.Bool
	Int32      = types.Int32
	Int64      = types.Int64
	Float32    = types.Float32
	Float64    = types.Float64
	Complex128 = types.Complex128

	CategoryData = types.CategoryData
)

// Array and Output are the typed element source/sink a caller
// supplies at evaluate time, re-exported from internal/eval so a
// caller never imports it directly.
type (
	Array  = eval.Array
	Output = eval.Output
)

// Params is the per-call evaluation-parameters record: force-scalar
// override, SIMD ULP mode, JIT mode, and block size.
type Params = eval.Params

// JITMode selects whether Evaluate attempts native-compiled execution:
// JITAuto attempts it only when NUMEXPR_JIT is on and the profiler's
// hotness gate has been reached, JITForceOn always
// attempts it (falling back silently on an ineligible expression or a
// missing compiler), JITForceOff never does.
type JITMode = eval.JITMode

const (
	JITAuto     = eval.JITAuto
	JITForceOn  = eval.JITForceOn
	JITForceOff = eval.JITForceOff
)

// ULPMode selects the accuracy/performance trade-off for transcendental
// kernels under SIMD evaluation, re-exported from internal/kernel so a
// caller never imports it directly.
type ULPMode = kernel.ULPMode

const (
	ULPDefault = kernel.ULPDefault
	ULP1       = kernel.ULP1
	ULP3_5     = kernel.ULP3_5
)

// Expr is a compiled expression or kernel, immutable and safe for
// concurrent Evaluate calls once Compile returns.
type Expr struct {
	res      *semantic.Result
	shape    *reduce.Shape
	isKernel bool
	id       string // identity used for JIT profiling/cache lookups
}

// Compile parses and analyzes a single-line algebraic expression.
// vars describes the variables the expression may reference, in the
// order base-pointer arrays will later be passed to Evaluate.
// outputTag may be Auto to infer the output type from the expression.
func Compile(src string, vars []VarDesc, outputTag Tag) (*Expr, error) {
	toks, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		return nil, recordLast(err)
	}
	root, arena, err := parser.NewParser(toks).ParseExpression()
	if err != nil {
		return nil, recordLast(err)
	}
	res, err := semantic.Analyze(arena, root, vars, outputTag)
	if err != nil {
		return nil, recordLast(err)
	}
	e := &Expr{res: res}
	e.id = fmt.Sprintf("%p", e)
	return e, recordLast(nil)
}

// CompileKernel parses and analyzes a multi-statement `def
// name(arg, ...):` program. The variable descriptor order is taken
// from the parsed parameter list, each variable declared Float64 and
// categorized as data; the output tag is inferred from the returned
// values.
func CompileKernel(src string) (*Expr, error) {
	toks, err := lexer.NewScriptScanner(src).ScanTokens()
	if err != nil {
		return nil, recordLast(err)
	}
	root, arena, err := parser.NewScriptParser(toks).ParseKernel()
	if err != nil {
		return nil, recordLast(err)
	}
	def := arena.Get(root)
	if def.Kind != ast.KindKernelDef {
		return nil, recordLast(errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: source is not a kernel definition"))
	}
	vars := make([]VarDesc, len(def.Params))
	for i, name := range def.Params {
		vars[i] = VarDesc{Name: name, Declared: types.Float64, Category: types.CategoryData}
	}
	res, err := semantic.Analyze(arena, root, vars, types.Auto)
	if err != nil {
		return nil, recordLast(err)
	}
	e := &Expr{res: res, isKernel: true}
	e.id = fmt.Sprintf("%p", e)
	return e, recordLast(nil)
}

// CompileND is Compile plus ND chunk/block metadata, used by
// EvaluateND and ValidCount.
func CompileND(src string, vars []VarDesc, outputTag Tag, logical []int64, chunk, block []int32) (*Expr, error) {
	e, err := Compile(src, vars, outputTag)
	if err != nil {
		return nil, err
	}
	if len(logical) != len(chunk) || len(logical) != len(block) {
		return nil, recordLast(errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: shape/chunk/block dimensionality mismatch"))
	}
	shape := reduce.Shape{Logical: logical, Chunk: chunk, Block: block}
	e.shape = &shape
	return e, recordLast(nil)
}

// OutputTag reports the expression's (possibly inferred) output type.
func (e *Expr) OutputTag() Tag { return e.res.OutputTag }

// isReduction reports whether e's root is a (possibly cast) reduction,
// which Evaluate dispatches to internal/reduce instead of the
// element-at-a-time block evaluator.
func (e *Expr) isReduction() bool {
	n := e.res.Arena.Get(e.res.Root)
	if n.Kind == ast.KindCast {
		n = e.res.Arena.Get(n.A)
	}
	return n.Kind == ast.KindReduction
}

// Free does nothing: e holds no JIT resources of its own, since
// compiled kernels live in the process-wide cache. Safe to call on a
// nil *Expr or more than once.
func (e *Expr) Free() {}
