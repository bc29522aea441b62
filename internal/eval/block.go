package eval

import (
	"unsafe"

	"github.com/dustin/go-humanize"

	"numexpr/internal/ast"
	"numexpr/internal/diagnostics"
	"numexpr/internal/errors"
	"numexpr/internal/kernel"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

// scalarSize is one temp-arena slot's footprint, used only to announce
// the arena's byte size in the block-evaluate diagnostic line.
var scalarSize = unsafe.Sizeof(types.Scalar{})

// logger is the diagnostics sink EvalBlock announces its chosen block
// size and temporary-slot arena size through. Nil (the default)
// disables the log line, so the scalar interpreter's hot path pays no
// cost until a caller opts in via SetLogger.
var logger *diagnostics.Logger

// SetLogger installs the process-wide diagnostics logger. The root
// package wires its own Logger in here once at startup.
func SetLogger(l *diagnostics.Logger) { logger = l }

// DefaultBlockSize is the default tile size: tuned so that B *
// (variable widths + temp arena + output width) fits in L1/L2 on
// common hardware.
const DefaultBlockSize = 4096

// ULPMode and JITMode mirror the evaluation-parameters record passed
// into each evaluate call.
type ULPMode = kernel.ULPMode

type JITMode int

const (
	JITAuto JITMode = iota
	JITForceOn
	JITForceOff
)

// Params is the per-call evaluation-parameters record.
type Params struct {
	DisableSIMD bool
	SIMDULPMode ULPMode
	JITMode     JITMode
	BlockSize   int
}

// EvalBlock fills out's n elements by walking res.Root in post order,
// block by block. vars must be in the same order as
// res.Vars; len(vars) must equal len(res.Vars) (var_mismatch
// otherwise).
func EvalBlock(res *semantic.Result, vars []Array, out Output, params Params) error {
	if res == nil {
		return errors.New(errors.KindMisuse, errors.Position{}, "null_expr")
	}
	if len(vars) != len(res.Vars) {
		return errors.New(errors.KindMisuse, errors.Position{}, "var_mismatch: compiled with %d variables, got %d", len(res.Vars), len(vars))
	}
	n := out.Len()
	block := params.BlockSize
	if block <= 0 {
		block = DefaultBlockSize
	}
	locals := make([]types.Scalar, len(res.Slots))
	if logger != nil {
		arenaBytes := uint64(len(locals)) * uint64(scalarSize)
		logger.Infof("block evaluate: block size %s, temp arena %s", humanize.Comma(int64(block)), humanize.Bytes(arenaBytes))
	}
	for offset := 0; offset < n; offset += block {
		end := offset + block
		if end > n {
			end = n
		}
		for i := offset; i < end; i++ {
			v, err := EvalNode(res.Arena, res.Root, vars, locals, i)
			if err != nil {
				return err
			}
			out.Set(i, v)
		}
	}
	return nil
}

// EvalNode is the scalar tree-walking interpreter: the per-node kernel
// dispatch, evaluated one element at a time
// inside the tile loop above. The SIMD flavor of a kernel is never
// selected here; this is the always-present scalar flavor. Exported
// so internal/reduce can evaluate a reduction's single operand
// expression without duplicating the dispatch table.
func EvalNode(arena *ast.Arena, id ast.NodeID, vars []Array, locals []types.Scalar, i int) (types.Scalar, error) {
	n := arena.Get(id)
	switch n.Kind {
	case ast.KindLiteral:
		return n.Lit, nil
	case ast.KindVarRef:
		return vars[n.VarIx].At(i), nil
	case ast.KindLocalRef:
		return locals[n.Slot], nil
	case ast.KindCast:
		v, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, err
		}
		return castScalar(v, n.Tag), nil
	case ast.KindUnary:
		v, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, err
		}
		fn, ok := kernel.Lookup(n.Op, 1)
		if !ok {
			return types.Scalar{}, errors.New(errors.KindType, n.Pos, "invalid_arg_type: unknown unary operator %q", n.Op)
		}
		return fn([]types.Scalar{v})
	case ast.KindBinary:
		l, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, err
		}
		r, err := EvalNode(arena, n.B, vars, locals, i)
		if err != nil {
			return types.Scalar{}, err
		}
		fn, ok := kernel.Lookup(n.Op, 2)
		if !ok {
			return types.Scalar{}, errors.New(errors.KindType, n.Pos, "invalid_arg_type: unknown binary operator %q", n.Op)
		}
		return fn([]types.Scalar{l, r})
	case ast.KindCall:
		fn, ok := kernel.Lookup(n.Op, len(n.List))
		if !ok {
			return types.Scalar{}, errors.New(errors.KindType, n.Pos, "invalid_arg_type: unknown function %q", n.Op)
		}
		args := make([]types.Scalar, len(n.List))
		for k, argID := range n.List {
			v, err := EvalNode(arena, argID, vars, locals, i)
			if err != nil {
				return types.Scalar{}, err
			}
			args[k] = v
		}
		return fn(args)
	case ast.KindWhere:
		cond, err := EvalNode(arena, n.A, vars, locals, i)
		if err != nil {
			return types.Scalar{}, err
		}
		// Both arms are evaluated unconditionally
		// step 4 ("no short-circuit"); the mask blend then selects.
		tv, err := EvalNode(arena, n.B, vars, locals, i)
		if err != nil {
			return types.Scalar{}, err
		}
		fv, err := EvalNode(arena, n.C, vars, locals, i)
		if err != nil {
			return types.Scalar{}, err
		}
		if isTruthyScalar(cond) {
			return castScalar(tv, n.Tag), nil
		}
		return castScalar(fv, n.Tag), nil
	default:
		return types.Scalar{}, errors.New(errors.KindType, n.Pos, "internal: node kind %v has no per-element evaluator", n.Kind)
	}
}

func isTruthyScalar(s types.Scalar) bool {
	switch {
	case types.IsFloat(s.Tag):
		return s.F64 != 0
	case types.IsComplex(s.Tag):
		return s.C128 != 0
	case types.IsUnsignedInt(s.Tag):
		return s.U != 0
	default:
		return s.I != 0
	}
}

// castScalar implements the narrow set of cast kinds the evaluator
// needs on the hot path (root-level output cast, where()-arm
// unification); the full cast-kind table lives in internal/types and
// is consulted by the JIT codegen path, which must emit the same
// conversions in C.
func castScalar(v types.Scalar, to types.Tag) types.Scalar {
	if v.Tag == to {
		return v
	}
	switch {
	case types.IsComplex(to):
		return types.Scalar{Tag: to, C128: complex(scalarToFloat64(v), 0)}
	case types.IsFloat(to):
		return types.Scalar{Tag: to, F64: scalarToFloat64(v)}
	case to == types.Bool:
		nonzero := scalarToFloat64(v) != 0
		i := int64(0)
		if nonzero {
			i = 1
		}
		return types.Scalar{Tag: to, I: i}
	case types.IsUnsignedInt(to):
		return types.Scalar{Tag: to, U: uint64(scalarToInt64(v))}
	default:
		return types.Scalar{Tag: to, I: scalarToInt64(v)}
	}
}
