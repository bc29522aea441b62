package numexpr

import (
	"numexpr/internal/errors"
	"numexpr/internal/eval"
	"numexpr/internal/types"
)

// Evaluate fills out with the result of e applied element-wise across
// vars (same order as the VarDesc table passed to Compile), or, if e
// is a reduction expression, writes the single reduced scalar to
// out[0]. n is the number of elements each variable array supplies;
// for a reduction it need not equal out.Len() (which must be 1).
func Evaluate(e *Expr, vars []Array, n int, out Output, params Params) error {
	if e == nil || e.res == nil {
		return recordLast(errors.New(errors.KindMisuse, errors.Position{}, "null_expr"))
	}
	if len(vars) != len(e.res.Vars) {
		return recordLast(errors.New(errors.KindMisuse, errors.Position{}, "var_mismatch: compiled with %d variables, got %d", len(e.res.Vars), len(vars)))
	}

	if e.isKernel {
		return recordLast(eval.RunKernelArray(e.res, vars, out, nil))
	}
	if e.isReduction() {
		if out.Len() != 1 {
			return recordLast(errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: reduction output buffer must have exactly one element"))
		}
		v, err := reduceScalar(e, vars, n, params)
		if err != nil {
			return recordLast(err)
		}
		out.Set(0, v)
		return recordLast(nil)
	}
	if ok, err := tryJIT(e, vars, n, out, params); ok {
		return recordLast(err)
	}
	return recordLast(eval.EvalBlock(e.res, vars, out, params))
}

// EvaluateND is Evaluate restricted to the (nchunk, nblock) tile of
// e's ND shape (set via CompileND). For a reduction, the first
// e.ValidCount(nchunk, nblock) elements of each variable are reduced
// into the single element of out. Otherwise out must be sized to
// ValidCount or larger: the first ValidCount elements get computed
// values, in C order, and the rest of out up to the block's element
// count (BlockElems) is set to zero.
func EvaluateND(e *Expr, vars []Array, out Output, nchunk, nblock []int, params Params) error {
	if e == nil || e.shape == nil {
		return recordLast(errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: expression was not compiled with ND metadata"))
	}
	valid := e.shape.ValidNitems(nchunk, nblock)
	if e.isReduction() {
		return Evaluate(e, vars, valid, out, params)
	}
	if out.Len() < valid {
		return recordLast(errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: output buffer has %d elements, need %d", out.Len(), valid))
	}
	if err := Evaluate(e, vars, valid, boundedOutput{Output: out, n: valid}, params); err != nil {
		return recordLast(err)
	}
	zeroPadding(out, valid, e.shape.BlockElems())
	return recordLast(nil)
}

// zeroPadding writes the zero value of out's tag into every index in
// [valid, blockElems) still within out's bounds, the tile's padding
// region a tile-at-a-time ND caller never supplies variable data for.
func zeroPadding(out Output, valid, blockElems int) {
	zero := types.Scalar{Tag: out.Tag()}
	end := blockElems
	if out.Len() < end {
		end = out.Len()
	}
	for i := valid; i < end; i++ {
		out.Set(i, zero)
	}
}

// ValidCount returns the number of non-padding elements in tile
// (nchunk, nblock) of e's ND shape.
func (e *Expr) ValidCount(nchunk, nblock []int) (int, error) {
	if e.shape == nil {
		return 0, recordLast(errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: expression was not compiled with ND metadata"))
	}
	return e.shape.ValidNitems(nchunk, nblock), recordLast(nil)
}

// boundedOutput clamps Len() to n so EvalBlock/reduceScalar never
// write past a tile's valid region even when the caller's backing
// buffer is larger (sized for the full, unclamped block shape).
type boundedOutput struct {
	Output
	n int
}

func (b boundedOutput) Len() int { return b.n }
