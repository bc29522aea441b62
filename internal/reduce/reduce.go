// Package reduce implements the scalar/predicate reductions and the
// padding-aware ND walker.
//
// The shape/size bookkeeping and C-order indexing generalize an
// NDArray from float64-only to the full type lattice, with chunk/block
// padding arithmetic layered on top.
package reduce

import (
	"numexpr/internal/ast"
	"numexpr/internal/errors"
	"numexpr/internal/eval"
	"numexpr/internal/semantic"
	"numexpr/internal/types"
)

// unwrapReduction finds the KindReduction node at or under res.Root
// (a declared output cast may wrap it).
func unwrapReduction(res *semantic.Result) (*ast.Node, error) {
	n := res.Arena.Get(res.Root)
	if n.Kind == ast.KindCast {
		n = res.Arena.Get(n.A)
	}
	if n.Kind != ast.KindReduction {
		return nil, errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: expression root is not a reduction")
	}
	return n, nil
}

// Scalar computes one of sum/prod/min/max/any/all over n elements,
// merging per-block partials in block order. Integer sum/prod wrap on overflow
// (two's complement); this matches a plain accumulation loop, not
// infinite-precision arithmetic.
func Scalar(res *semantic.Result, vars []eval.Array, n int, params eval.Params) (types.Scalar, error) {
	redNode, err := unwrapReduction(res)
	if err != nil {
		return types.Scalar{}, err
	}
	if len(vars) != len(res.Vars) {
		return types.Scalar{}, errors.New(errors.KindMisuse, errors.Position{}, "var_mismatch: compiled with %d variables, got %d", len(res.Vars), len(vars))
	}

	block := params.BlockSize
	if block <= 0 {
		block = eval.DefaultBlockSize
	}
	locals := make([]types.Scalar, len(res.Slots))

	acc := initAccumulator(redNode.RedOp, redNode.Tag)
	first := true
	for offset := 0; offset < n; offset += block {
		end := offset + block
		if end > n {
			end = n
		}
		for i := offset; i < end; i++ {
			v, err := evalOperand(res.Arena, redNode.A, vars, locals, i)
			if err != nil {
				return types.Scalar{}, err
			}
			acc = combine(redNode.RedOp, redNode.Tag, acc, v, &first)
		}
	}
	return acc, nil
}

// evalOperand evaluates the reduction's single operand expression for
// element i, reusing internal/eval's exported per-element interpreter
// so the reduction and element-wise paths never disagree on kernel
// dispatch or coercion.
func evalOperand(arena *ast.Arena, id ast.NodeID, vars []eval.Array, locals []types.Scalar, i int) (types.Scalar, error) {
	return eval.EvalNode(arena, id, vars, locals, i)
}

func initAccumulator(op ast.ReductionOp, tag types.Tag) types.Scalar {
	switch op {
	case ast.ReduceProd:
		if types.IsFloat(tag) {
			return types.Scalar{Tag: tag, F64: 1}
		}
		if types.IsComplex(tag) {
			return types.Scalar{Tag: tag, C128: 1}
		}
		return types.Scalar{Tag: tag, I: 1}
	case ast.ReduceAll:
		return types.Scalar{Tag: types.Bool, I: 1}
	default:
		return types.Scalar{Tag: tag}
	}
}

func combine(op ast.ReductionOp, tag types.Tag, acc, v types.Scalar, first *bool) types.Scalar {
	switch op {
	case ast.ReduceSum:
		if types.IsFloat(tag) {
			return types.Scalar{Tag: tag, F64: acc.F64 + toF64(v)}
		}
		if types.IsComplex(tag) {
			return types.Scalar{Tag: tag, C128: acc.C128 + toC128(v)}
		}
		return types.Scalar{Tag: tag, I: acc.I + toI64(v)}
	case ast.ReduceProd:
		if types.IsFloat(tag) {
			return types.Scalar{Tag: tag, F64: acc.F64 * toF64(v)}
		}
		if types.IsComplex(tag) {
			return types.Scalar{Tag: tag, C128: acc.C128 * toC128(v)}
		}
		return types.Scalar{Tag: tag, I: acc.I * toI64(v)}
	case ast.ReduceMin:
		if *first {
			*first = false
			return v
		}
		if less(v, acc) {
			return v
		}
		return acc
	case ast.ReduceMax:
		if *first {
			*first = false
			return v
		}
		if af := toF64(acc); less(acc, v) || af != af {
			return v
		}
		return acc
	case ast.ReduceAny:
		return types.Scalar{Tag: types.Bool, I: boolI(acc.I != 0 || truthy(v))}
	case ast.ReduceAll:
		return types.Scalar{Tag: types.Bool, I: boolI(acc.I != 0 && truthy(v))}
	}
	return acc
}

// less orders NaN after every number, so min/max never select NaN
// unless both inputs are NaN (unlike math.Max/math.Min, which
// propagate NaN).
func less(a, b types.Scalar) bool {
	af, bf := toF64(a), toF64(b)
	if af != af { // a is NaN
		return false
	}
	if bf != bf { // b is NaN, a is not
		return true
	}
	return af < bf
}

func truthy(s types.Scalar) bool {
	if types.IsFloat(s.Tag) {
		return s.F64 != 0
	}
	if types.IsComplex(s.Tag) {
		return s.C128 != 0
	}
	return s.I != 0
}

func boolI(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func toF64(s types.Scalar) float64 {
	if types.IsFloat(s.Tag) {
		return s.F64
	}
	if types.IsComplex(s.Tag) {
		return real(s.C128)
	}
	if types.IsUnsignedInt(s.Tag) {
		return float64(s.U)
	}
	return float64(s.I)
}

func toI64(s types.Scalar) int64 {
	if types.IsFloat(s.Tag) {
		return int64(s.F64)
	}
	if types.IsUnsignedInt(s.Tag) {
		return int64(s.U)
	}
	return s.I
}

func toC128(s types.Scalar) complex128 {
	if types.IsComplex(s.Tag) {
		return s.C128
	}
	return complex(toF64(s), 0)
}

// Shape describes the ND metadata: logical shape, chunk
// shape, and block shape, all C-order and of equal dimensionality.
type Shape struct {
	Logical []int64
	Chunk   []int32
	Block   []int32
}

// ValidNitems returns the count of non-padding elements of the
// (nchunk, nblock) tile pair.
func (s Shape) ValidNitems(nchunk, nblock []int) int {
	total := 1
	for d := range s.Logical {
		chunkStart := int64(nchunk[d]) * int64(s.Chunk[d])
		blockStart := chunkStart + int64(nblock[d])*int64(s.Block[d])
		remaining := s.Logical[d] - blockStart
		if remaining <= 0 {
			return 0
		}
		valid := int64(s.Block[d])
		if remaining < valid {
			valid = remaining
		}
		// also clip against the chunk boundary itself
		chunkRemaining := s.Logical[d] - chunkStart
		if chunkRemaining > int64(s.Chunk[d]) {
			chunkRemaining = int64(s.Chunk[d])
		}
		blockWithinChunk := int64(nblock[d]) * int64(s.Block[d])
		chunkValid := chunkRemaining - blockWithinChunk
		if chunkValid < valid {
			valid = chunkValid
		}
		if valid < 0 {
			valid = 0
		}
		total *= int(valid)
	}
	return total
}

// BlockElems is the total element count of one block tile (including
// padding), the product of the block shape.
func (s Shape) BlockElems() int {
	total := 1
	for _, b := range s.Block {
		total *= int(b)
	}
	return total
}
