// Package kernel implements the per-type operation table: a registry
// indexed by (operator or function name, arity), populated once per
// process. Every entry's scalar flavor is always present; the SIMD
// flavor is represented by a ULP mode hint that the block evaluator
// consults but, since the SIMD math library itself is treated as an
// out-of-scope external collaborator, resolves by falling back to the
// scalar flavor — a documented runtime-degradation path, not an error.
//
// Structured as a global name table assigned once and shared
// read-only thereafter, keyed by name and arity the same way a
// bytecode VM's builtin-function dispatch table is.
package kernel

import (
	"math"
	"sync"

	"numexpr/internal/errors"
	"numexpr/internal/types"
)

// ULPMode selects the accuracy/performance trade-off for transcendental
// kernels.
type ULPMode int

const (
	ULPDefault ULPMode = iota
	ULP1
	ULP3_5
)

// Fn is a kernel's scalar implementation: given already-promoted
// argument scalars, produce the result scalar.
type Fn func(args []types.Scalar) (types.Scalar, error)

type key struct {
	op    string
	arity int
}

type entry struct {
	fn      Fn
	simd    bool // true if a SIMD flavor conceptually exists for this op
	reduceOK bool
}

var (
	once sync.Once
	reg  map[key]entry
)

func registry() map[key]entry {
	once.Do(func() {
		reg = buildRegistry()
	})
	return reg
}

// Lookup returns the scalar kernel for (op, arity). SIMD selection by
// tag is not distinguished in the key because the scalar path, which
// this registry always provides, already produces fully promoted
// results regardless of tag; per-tag specialization matters only for
// vectorized/native backends, which belong to the JIT codegen path.
func Lookup(op string, arity int) (Fn, bool) {
	e, ok := registry()[key{op, arity}]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// HasSIMD reports whether op conceptually has a SIMD flavor (used only
// to decide whether to emit a RuntimeDegradation diagnostic when SIMD
// is requested but unavailable in this pure-Go build).
func HasSIMD(op string, arity int) bool {
	e, ok := registry()[key{op, arity}]
	return ok && e.simd
}

func buildRegistry() map[key]entry {
	m := map[key]entry{}
	bin := func(op string, simd bool, fn Fn) { m[key{op, 2}] = entry{fn: fn, simd: simd} }
	un := func(op string, simd bool, fn Fn) { m[key{op, 1}] = entry{fn: fn, simd: simd} }

	bin("+", true, arith(func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b }, func(a, b complex128) complex128 { return a + b }))
	bin("-", true, arith(func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b }, func(a, b complex128) complex128 { return a - b }))
	bin("*", true, arith(func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b }, func(a, b complex128) complex128 { return a * b }))
	bin("/", true, divide)
	bin("%", false, modulo)
	bin("**", true, power)

	bin("&", false, bitwise(func(a, b int64) int64 { return a & b }))
	bin("|", false, bitwise(func(a, b int64) int64 { return a | b }))
	bin("^", false, bitwise(func(a, b int64) int64 { return a ^ b }))
	bin("<<", false, bitwise(func(a, b int64) int64 { return a << uint(b) }))
	bin(">>", false, bitwise(func(a, b int64) int64 { return a >> uint(b) }))

	bin("<", false, compare(func(c int) bool { return c < 0 }))
	bin("<=", false, compare(func(c int) bool { return c <= 0 }))
	bin("==", false, compare(func(c int) bool { return c == 0 }))
	bin("!=", false, compare(func(c int) bool { return c != 0 }))
	bin(">=", false, compare(func(c int) bool { return c >= 0 }))
	bin(">", false, compare(func(c int) bool { return c > 0 }))

	bin("and", false, logical(func(a, b bool) bool { return a && b }))
	bin("or", false, logical(func(a, b bool) bool { return a || b }))

	un("not", false, func(args []types.Scalar) (types.Scalar, error) {
		return types.Scalar{Tag: types.Bool, I: boolToI(!truthy(args[0]))}, nil
	})
	un("-", true, negate)
	un("~", false, func(args []types.Scalar) (types.Scalar, error) {
		return types.Scalar{Tag: args[0].Tag, I: ^args[0].I}, nil
	})

	un("sqrt", true, mathUnary(math.Sqrt))
	un("abs", true, absFn)
	un("exp", true, mathUnary(math.Exp))
	un("log", true, mathUnary(math.Log))
	un("sin", true, mathUnary(math.Sin))
	un("cos", true, mathUnary(math.Cos))
	un("tan", true, mathUnary(math.Tan))

	return m
}

func arith(f func(a, b float64) float64, fi func(a, b int64) int64, fc func(a, b complex128) complex128) Fn {
	return func(args []types.Scalar) (types.Scalar, error) {
		a, b := args[0], args[1]
		tag := types.Promote(a.Tag, b.Tag)
		switch {
		case types.IsComplex(tag):
			return types.Scalar{Tag: tag, C128: fc(toComplex(a), toComplex(b))}, nil
		case types.IsFloat(tag):
			return types.Scalar{Tag: tag, F64: f(toFloat(a), toFloat(b))}, nil
		default:
			if types.IsUnsignedInt(tag) {
				return types.Scalar{Tag: tag, U: uint64(fi(int64(toUint(a)), int64(toUint(b))))}, nil
			}
			return types.Scalar{Tag: tag, I: fi(toInt(a), toInt(b))}, nil
		}
	}
}

func divide(args []types.Scalar) (types.Scalar, error) {
	a, b := args[0], args[1]
	tag := types.Promote(a.Tag, b.Tag)
	if types.IsComplex(tag) {
		return types.Scalar{Tag: tag, C128: toComplex(a) / toComplex(b)}, nil
	}
	// Division always promotes to float per the lattice's int/float
	// mixing rule: two integers divide as floats.
	if !types.IsFloat(tag) {
		tag = types.Float64
	}
	return types.Scalar{Tag: tag, F64: toFloat(a) / toFloat(b)}, nil
}

func modulo(args []types.Scalar) (types.Scalar, error) {
	a, b := args[0], args[1]
	tag := types.Promote(a.Tag, b.Tag)
	if types.IsFloat(tag) {
		return types.Scalar{Tag: tag, F64: math.Mod(toFloat(a), toFloat(b))}, nil
	}
	if types.IsComplex(tag) {
		return types.Scalar{}, errors.New(errors.KindType, errors.Position{}, "complex_unsupported: %% has no complex implementation")
	}
	bi := toInt(b)
	if bi == 0 {
		return types.Scalar{}, errors.New(errors.KindMisuse, errors.Position{}, "invalid_arg: modulo by zero")
	}
	return types.Scalar{Tag: tag, I: toInt(a) % bi}, nil
}

func power(args []types.Scalar) (types.Scalar, error) {
	a, b := args[0], args[1]
	tag := types.Promote(a.Tag, b.Tag)
	if types.IsComplex(tag) {
		return types.Scalar{}, errors.New(errors.KindType, errors.Position{}, "complex_unsupported: ** has no complex implementation")
	}
	if types.IsFloat(tag) {
		return types.Scalar{Tag: tag, F64: math.Pow(toFloat(a), toFloat(b))}, nil
	}
	return types.Scalar{Tag: tag, I: int64(math.Pow(float64(toInt(a)), float64(toInt(b))))}, nil
}

func bitwise(f func(a, b int64) int64) Fn {
	return func(args []types.Scalar) (types.Scalar, error) {
		a, b := args[0], args[1]
		return types.Scalar{Tag: types.Promote(a.Tag, b.Tag), I: f(toInt(a), toInt(b))}, nil
	}
}

func compare(pred func(c int) bool) Fn {
	return func(args []types.Scalar) (types.Scalar, error) {
		a, b := args[0], args[1]
		c := compareScalars(a, b)
		return types.Scalar{Tag: types.Bool, I: boolToI(pred(c))}, nil
	}
}

// compareScalars returns -1/0/1. For complex operands, the Open
// Question 3: compare real parts only.
func compareScalars(a, b types.Scalar) int {
	if types.IsComplex(a.Tag) || types.IsComplex(b.Tag) {
		ar, br := real(toComplex(a)), real(toComplex(b))
		return cmpFloat(ar, br)
	}
	if types.IsFloat(a.Tag) || types.IsFloat(b.Tag) {
		return cmpFloat(toFloat(a), toFloat(b))
	}
	ai, bi := toInt(a), toInt(b)
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func logical(f func(a, b bool) bool) Fn {
	return func(args []types.Scalar) (types.Scalar, error) {
		return types.Scalar{Tag: types.Bool, I: boolToI(f(truthy(args[0]), truthy(args[1])))}, nil
	}
}

func negate(args []types.Scalar) (types.Scalar, error) {
	a := args[0]
	switch {
	case types.IsComplex(a.Tag):
		return types.Scalar{Tag: a.Tag, C128: -toComplex(a)}, nil
	case types.IsFloat(a.Tag):
		return types.Scalar{Tag: a.Tag, F64: -toFloat(a)}, nil
	default:
		return types.Scalar{Tag: a.Tag, I: -toInt(a)}, nil
	}
}

func mathUnary(f func(float64) float64) Fn {
	return func(args []types.Scalar) (types.Scalar, error) {
		tag := args[0].Tag
		if tag != types.Float32 {
			tag = types.Float64
		}
		return types.Scalar{Tag: tag, F64: f(toFloat(args[0]))}, nil
	}
}

func absFn(args []types.Scalar) (types.Scalar, error) {
	a := args[0]
	if types.IsComplex(a.Tag) {
		c := toComplex(a)
		return types.Scalar{Tag: types.Float64, F64: math.Hypot(real(c), imag(c))}, nil
	}
	return mathUnary(math.Abs)(args)
}

func truthy(s types.Scalar) bool {
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

func boolToI(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func toFloat(s types.Scalar) float64 {
	switch {
	case types.IsFloat(s.Tag):
		return s.F64
	case types.IsComplex(s.Tag):
		return real(s.C128)
	case types.IsUnsignedInt(s.Tag):
		return float64(s.U)
	default:
		return float64(s.I)
	}
}

func toInt(s types.Scalar) int64 {
	switch {
	case types.IsFloat(s.Tag):
		return int64(math.Trunc(s.F64))
	case types.IsComplex(s.Tag):
		return int64(math.Trunc(real(s.C128)))
	case types.IsUnsignedInt(s.Tag):
		return int64(s.U)
	default:
		return s.I
	}
}

func toUint(s types.Scalar) uint64 {
	if types.IsUnsignedInt(s.Tag) {
		return s.U
	}
	return uint64(toInt(s))
}

func toComplex(s types.Scalar) complex128 {
	if types.IsComplex(s.Tag) {
		return s.C128
	}
	return complex(toFloat(s), 0)
}
