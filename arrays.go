package numexpr

import "numexpr/internal/eval"

// NewFloat64Array, NewFloat32Array, NewInt32Array, NewInt64Array,
// NewBoolArray and NewComplex128Array wrap a Go slice as a read-only
// Array of the matching tag, re-exported from internal/eval so a
// caller never imports it directly.
func NewFloat64Array(data []float64) Array       { return eval.NewFloat64Array(data) }
func NewFloat32Array(data []float32) Array       { return eval.NewFloat32Array(data) }
func NewInt32Array(data []int32) Array           { return eval.NewInt32Array(data) }
func NewInt64Array(data []int64) Array           { return eval.NewInt64Array(data) }
func NewBoolArray(data []bool) Array             { return eval.NewBoolArray(data) }
func NewComplex128Array(data []complex128) Array { return eval.NewComplex128Array(data) }

// Float64Output, Int64Output, Float32Output and BoolOutput are the
// concrete slice-backed Output implementations, re-exported from
// internal/eval so a caller can declare an output buffer without
// importing it directly.
type (
	Float64Output = eval.Float64Output
	Int64Output   = eval.Int64Output
	Float32Output = eval.Float32Output
	BoolOutput    = eval.BoolOutput
)
