package jit

import (
	"math"

	"github.com/ebitengine/purego"
)

// bridgeGoFuncs maps a cMathFuncs name to the Go math implementation a
// scalar_math_bridge callback hands back to the generated kernel,
// matching GenerateCWithBridge's mathfn_<name> parameter naming.
var bridgeGoFuncs = map[string]func(float64) float64{
	"sqrt": math.Sqrt,
	"exp":  math.Exp,
	"log":  math.Log,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
}

// scalarMathBridge exposes a Go-implemented scalar math function as a
// C-callable function pointer via purego.NewCallback, for the
// scalar_math_bridge configuration knob: when set, generated kernels
// call back into the host process's math implementation instead of
// linking against the platform libm, trading a call-indirection cost
// for a guaranteed-consistent implementation across platforms.
type scalarMathBridge struct {
	fn func(float64) float64
	cb uintptr
}

func newScalarMathBridge(fn func(float64) float64) *scalarMathBridge {
	b := &scalarMathBridge{fn: fn}
	b.cb = purego.NewCallback(func(x float64) float64 { return fn(x) })
	return b
}

// Pointer returns the C function pointer a compiled kernel can invoke
// in place of a direct libm call.
func (b *scalarMathBridge) Pointer() uintptr { return b.cb }
