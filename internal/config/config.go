// Package config gathers the process-wide tuning knobs read once at
// startup from the environment, using NUMEXPR_*-prefixed
// os.Getenv-with-default lookups.
package config

import (
	"os"
	"strconv"
)

// Config holds every knob that changes compile or evaluate behavior
// without changing an expression's result.
type Config struct {
	// JIT enables C/LLVM codegen for hot kernels. Off by default: the
	// scalar interpreter is always correct and always available: JIT is
	// an opt-in speed path.
	JIT bool

	// Backend selects the JIT codegen path: "c" (default) or "llvm".
	Backend string

	// CC overrides the C compiler invoked to build a JIT shared object.
	CC string

	// ScalarMathBridge routes generated-kernel transcendental calls
	// through a Go callback instead of linking the platform libm, for
	// cross-platform reproducibility at the cost of call overhead.
	ScalarMathBridge bool

	// VecMath is read from NUMEXPR_VEC_MATH. No evaluation path
	// consults it: block evaluation always uses the scalar flavor.
	VecMath bool

	// HybridExprVecMath is read from NUMEXPR_HYBRID_EXPR_VEC_MATH. Like
	// VecMath, no evaluation path consults it.
	HybridExprVecMath bool

	// PosCache enables the on-disk SQL manifest of compiled JIT kernels,
	// so cached kernels are found again after a process restart.
	PosCache bool

	// CacheDir is the on-disk root for compiled-kernel shared objects.
	// Empty means internal/jit.Cache picks its own default.
	CacheDir string
}

// FromEnv builds a Config from the process environment, falling back
// to the documented defaults for anything unset.
func FromEnv() *Config {
	return &Config{
		JIT:               getBool("NUMEXPR_JIT", false),
		Backend:           getString("NUMEXPR_BACKEND", "c"),
		CC:                os.Getenv("CC"),
		ScalarMathBridge:  getBool("NUMEXPR_SCALAR_MATH_BRIDGE", false),
		VecMath:           getBool("NUMEXPR_VEC_MATH", true),
		HybridExprVecMath: getBool("NUMEXPR_HYBRID_EXPR_VEC_MATH", true),
		PosCache:          getBool("NUMEXPR_POS_CACHE", true),
		CacheDir:          os.Getenv("NUMEXPR_CACHE_DIR"),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
