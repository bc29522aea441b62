package numexpr

import (
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"

	"numexpr/internal/cache"
	"numexpr/internal/config"
	"numexpr/internal/diagnostics"
	"numexpr/internal/eval"
	"numexpr/internal/jit"
)

// defaultConfig is gathered once per process from the environment
// (spec §4.I/§9: "gather all knobs once per process into a plain
// configuration struct that is read ... on the hot path"). A per-call
// Params still wins over it for the knobs
// Params exposes (JITMode, block size): defaultConfig only fills in
// what Params leaves at its zero value.
var defaultConfig = config.FromEnv()

// diagLog is the process-wide diagnostics logger: JIT fallbacks,
// cache hits/misses, and kernel-compiled events all funnel through it
// as the warning/info-level "diagnostic" surface spec §4.I's failure
// semantics describe ("surfaces as a warning-level diagnostic").
var diagLog = diagnostics.NewLogger()

func init() {
	eval.SetLogger(diagLog)
}

// profiler and kernelCache are process-wide: every compiled Expr's
// hotness is tracked against the same threshold gate, and every
// compiled shared object is cached keyed by content hash regardless of
// which Expr produced it (two Exprs compiling identical code share a
// kernel).
var (
	profiler    = jit.NewProfiler()
	kernelCache = newKernelCache(defaultConfig)
)

// newKernelCache builds the process-wide JIT cache from cfg: backend,
// compiler, and scalar-math-bridge selection are config knobs, and the
// SQL manifest (cfg.PosCache) is opened best-effort — a manifest that
// fails to open (e.g. no writable cache directory) just means this
// process never sees a cached kernel survive a restart, not a hard
// failure, matching the package's general degrade-not-fail policy.
func newKernelCache(cfg *config.Config) *jit.Cache {
	c := &jit.Cache{
		Dir:              cfg.CacheDir,
		Backend:          cfg.Backend,
		CC:               cfg.CC,
		ScalarMathBridge: cfg.ScalarMathBridge,
	}
	if cfg.PosCache {
		dir := c.Dir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "numexpr-jit")
		}
		if err := os.MkdirAll(dir, 0o755); err == nil {
			if m, err := cache.Open("sqlite", filepath.Join(dir, "manifest.db")); err == nil {
				c.Manifest = m
			} else {
				diagLog.Warnf("jit manifest unavailable, compiled kernels will not survive a restart: %v", err)
			}
		}
	}
	return c
}

// tryJIT attempts to run e over vars/out using a compiled native
// kernel. ok is false whenever JIT does not apply (the jit config/
// param knob is off, kernel roots, reductions, a variable/output type
// the C codegen does not cover, a missing C compiler) — the caller
// falls back to the interpreter silently, matching the runtime-
// degradation policy: JIT unavailable never fails an evaluate call.
func tryJIT(e *Expr, vars []Array, n int, out Output, params Params) (ok bool, err error) {
	mode := params.JITMode
	if mode == JITForceOff {
		return false, nil
	}
	if mode == JITAuto && !defaultConfig.JIT {
		return false, nil
	}
	if e.isKernel || e.isReduction() {
		return false, nil
	}
	if mode == JITAuto && profiler.RecordCall(e.id) != jit.TierHot {
		return false, nil
	}

	outPtr, ok := pointerOf(out)
	if !ok {
		return false, nil
	}
	varPtrs := make([]unsafe.Pointer, len(vars))
	for i, v := range vars {
		p, ok := pointerOf(v)
		if !ok {
			return false, nil
		}
		varPtrs[i] = p
	}

	k, err := kernelCache.GetOrCompile("numexpr_kernel_"+e.id[2:], e.res)
	if err != nil {
		// Compiler missing, codegen-unsupported shape, link failure: all
		// runtime-degradation, not a hard error.
		diagLog.Warnf("jit unavailable for %s, falling back to interpreter: %v", e.id, err)
		return false, nil
	}
	diagLog.Infof("jit kernel ready for %s: %s elements", e.id, humanize.Comma(int64(n)))

	args := make([]uintptr, 0, len(varPtrs)+len(k.BridgeArgs())+2)
	args = append(args, uintptr(n))
	for _, p := range varPtrs {
		args = append(args, uintptr(p))
	}
	args = append(args, k.BridgeArgs()...)
	args = append(args, uintptr(outPtr))
	k.Call(args...)
	return true, nil
}

func pointerOf(v interface{}) (unsafe.Pointer, bool) {
	p, ok := v.(eval.Pointerer)
	if !ok {
		return nil, false
	}
	return p.Pointer(), true
}

// PruneCache evicts every on-disk compiled kernel not used since
// cutoff from the process-wide JIT cache's manifest, returning the
// evicted content hashes. A no-op (nil, nil) when the manifest
// couldn't be opened (pos_cache disabled, or no writable cache dir).
func PruneCache(cutoff time.Time) ([]string, error) {
	return kernelCache.Prune(cutoff)
}
