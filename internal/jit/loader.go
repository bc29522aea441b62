package jit

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/ebitengine/purego"

	"numexpr/internal/errors"
)

// CompiledKernel wraps the C function GenerateC emits: an element
// count, one pointer per variable, and an output pointer. The actual
// argument count is fixed per compiled expression, so it holds the raw
// function pointer rather than exposing a single fixed-arity Go func
// type.
type CompiledKernel struct {
	handle uintptr
	fn     uintptr
	nargs  int

	// bridges pins the scalar-math-bridge callbacks generated for this
	// kernel alive for the kernel's lifetime: purego.NewCallback's
	// returned pointer is only valid as long as the Go closure backing
	// it is reachable. bridgeArgs is the same callbacks' function
	// pointers, in the order GenerateCWithBridge appended them to the
	// kernel's C signature (after the variable pointers, before out).
	bridges    []*scalarMathBridge
	bridgeArgs []uintptr
}

// BridgeArgs returns the scalar-math-bridge function pointers a caller
// must splice into Call's argument list between the variable pointers
// and the output pointer. Empty when the kernel was compiled without
// the scalar_math_bridge knob.
func (k *CompiledKernel) BridgeArgs() []uintptr { return k.bridgeArgs }

// compileSharedObject invokes cc (the host or embedded compiler
// selected by the caller's config.Backend/config.CC knobs) on
// generated source and produces a shared object at outPath, the same
// exec.Command-based build-a-binary shape used elsewhere in the
// toolchain for invoking `go build`. srcExt is "c" for the default
// GenerateC path or "ll" for LLVM IR text, which clang-compatible
// compilers recognize by file extension without an explicit -x flag.
// An empty cc falls back to the platform default ("cc"), matching the
// `compiler` knob's documented default.
func compileSharedObject(cc, cSource, srcExt, outPath string) error {
	if cc == "" {
		cc = "cc"
	}
	tmp, err := os.CreateTemp("", "numexpr-jit-*."+srcExt)
	if err != nil {
		return errors.New(errors.KindMisuse, errors.Position{}, "jit_compile_failed: %v", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(cSource); err != nil {
		tmp.Close()
		return errors.New(errors.KindMisuse, errors.Position{}, "jit_compile_failed: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New(errors.KindMisuse, errors.Position{}, "jit_compile_failed: %v", err)
	}

	args := []string{"-O2", "-shared", "-fPIC", "-o", outPath, tmp.Name(), "-lm"}
	cmd := exec.Command(cc, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.New(errors.KindMisuse, errors.Position{}, "jit_compile_failed: %s: %s", err, string(out))
	}
	return nil
}

// sharedObjectExt is the platform's loadable-library suffix.
func sharedObjectExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// loadKernel dlopens path and resolves symbol via purego — no cgo
// involved on either side of the call.
func loadKernel(path, symbol string, nargs int) (*CompiledKernel, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.New(errors.KindMisuse, errors.Position{}, "jit_load_failed: %v", err)
	}
	sym, err := purego.Dlsym(handle, symbol)
	if err != nil {
		return nil, errors.New(errors.KindMisuse, errors.Position{}, "jit_load_failed: symbol %q: %v", symbol, err)
	}
	return &CompiledKernel{handle: handle, fn: sym, nargs: nargs}, nil
}

// Call invokes the compiled block function. args must be n followed by
// one *float64/*int64/etc. pointer per variable, followed by the
// output pointer, matching the signature GenerateC produced. SyscallN
// is purego's raw-call path: it avoids needing a concrete Go func type
// per distinct variable count, which RegisterFunc would otherwise
// require.
func (k *CompiledKernel) Call(args ...uintptr) {
	purego.SyscallN(k.fn, args...)
}

func (k *CompiledKernel) String() string {
	return fmt.Sprintf("CompiledKernel{fn=%#x, nargs=%d}", k.fn, k.nargs)
}
