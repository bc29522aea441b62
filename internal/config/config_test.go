package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	c := FromEnv()
	if c.JIT {
		t.Fatalf("JIT default = true, want false")
	}
	if c.Backend != "c" {
		t.Fatalf("Backend default = %q, want %q", c.Backend, "c")
	}
	if !c.VecMath || !c.HybridExprVecMath || !c.PosCache {
		t.Fatalf("VecMath/HybridExprVecMath/PosCache defaults should all be true, got %+v", c)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("NUMEXPR_JIT", "1")
	t.Setenv("NUMEXPR_BACKEND", "llvm")
	t.Setenv("NUMEXPR_VEC_MATH", "false")
	t.Setenv("NUMEXPR_CACHE_DIR", "/tmp/custom-jit-cache")

	c := FromEnv()
	if !c.JIT {
		t.Fatalf("JIT = false, want true")
	}
	if c.Backend != "llvm" {
		t.Fatalf("Backend = %q, want %q", c.Backend, "llvm")
	}
	if c.VecMath {
		t.Fatalf("VecMath = true, want false")
	}
	if c.CacheDir != "/tmp/custom-jit-cache" {
		t.Fatalf("CacheDir = %q, want %q", c.CacheDir, "/tmp/custom-jit-cache")
	}
}

func TestFromEnvInvalidBoolFallsBackToDefault(t *testing.T) {
	t.Setenv("NUMEXPR_JIT", "not-a-bool")
	c := FromEnv()
	if c.JIT {
		t.Fatalf("JIT = true for invalid bool, want default false")
	}
}
