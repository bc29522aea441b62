// Package jit's on-disk cache stores one compiled shared object per
// distinct (content hash, engine version) pair, resolve-then-cache-
// then-compile like a module loader's import cache: look the hash up
// under a read lock first, and only take the write lock (with a
// second look-up to avoid a duplicate compile race) on a miss.
// golang.org/x/sync/singleflight additionally collapses concurrent
// misses for the same hash onto a single compile.
package jit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/singleflight"

	"numexpr/internal/cache"
	"numexpr/internal/errors"
	"numexpr/internal/semantic"
)

// EngineVersion is stamped into every cache entry's filename so a
// binary upgrade never loads a shared object compiled by an
// incompatible codegen.
const EngineVersion = "v0.1.0"

func init() {
	if !semver.IsValid(EngineVersion) {
		panic("jit: EngineVersion is not a valid semver string")
	}
}

// Cache is the process-wide compiled-kernel cache keyed by content
// hash. Zero value is usable; Dir defaults to os.TempDir()/numexpr-jit
// on first use.
type Cache struct {
	Dir string

	// Backend selects codegen: "c" (default) or "llvm" (config.Backend).
	Backend string
	// CC is the compiler invoked on the generated source (config.CC).
	CC string
	// ScalarMathBridge routes generated math calls through Go callbacks
	// instead of direct libm linkage (config.ScalarMathBridge).
	ScalarMathBridge bool
	// Manifest, when set, persists compiled-kernel metadata across
	// process restarts (config.PosCache gates whether a caller opens
	// one). A miss against Manifest still recompiles; a hit whose
	// shared object is still on disk skips straight to loadKernel.
	Manifest *cache.Manifest

	mu      sync.RWMutex
	entries map[string]*CompiledKernel
	group   singleflight.Group
}

func (c *Cache) dir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(os.TempDir(), "numexpr-jit")
}

// Hash computes the cache key for a compiled expression: the engine
// version plus the generated C source's digest, so any codegen change
// invalidates every prior entry implicitly.
func Hash(cSource string) string {
	sum := sha256.Sum256([]byte(EngineVersion + "\x00" + cSource))
	return hex.EncodeToString(sum[:])
}

// GetOrCompile returns the cached kernel for res if present, else
// generates, compiles, loads, and caches a new one. Codegen backend
// (c.Backend), compiler (c.CC), and the scalar-math-bridge knob
// (c.ScalarMathBridge) all come from the caller's resolved
// config.Config; GenerateLLVM falling back to GenerateC on an
// unsupported shape is the same runtime-degradation policy the
// package applies to a missing compiler or a rejected codegen shape.
func (c *Cache) GetOrCompile(funcName string, res *semantic.Result) (*CompiledKernel, error) {
	var src string
	srcExt := "c"
	var bridgeFuncs []string
	var err error

	if c.Backend == "llvm" {
		src, err = GenerateLLVM(funcName, res)
		srcExt = "ll"
	}
	if c.Backend != "llvm" || err != nil {
		if c.ScalarMathBridge {
			src, bridgeFuncs, err = GenerateCWithBridge(funcName, res)
		} else {
			src, err = GenerateC(funcName, res)
		}
		srcExt = "c"
	}
	if err != nil {
		return nil, err
	}
	hash := Hash(src)

	c.mu.RLock()
	if k, ok := c.entries[hash]; ok {
		c.mu.RUnlock()
		return k, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(hash, func() (interface{}, error) {
		c.mu.Lock()
		if k, ok := c.entries[hash]; ok {
			c.mu.Unlock()
			return k, nil
		}
		c.mu.Unlock()

		if err := os.MkdirAll(c.dir(), 0o755); err != nil {
			return nil, errors.New(errors.KindMisuse, errors.Position{}, "jit_cache_failed: %v", err)
		}
		soPath := filepath.Join(c.dir(), fmt.Sprintf("%s%s", hash, sharedObjectExt()))

		onDisk := false
		if _, err := os.Stat(soPath); err == nil {
			onDisk = true
		} else if c.Manifest != nil {
			if e, ok, merr := c.Manifest.Get(hash); merr == nil && ok {
				if _, serr := os.Stat(e.SOPath); serr == nil {
					soPath = e.SOPath
					onDisk = true
					c.Manifest.Touch(hash)
				}
			}
		}
		if !onDisk {
			if err := compileSharedObject(c.CC, src, srcExt, soPath); err != nil {
				return nil, err
			}
			if c.Manifest != nil {
				now := time.Now()
				c.Manifest.Put(cache.Entry{
					Hash: hash, EngineVersion: EngineVersion, FuncName: funcName,
					SOPath: soPath, CreatedAt: now, LastUsedAt: now,
				})
			}
		}

		k, err := loadKernel(soPath, funcName, len(res.Vars))
		if err != nil {
			return nil, err
		}
		if len(bridgeFuncs) > 0 {
			k.bridges = make([]*scalarMathBridge, len(bridgeFuncs))
			k.bridgeArgs = make([]uintptr, len(bridgeFuncs))
			for i, name := range bridgeFuncs {
				b := newScalarMathBridge(bridgeGoFuncs[name])
				k.bridges[i] = b
				k.bridgeArgs[i] = b.Pointer()
			}
		}

		c.mu.Lock()
		if c.entries == nil {
			c.entries = make(map[string]*CompiledKernel)
		}
		c.entries[hash] = k
		c.mu.Unlock()
		return k, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CompiledKernel), nil
}

// Prune evicts every manifest entry not used since cutoff, removing
// the backing shared object and any live in-process entry for it. A
// Cache with no Manifest attached (pos_cache disabled) is a no-op.
func (c *Cache) Prune(cutoff time.Time) ([]string, error) {
	if c.Manifest == nil {
		return nil, nil
	}
	stale, err := c.Manifest.Prune(cutoff)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, hash := range stale {
		delete(c.entries, hash)
		os.Remove(filepath.Join(c.dir(), hash+sharedObjectExt()))
	}
	c.mu.Unlock()
	return stale, nil
}
