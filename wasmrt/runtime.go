// Package wasmrt runs guest wasm modules. A shared engine serves
// precompilation; each invocation gets its own store so no guest
// state leaks between requests.
package wasmrt

import (
	"sync"
	"sync/atomic"
	"time"

	wasmer "github.com/wasmerio/wasmer-go/wasmer"

	db "wasmfn/debug"
	"wasmfn/perf"
)

type Runtime struct {
	mu           sync.RWMutex
	invocations  map[int]*invocation
	nextInvID    int32
	precompStore *wasmer.Store // For AOT compilation
}

func NewRuntime() *Runtime {
	// TODO: get the LLVM compiler to work, since it produces faster
	// (and smaller) binaries
	cfg := wasmer.NewConfig().UseCraneliftCompiler()
	engine := wasmer.NewEngineWithConfig(cfg)
	return &Runtime{
		invocations:  make(map[int]*invocation),
		precompStore: wasmer.NewStore(engine),
	}
}

// PrecompileModule compiles wasm bytes and serializes the result, so
// modclnt can cache it on disk.
func (rt *Runtime) PrecompileModule(wasmBytes []byte) ([]byte, error) {
	start := time.Now()
	module, err := wasmer.NewModule(rt.precompStore, wasmBytes)
	if err != nil {
		db.DPrintf(db.WASMRT_ERR, "Err in WASM module compilation: %v", err)
		return nil, err
	}
	compiledModule, err := module.Serialize()
	if err != nil {
		db.DPrintf(db.WASMRT_ERR, "Err in WASM module serialization: %v", err)
		return nil, err
	}
	perf.LogInvokeLatency("WASM module compilation (%vB -> %vB)", "precompile", start, len(wasmBytes), len(compiledModule))
	return compiledModule, nil
}

func (rt *Runtime) addInvocation(inv *invocation) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.invocations[inv.id] = inv
}

func (rt *Runtime) removeInvocation(inv *invocation) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.invocations, inv.id)
	db.DPrintf(db.WASMRT, "[%v] Invocation removed", inv.id)
}

// NInvocations reports how many invocations are in flight.
func (rt *Runtime) NInvocations() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.invocations)
}

func (rt *Runtime) allocInvID() int {
	return int(atomic.AddInt32(&rt.nextInvID, 1))
}
