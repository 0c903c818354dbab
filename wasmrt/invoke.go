package wasmrt

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	wasmer "github.com/wasmerio/wasmer-go/wasmer"

	db "wasmfn/debug"
	"wasmfn/kvstore"
	"wasmfn/perf"
)

// Guest calling convention, fixed by the guest SDK: the request body
// is copied in at BODY_OFF, entry(RESULT_PTR, BODY_OFF, len) runs, and
// the guest leaves a {base,len} u32le descriptor of the response at
// RESULT_PTR. read_key stages values at the top of guest memory.
const (
	RESULT_PTR = 0
	BODY_OFF   = 8
)

type invocation struct {
	id  int
	ctx context.Context
	ds  kvstore.Datastore
	mem *wasmer.Memory
}

// Invoke instantiates a precompiled module against ds and runs its
// entry export over body, returning the response slice the guest
// describes at RESULT_PTR.
func (rt *Runtime) Invoke(ctx context.Context, compiledModule []byte, ds kvstore.Datastore, body []byte) ([]byte, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.DeserializeModule(store, compiledModule)
	if err != nil {
		db.DPrintf(db.WASMRT_ERR, "Err in compiled WASM module deserialization: %v", err)
		return nil, err
	}

	inv := &invocation{
		id:  rt.allocInvID(),
		ctx: ctx,
		ds:  ds,
	}
	rt.addInvocation(inv)
	defer rt.removeInvocation(inv)

	importObject := wasmer.NewImportObject()
	importObject.Register(
		"env",
		map[string]wasmer.IntoExtern{
			"write_key": inv.newWriteKeyFn(store),
			"read_key":  inv.newReadKeyFn(store),
		},
	)
	start := time.Now()
	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		db.DPrintf(db.WASMRT_ERR, "[%v] Err instantiate WASM module: %v", inv.id, err)
		return nil, err
	}
	perf.LogInvokeLatency("WASM module instantiation", "invoke", start)

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		db.DPrintf(db.WASMRT_ERR, "[%v] Err get WASM instance memory: %v", inv.id, err)
		return nil, err
	}
	inv.mem = mem

	// Make room for the body, then copy it in at BODY_OFF.
	for uint(BODY_OFF+len(body)) > mem.DataSize() {
		if !mem.Grow(1) {
			return nil, fmt.Errorf("cannot grow guest memory to %v bytes", BODY_OFF+len(body))
		}
	}
	copy(mem.Data()[BODY_OFF:], body)

	entry, err := instance.Exports.GetFunction("entry")
	if err != nil {
		db.DPrintf(db.WASMRT_ERR, "[%v] Err get WASM entry function: %v", inv.id, err)
		return nil, err
	}
	start = time.Now()
	if _, err := entry(int32(RESULT_PTR), int32(BODY_OFF), int32(len(body))); err != nil {
		db.DPrintf(db.WASMRT_ERR, "[%v] Err call WASM entry function: %v", inv.id, err)
		return nil, err
	}
	perf.LogInvokeLatency("WASM module ran", "invoke", start)

	// entry may have grown memory, invalidating earlier views, so
	// reload before reading the descriptor.
	data := mem.Data()
	resBase := binary.LittleEndian.Uint32(data[RESULT_PTR : RESULT_PTR+4])
	resLen := binary.LittleEndian.Uint32(data[RESULT_PTR+4 : RESULT_PTR+8])
	if uint64(resBase)+uint64(resLen) > uint64(len(data)) {
		return nil, fmt.Errorf("guest result descriptor out of bounds: base %v len %v memsize %v", resBase, resLen, len(data))
	}
	res := make([]byte, resLen)
	copy(res, data[resBase:resBase+resLen])
	db.DPrintf(db.WASMRT, "[%v] Successfully ran WASM module, %v result bytes", inv.id, resLen)
	return res, nil
}

func (inv *invocation) guestSlice(base, length int32) ([]byte, error) {
	if inv.mem == nil {
		return nil, fmt.Errorf("host function called before instantiation finished")
	}
	data := inv.mem.Data()
	if base < 0 || length < 0 || int64(base)+int64(length) > int64(len(data)) {
		return nil, fmt.Errorf("guest pointer out of bounds: base %v len %v memsize %v", base, length, len(data))
	}
	b := make([]byte, length)
	copy(b, data[base:base+length])
	return b, nil
}

func (inv *invocation) newWriteKeyFn(store *wasmer.Store) *wasmer.Function {
	return wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32, wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			key, err := inv.guestSlice(args[0].I32(), args[1].I32())
			if err != nil {
				return []wasmer.Value{}, err
			}
			val, err := inv.guestSlice(args[2].I32(), args[3].I32())
			if err != nil {
				return []wasmer.Value{}, err
			}
			db.DPrintf(db.WASMRT, "[%v] write_key %v nbyte %v", inv.id, string(key), len(val))
			if err := inv.ds.Put(inv.ctx, key, val); err != nil {
				db.DPrintf(db.WASMRT_ERR, "[%v] Err write_key %v: %v", inv.id, string(key), err)
				return []wasmer.Value{}, err
			}
			return []wasmer.Value{}, nil
		},
	)
}

func (inv *invocation) newReadKeyFn(store *wasmer.Store) *wasmer.Function {
	return wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			resultBase := args[0].I32()
			key, err := inv.guestSlice(args[1].I32(), args[2].I32())
			if err != nil {
				return []wasmer.Value{}, err
			}
			val, ok, err := inv.ds.Get(inv.ctx, key)
			if err != nil {
				db.DPrintf(db.WASMRT_ERR, "[%v] Err read_key %v: %v", inv.id, string(key), err)
				return []wasmer.Value{}, err
			}
			// A miss reads back as an empty value.
			if !ok {
				val = nil
			}
			data := inv.mem.Data()
			if int64(resultBase)+8 > int64(len(data)) {
				return []wasmer.Value{}, fmt.Errorf("guest result base out of bounds: %v", resultBase)
			}
			// Stage the value at the top of guest memory and report
			// where it landed.
			off := len(data) - len(val)
			if off < 0 {
				return []wasmer.Value{}, fmt.Errorf("value of %v bytes does not fit in guest memory", len(val))
			}
			copy(data[off:], val)
			binary.LittleEndian.PutUint32(data[resultBase:resultBase+4], uint32(off))
			binary.LittleEndian.PutUint32(data[resultBase+4:resultBase+8], uint32(len(val)))
			db.DPrintf(db.WASMRT, "[%v] read_key %v nbyte %v", inv.id, string(key), len(val))
			return []wasmer.Value{}, nil
		},
	)
}
