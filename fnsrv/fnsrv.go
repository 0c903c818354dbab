// Package fnsrv binds the pieces of the gateway together: the
// function table from config, the module client, the wasm runtime,
// and the datastores guests see.
package fnsrv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wasmfn/config"
	db "wasmfn/debug"
	"wasmfn/kvstore"
	"wasmfn/modclnt"
	"wasmfn/perf"
	"wasmfn/wasmrt"
)

var ErrUnknownFn = errors.New("unknown function")

type boundFn struct {
	spec *config.FnSpec
	ds   kvstore.Datastore
}

type FnSrv struct {
	rt  *wasmrt.Runtime
	mc  *modclnt.ModClnt
	ds  kvstore.Datastore // gateway default
	fns map[string]*boundFn
}

func NewFnSrv(cfg *config.FnConfig) (*FnSrv, error) {
	rt := wasmrt.NewRuntime()
	mc, err := modclnt.NewModClnt(rt, cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	ds, err := kvstore.NewDatastore(cfg.Store.Kind, cfg.Store.Addr, cfg.Store.Table)
	if err != nil {
		return nil, err
	}
	fsrv := &FnSrv{
		rt:  rt,
		mc:  mc,
		ds:  ds,
		fns: make(map[string]*boundFn),
	}
	for name, spec := range cfg.Fns {
		fds := ds
		if spec.Store != nil {
			fds, err = kvstore.NewDatastore(spec.Store.Kind, spec.Store.Addr, spec.Store.Table)
			if err != nil {
				fsrv.Close()
				return nil, fmt.Errorf("fn %v: %w", name, err)
			}
		}
		fsrv.fns[name] = &boundFn{spec: spec, ds: fds}
		db.DPrintf(db.FNSRV, "registered %v -> %v", name, spec.Src)
	}
	return fsrv, nil
}

// ServeRequest runs fn over body and returns the guest's response
// bytes.
func (fsrv *FnSrv) ServeRequest(ctx context.Context, fn string, body []byte) ([]byte, error) {
	bf, ok := fsrv.fns[fn]
	if !ok {
		db.DPrintf(db.FNSRV_ERR, "ServeRequest %v: unknown", fn)
		return nil, fmt.Errorf("%w: %v", ErrUnknownFn, fn)
	}
	start := time.Now()
	compiled, err := fsrv.mc.GetModule(ctx, bf.spec.Src)
	if err != nil {
		return nil, err
	}
	res, err := fsrv.rt.Invoke(ctx, compiled, bf.ds, body)
	if err != nil {
		db.DPrintf(db.FNSRV_ERR, "ServeRequest %v err %v", fn, err)
		return nil, err
	}
	perf.LogInvokeLatency("ServeRequest nbyte %v -> %v", fn, start, len(body), len(res))
	return res, nil
}

// Datastore exposes the gateway default store, for the dump endpoint.
func (fsrv *FnSrv) Datastore() kvstore.Datastore {
	return fsrv.ds
}

func (fsrv *FnSrv) Runtime() *wasmrt.Runtime {
	return fsrv.rt
}

func (fsrv *FnSrv) Close() error {
	var err error
	for _, bf := range fsrv.fns {
		if bf.ds != fsrv.ds {
			if cerr := bf.ds.Close(); cerr != nil {
				err = cerr
			}
		}
	}
	if cerr := fsrv.ds.Close(); cerr != nil {
		err = cerr
	}
	return err
}
