package fnsrv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasmfn/config"
	db "wasmfn/debug"
	"wasmfn/fnsrv"
	"wasmfn/loadgen"
	"wasmfn/test"
)

var ctx = context.Background()

func newSrv(t *testing.T) *fnsrv.FnSrv {
	cfg := test.NewConf(t, "echo", test.WriteWasm(t, test.EchoWat))
	fsrv, err := fnsrv.NewFnSrv(cfg)
	require.Nil(t, err, "Err new fnsrv: %v", err)
	return fsrv
}

func TestServeRequest(t *testing.T) {
	fsrv := newSrv(t)
	defer fsrv.Close()

	body := []byte("hello gateway")
	res, err := fsrv.ServeRequest(ctx, "echo", body)
	assert.Nil(t, err, "Err serve: %v", err)
	assert.Equal(t, body, res)

	// The guest's write landed in the gateway's default store.
	v, ok, err := fsrv.Datastore().Get(ctx, []byte("greeting"))
	assert.Nil(t, err, "Err get: %v", err)
	assert.True(t, ok)
	assert.Equal(t, body, v)
}

func TestUnknownFn(t *testing.T) {
	fsrv := newSrv(t)
	defer fsrv.Close()
	_, err := fsrv.ServeRequest(ctx, "nope", nil)
	assert.True(t, errors.Is(err, fnsrv.ErrUnknownFn), "want ErrUnknownFn, got %v", err)
}

// Datastore state persists across invocations, unlike guest memory.
func TestStatePersists(t *testing.T) {
	fsrv := newSrv(t)
	defer fsrv.Close()

	_, err := fsrv.ServeRequest(ctx, "echo", []byte("round one"))
	require.Nil(t, err, "Err serve: %v", err)
	res, err := fsrv.ServeRequest(ctx, "echo", []byte("round two"))
	assert.Nil(t, err, "Err serve: %v", err)
	assert.Equal(t, "round two", string(res))
	v, ok, err := fsrv.Datastore().Get(ctx, []byte("greeting"))
	assert.Nil(t, err, "Err get: %v", err)
	assert.True(t, ok)
	assert.Equal(t, "round two", string(v))
}

// A per-function store override isolates the function from the
// gateway default.
func TestPerFnStore(t *testing.T) {
	cfg := test.NewConf(t, "echo", test.WriteWasm(t, test.EchoWat))
	cfg.Fns["echo"].Store = &config.StoreConfig{Kind: "mem"}
	fsrv, err := fnsrv.NewFnSrv(cfg)
	require.Nil(t, err, "Err new fnsrv: %v", err)
	defer fsrv.Close()

	_, err = fsrv.ServeRequest(ctx, "echo", []byte("isolated"))
	require.Nil(t, err, "Err serve: %v", err)
	_, ok, err := fsrv.Datastore().Get(ctx, []byte("greeting"))
	assert.Nil(t, err, "Err get: %v", err)
	assert.False(t, ok, "write leaked into the default store")
}

func TestBadFnStore(t *testing.T) {
	cfg := test.NewConf(t, "echo", test.WriteWasm(t, test.EchoWat))
	cfg.Fns["echo"].Store = &config.StoreConfig{Kind: "bogus"}
	_, err := fnsrv.NewFnSrv(cfg)
	assert.NotNil(t, err)
}

func TestLoad(t *testing.T) {
	fsrv := newSrv(t)
	defer fsrv.Close()

	// Warm the module cache so the run measures invokes only.
	_, err := fsrv.ServeRequest(ctx, "echo", []byte("warm"))
	require.Nil(t, err, "Err warm: %v", err)

	lg := loadgen.NewLoadGenerator(500*time.Millisecond, 50, func(ctx context.Context) error {
		_, err := fsrv.ServeRequest(ctx, "echo", []byte("load"))
		return err
	})
	r := lg.Run(ctx)
	db.DPrintf(db.TEST, "load report: %+v", r)
	assert.Equal(t, 0, r.Errs)
	assert.True(t, r.N > 0, "no requests completed")
	assert.True(t, r.P99 >= r.P50, "percentiles out of order")
}
