package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasmfn/config"
)

const conf = `
listenaddr: ":9090"
cachedir: /tmp/wasmfn-test-cache
defaultfn: echo
store:
  kind: redis
  addr: localhost:6379
fns:
  echo:
    src: /srv/fns/echo.wasm
  counter:
    src: s3://fns/counter.wasm
    store:
      kind: dynamo
      table: counters
`

func writeConf(t *testing.T, s string) string {
	pn := filepath.Join(t.TempDir(), "wasmfn.yml")
	err := os.WriteFile(pn, []byte(s), 0666)
	require.Nil(t, err, "Err write conf: %v", err)
	return pn
}

func TestReadFnConfig(t *testing.T) {
	cfg, err := config.ReadFnConfig(writeConf(t, conf))
	require.Nil(t, err, "Err read conf: %v", err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/wasmfn-test-cache", cfg.CacheDir)
	assert.Equal(t, "echo", cfg.DefaultFn)
	assert.Equal(t, "redis", cfg.Store.Kind)
	assert.Equal(t, "localhost:6379", cfg.Store.Addr)

	require.Equal(t, 2, len(cfg.Fns))
	assert.Equal(t, "/srv/fns/echo.wasm", cfg.Fns["echo"].Src)
	assert.Nil(t, cfg.Fns["echo"].Store)
	require.NotNil(t, cfg.Fns["counter"].Store)
	assert.Equal(t, "dynamo", cfg.Fns["counter"].Store.Kind)
	assert.Equal(t, "counters", cfg.Fns["counter"].Store.Table)
}

// A partial file keeps the defaults for everything it omits.
func TestPartialConfig(t *testing.T) {
	cfg, err := config.ReadFnConfig(writeConf(t, "defaultfn: echo\n"))
	require.Nil(t, err, "Err read conf: %v", err)
	assert.Equal(t, "echo", cfg.DefaultFn)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "mem", cfg.Store.Kind)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv(config.WASMFNLISTEN, ":7070")
	t.Setenv(config.WASMFNSTORE, "etcd")
	t.Setenv(config.WASMFNSTOREADDR, "localhost:2379")
	cfg, err := config.ReadFnConfig(writeConf(t, conf))
	require.Nil(t, err, "Err read conf: %v", err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "etcd", cfg.Store.Kind)
	assert.Equal(t, "localhost:2379", cfg.Store.Addr)
}

func TestDefaults(t *testing.T) {
	cfg := config.GetFnConfig("")
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "mem", cfg.Store.Kind)
	assert.Equal(t, 0, len(cfg.Fns))
}

func TestMissingFile(t *testing.T) {
	_, err := config.ReadFnConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.NotNil(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := config.ReadFnConfig(writeConf(t, conf))
	require.Nil(t, err, "Err read conf: %v", err)
	cfg2, err := config.ReadFnConfig(writeConf(t, cfg.Marshal()))
	require.Nil(t, err, "Err reread conf: %v", err)
	assert.Equal(t, cfg, cfg2)
}
