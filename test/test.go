// Package test holds guest modules and config helpers shared by the
// package tests. Guests are written in WAT and compiled through
// wasmer, so tests need no prebuilt artifacts.
package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	wasmer "github.com/wasmerio/wasmer-go/wasmer"

	"wasmfn/config"
)

// EchoWat stores the request body under the key "greeting", reads it
// back through the datastore, and returns it as the response.
const EchoWat = `
(module
  (import "env" "write_key" (func $write_key (param i32 i32 i32 i32)))
  (import "env" "read_key" (func $read_key (param i32 i32 i32)))
  (memory (export "memory") 2)
  (data (i32.const 992) "greeting")
  (func (export "entry") (param $res i32) (param $base i32) (param $len i32)
    (call $write_key (i32.const 992) (i32.const 8) (local.get $base) (local.get $len))
    (call $read_key (i32.const 960) (i32.const 992) (i32.const 8))
    (i32.store (local.get $res) (i32.load (i32.const 960)))
    (i32.store offset=4 (local.get $res) (i32.load (i32.const 964)))))
`

// MissWat reads a key nothing ever writes; the response is the empty
// value a miss produces.
const MissWat = `
(module
  (import "env" "read_key" (func $read_key (param i32 i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 992) "nokey123")
  (func (export "entry") (param $res i32) (param $base i32) (param $len i32)
    (call $read_key (i32.const 960) (i32.const 992) (i32.const 8))
    (i32.store (local.get $res) (i32.load (i32.const 960)))
    (i32.store offset=4 (local.get $res) (i32.load (i32.const 964)))))
`

// StaticWat ignores the body and the datastore and returns a fixed
// page.
const StaticWat = `
(module
  (memory (export "memory") 1)
  (data (i32.const 900) "<html>hi</html>")
  (func (export "entry") (param $res i32) (param $base i32) (param $len i32)
    (i32.store (local.get $res) (i32.const 900))
    (i32.store offset=4 (local.get $res) (i32.const 15))))
`

// NoEntryWat exports no entry function at all.
const NoEntryWat = `
(module
  (memory (export "memory") 1))
`

// NoMemoryWat exports entry but no memory.
const NoMemoryWat = `
(module
  (func (export "entry") (param i32 i32 i32)))
`

func Wasm(t *testing.T, wat string) []byte {
	b, err := wasmer.Wat2Wasm(wat)
	require.Nil(t, err, "Err wat2wasm: %v", err)
	return b
}

// WriteWasm drops a compiled guest into a temp file and returns its
// path, for the file-fetch path.
func WriteWasm(t *testing.T, wat string) string {
	pn := filepath.Join(t.TempDir(), "guest.wasm")
	err := os.WriteFile(pn, Wasm(t, wat), 0666)
	require.Nil(t, err, "Err write wasm: %v", err)
	return pn
}

// NewConf builds a memory-store gateway config with one registered
// function.
func NewConf(t *testing.T, name, src string) *config.FnConfig {
	cfg := config.NewFnConfig()
	cfg.CacheDir = t.TempDir()
	cfg.Fns[name] = &config.FnSpec{Src: src}
	return cfg
}
