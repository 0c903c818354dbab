package kvstore

import (
	"context"
	"encoding/json"
	"sync"

	db "wasmfn/debug"
)

type MemStore struct {
	sync.Mutex
	cache map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{cache: make(map[string][]byte)}
}

func (ms *MemStore) Put(ctx context.Context, key, val []byte) error {
	db.DPrintf(db.KVSTORE, "Put %v nbyte %v", string(key), len(val))
	ms.Lock()
	defer ms.Unlock()
	v := make([]byte, len(val))
	copy(v, val)
	ms.cache[string(key)] = v
	return nil
}

func (ms *MemStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db.DPrintf(db.KVSTORE, "Get %v", string(key))
	ms.Lock()
	defer ms.Unlock()
	v, ok := ms.cache[string(key)]
	if !ok {
		return nil, false, nil
	}
	b := make([]byte, len(v))
	copy(b, v)
	return b, true, nil
}

func (ms *MemStore) Close() error {
	return nil
}

// Dump the whole store, for the dump endpoint.
func (ms *MemStore) Dump() ([]byte, error) {
	ms.Lock()
	defer ms.Unlock()
	return json.Marshal(ms.cache)
}
