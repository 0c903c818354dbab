package kvstore

import (
	"context"
	"hash/fnv"
	"net"

	"github.com/bradfitz/gomemcache/memcache"

	db "wasmfn/debug"
)

// MemcachedStore shards keys over a set of memcached servers with an
// fnv pick.
type MemcachedStore struct {
	cc *memcache.Client
}

func NewMemcachedStore(addrs []string) (*MemcachedStore, error) {
	ss, err := newServerSelector(addrs)
	if err != nil {
		return nil, err
	}
	cc := memcache.NewFromSelector(ss)
	cc.MaxIdleConns = 100
	return &MemcachedStore{cc: cc}, nil
}

func (ms *MemcachedStore) Put(ctx context.Context, key, val []byte) error {
	db.DPrintf(db.KVSTORE, "memcached Put %v nbyte %v", string(key), len(val))
	return ms.cc.Set(&memcache.Item{
		Key:   string(key),
		Value: val,
	})
}

func (ms *MemcachedStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db.DPrintf(db.KVSTORE, "memcached Get %v", string(key))
	i, err := ms.cc.Get(string(key))
	if err == memcache.ErrCacheMiss {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return i.Value, true, nil
}

func (ms *MemcachedStore) Close() error {
	return nil
}

func key2server(key string, nserver int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32()) % nserver
}

type serverSelector struct {
	addrs []net.Addr
}

func newServerSelector(addrs []string) (*serverSelector, error) {
	as := make([]net.Addr, 0, len(addrs))
	for _, addr := range addrs {
		a, err := net.ResolveTCPAddr("tcp", addr)
		if err != nil {
			return nil, err
		}
		as = append(as, a)
	}
	return &serverSelector{as}, nil
}

func (ss *serverSelector) PickServer(key string) (net.Addr, error) {
	return ss.addrs[key2server(key, len(ss.addrs))], nil
}

func (ss *serverSelector) Each(f func(net.Addr) error) error {
	for _, a := range ss.addrs {
		if err := f(a); err != nil {
			return err
		}
	}
	return nil
}
