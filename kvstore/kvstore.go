// Package kvstore provides the key/value datastore guests read and
// write through the gateway's host functions. Backends share one
// interface so a function can run against an in-memory map during
// tests and a durable store in production.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Datastore interface {
	Put(ctx context.Context, key, val []byte) error
	// Get returns (nil, false, nil) on a miss.
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
	Close() error
}

var ErrMiss = errors.New("kvstore miss")

const (
	MEM       = "mem"
	REDIS     = "redis"
	DYNAMO    = "dynamo"
	SQL       = "sql"
	ETCD      = "etcd"
	MEMCACHED = "memcached"
)

// NewDatastore selects a backend. addr is backend-specific: a redis
// address, a mysql DSN, an etcd endpoint, or a comma-separated list
// of memcached servers. table only matters for dynamo.
func NewDatastore(kind, addr, table string) (Datastore, error) {
	switch kind {
	case MEM, "":
		return NewMemStore(), nil
	case REDIS:
		return NewRedisStore(addr), nil
	case DYNAMO:
		return NewDynamoStore(table)
	case SQL:
		return NewSQLStore(addr)
	case ETCD:
		return NewEtcdStore([]string{addr})
	case MEMCACHED:
		return NewMemcachedStore(strings.Split(addr, ","))
	default:
		return nil, fmt.Errorf("unknown datastore kind %q", kind)
	}
}
