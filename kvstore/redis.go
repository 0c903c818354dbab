package kvstore

import (
	"context"

	"github.com/go-redis/redis/v8"

	db "wasmfn/debug"
)

type RedisStore struct {
	rcli *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rcli := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})
	return &RedisStore{rcli: rcli}
}

func (rs *RedisStore) Put(ctx context.Context, key, val []byte) error {
	db.DPrintf(db.KVSTORE, "redis Put %v nbyte %v", string(key), len(val))
	return rs.rcli.Set(ctx, string(key), val, 0).Err()
}

func (rs *RedisStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db.DPrintf(db.KVSTORE, "redis Get %v", string(key))
	b, err := rs.rcli.Get(ctx, string(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (rs *RedisStore) Close() error {
	return rs.rcli.Close()
}
