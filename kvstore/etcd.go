package kvstore

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	db "wasmfn/debug"
)

const DialTimeout = 5 * time.Second

type EtcdStore struct {
	cli *clientv3.Client
}

func NewEtcdStore(endpoints []string) (*EtcdStore, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: DialTimeout,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		return nil, err
	}
	return &EtcdStore{cli: cli}, nil
}

func (es *EtcdStore) Put(ctx context.Context, key, val []byte) error {
	db.DPrintf(db.KVSTORE, "etcd Put %v nbyte %v", string(key), len(val))
	_, err := es.cli.Put(ctx, string(key), string(val))
	return err
}

func (es *EtcdStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db.DPrintf(db.KVSTORE, "etcd Get %v", string(key))
	resp, err := es.cli.Get(ctx, string(key))
	if err != nil {
		return nil, false, err
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

func (es *EtcdStore) Close() error {
	return es.cli.Close()
}
