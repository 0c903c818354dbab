// fnkv pokes at a gateway datastore from the command line, mostly
// for debugging non-memory backends.
package main

import (
	"context"
	"fmt"
	"os"

	db "wasmfn/debug"
	"wasmfn/kvstore"
)

func main() {
	db.SetName("fnkv")
	if len(os.Args) < 6 {
		db.DFatalf("Usage: %v kind addr table {get|put} key [val]", os.Args[0])
	}
	kind, addr, table, op, key := os.Args[1], os.Args[2], os.Args[3], os.Args[4], os.Args[5]
	ds, err := kvstore.NewDatastore(kind, addr, table)
	if err != nil {
		db.DFatalf("NewDatastore err %v", err)
	}
	defer ds.Close()
	ctx := context.Background()
	switch op {
	case "get":
		v, ok, err := ds.Get(ctx, []byte(key))
		if err != nil {
			db.DFatalf("Get %v err %v", key, err)
		}
		if !ok {
			db.DFatalf("Get %v: %v", key, kvstore.ErrMiss)
		}
		fmt.Printf("%s\n", v)
	case "put":
		if len(os.Args) < 7 {
			db.DFatalf("put needs a val")
		}
		if err := ds.Put(ctx, []byte(key), []byte(os.Args[6])); err != nil {
			db.DFatalf("Put %v err %v", key, err)
		}
	default:
		db.DFatalf("unknown op %v", op)
	}
}
