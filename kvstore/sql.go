package kvstore

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	db "wasmfn/debug"
)

type SQLStore struct {
	db *sql.DB
}

// NewSQLStore connects with a mysql DSN (e.g. "fn:fnpw@/wasmfn")
// and creates the kv table if absent.
func NewSQLStore(dsn string) (*SQLStore, error) {
	sdb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := sdb.Ping(); err != nil {
		sdb.Close()
		return nil, err
	}
	if _, err := sdb.Exec("CREATE TABLE IF NOT EXISTS kv (k VARBINARY(512) PRIMARY KEY, v BLOB)"); err != nil {
		sdb.Close()
		return nil, err
	}
	return &SQLStore{db: sdb}, nil
}

func (ss *SQLStore) Put(ctx context.Context, key, val []byte) error {
	db.DPrintf(db.KVSTORE, "sql Put %v nbyte %v", string(key), len(val))
	_, err := ss.db.ExecContext(ctx, "REPLACE INTO kv (k, v) VALUES (?, ?)", key, val)
	return err
}

func (ss *SQLStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db.DPrintf(db.KVSTORE, "sql Get %v", string(key))
	var v []byte
	err := ss.db.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (ss *SQLStore) Close() error {
	return ss.db.Close()
}
