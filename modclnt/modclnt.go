// Package modclnt resolves function sources to precompiled wasm.
// Raw modules come from a local path or an s3:// URL; compiled
// modules are cached on disk keyed by the SHA-256 of the raw bytes,
// and in memory keyed by source.
package modclnt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/readahead"

	db "wasmfn/debug"
	"wasmfn/perf"
	"wasmfn/wasmrt"
)

const (
	S3_PREFIX = "s3://"

	N_MOD_CACHE = 128
)

type ModClnt struct {
	mu       sync.Mutex
	rt       *wasmrt.Runtime
	cacheDir string
	compiled *lru.Cache[string, []byte] // src -> precompiled module
	s3clnt   *s3.Client
}

func NewModClnt(rt *wasmrt.Runtime, cacheDir string) (*ModClnt, error) {
	return NewModClntSz(rt, cacheDir, N_MOD_CACHE)
}

// NewModClntSz bounds the in-memory compiled-module table at sz
// entries; evicted modules fall back to the disk cache.
func NewModClntSz(rt *wasmrt.Runtime, cacheDir string, sz int) (*ModClnt, error) {
	if err := os.MkdirAll(cacheDir, 0777); err != nil {
		return nil, err
	}
	c, err := lru.New[string, []byte](sz)
	if err != nil {
		return nil, err
	}
	return &ModClnt{
		rt:       rt,
		cacheDir: cacheDir,
		compiled: c,
	}, nil
}

// GetModule returns the precompiled module for src, fetching and
// compiling on first use.
func (mc *ModClnt) GetModule(ctx context.Context, src string) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if b, ok := mc.compiled.Get(src); ok {
		return b, nil
	}
	start := time.Now()
	raw, err := mc.fetch(ctx, src)
	if err != nil {
		db.DPrintf(db.MODCLNT_ERR, "Err fetch %v: %v", src, err)
		return nil, err
	}
	perf.LogFetchLatency("fetched %v", src, start, humanize.Bytes(uint64(len(raw))))

	sha := sha256.Sum256(raw)
	pn := filepath.Join(mc.cacheDir, hex.EncodeToString(sha[:])+".cwasm")
	compiled, err := os.ReadFile(pn)
	if err != nil {
		compiled, err = mc.rt.PrecompileModule(raw)
		if err != nil {
			return nil, err
		}
		if err := writeFileAtomic(pn, compiled); err != nil {
			db.DPrintf(db.MODCLNT_ERR, "Err cache %v: %v", pn, err)
			return nil, err
		}
		db.DPrintf(db.MODCLNT, "cached %v (%v -> %v)", src, humanize.Bytes(uint64(len(raw))), humanize.Bytes(uint64(len(compiled))))
	} else {
		db.DPrintf(db.MODCLNT, "cache hit %v (%v)", src, humanize.Bytes(uint64(len(compiled))))
	}
	if evict := mc.compiled.Add(src, compiled); evict {
		db.DPrintf(db.MODCLNT, "Eviction")
	}
	return compiled, nil
}

// NCached reports how many compiled modules are held in memory.
func (mc *ModClnt) NCached() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.compiled.Len()
}

func (mc *ModClnt) fetch(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, S3_PREFIX) {
		return mc.fetchS3(ctx, src)
	}
	return fetchFile(src)
}

func fetchFile(pn string) ([]byte, error) {
	f, err := os.Open(pn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ra, err := readahead.NewReaderSize(f, 4, 1<<20)
	if err != nil {
		return nil, err
	}
	defer ra.Close()
	return io.ReadAll(ra)
}

func (mc *ModClnt) fetchS3(ctx context.Context, src string) ([]byte, error) {
	bucket, key, err := splitS3(src)
	if err != nil {
		return nil, err
	}
	clnt, err := mc.getS3Clnt(ctx)
	if err != nil {
		return nil, err
	}
	downloader := manager.NewDownloader(clnt)
	buf := manager.NewWriteAtBuffer([]byte{})
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mc *ModClnt) getS3Clnt(ctx context.Context) (*s3.Client, error) {
	if mc.s3clnt != nil {
		return mc.s3clnt, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	mc.s3clnt = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return mc.s3clnt, nil
}

func splitS3(src string) (string, string, error) {
	pn := strings.TrimPrefix(src, S3_PREFIX)
	bucket, key, ok := strings.Cut(pn, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 src %q", src)
	}
	return bucket, key, nil
}

func writeFileAtomic(pn string, b []byte) error {
	tmp := pn + ".tmp"
	if err := os.WriteFile(tmp, b, 0666); err != nil {
		return err
	}
	return os.Rename(tmp, pn)
}
