package httpsrv_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasmfn/fnsrv"
	"wasmfn/httpsrv"
	"wasmfn/test"
)

func newTestSrv(t *testing.T) (*httptest.Server, *fnsrv.FnSrv) {
	cfg := test.NewConf(t, "echo", test.WriteWasm(t, test.EchoWat))
	fsrv, err := fnsrv.NewFnSrv(cfg)
	require.Nil(t, err, "Err new fnsrv: %v", err)
	srv := httptest.NewServer(httpsrv.NewHTTPSrv(fsrv).Mux())
	t.Cleanup(func() {
		srv.Close()
		fsrv.Close()
	})
	return srv, fsrv
}

func TestFn(t *testing.T) {
	srv, _ := newTestSrv(t)
	resp, err := http.Post(srv.URL+"/fn/echo", "application/octet-stream", strings.NewReader("hello http"))
	require.Nil(t, err, "Err post: %v", err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	b, err := io.ReadAll(resp.Body)
	assert.Nil(t, err, "Err read body: %v", err)
	assert.Equal(t, "hello http", string(b))
}

func TestFnUnknown(t *testing.T) {
	srv, _ := newTestSrv(t)
	resp, err := http.Post(srv.URL+"/fn/nope", "application/octet-stream", strings.NewReader("x"))
	require.Nil(t, err, "Err post: %v", err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFnGetRejected(t *testing.T) {
	srv, _ := newTestSrv(t)
	resp, err := http.Get(srv.URL + "/fn/echo")
	require.Nil(t, err, "Err get: %v", err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBadPath(t *testing.T) {
	srv, _ := newTestSrv(t)
	resp, err := http.Post(srv.URL+"/fn/bad path!", "application/octet-stream", strings.NewReader("x"))
	require.Nil(t, err, "Err post: %v", err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHello(t *testing.T) {
	srv, _ := newTestSrv(t)
	resp, err := http.Get(srv.URL + "/hello")
	require.Nil(t, err, "Err get: %v", err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	assert.Nil(t, err, "Err read body: %v", err)
	assert.Contains(t, string(b), "hello")
}

func TestDump(t *testing.T) {
	srv, _ := newTestSrv(t)
	resp, err := http.Post(srv.URL+"/fn/echo", "application/octet-stream", strings.NewReader("dumped"))
	require.Nil(t, err, "Err post: %v", err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/dump/")
	require.Nil(t, err, "Err get: %v", err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	m := make(map[string][]byte)
	err = json.NewDecoder(resp.Body).Decode(&m)
	assert.Nil(t, err, "Err decode dump: %v", err)
	assert.Equal(t, []byte("dumped"), m["greeting"])
}
