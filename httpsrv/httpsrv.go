// HTTP front end for the gateway: POST a body to /fn/<name> and get
// the guest's response back.
package httpsrv

import (
	"errors"
	"io"
	"net/http"
	"net/http/pprof"
	"regexp"

	"wasmfn/config"
	db "wasmfn/debug"
	"wasmfn/fnsrv"
	"wasmfn/kvstore"
)

// HTTP server paths
const (
	FN    = "/fn/"
	DUMP  = "/dump/"
	HELLO = "/hello"
)

var validPath = regexp.MustCompile(`^/(fn|dump)/([=.\-a-zA-Z0-9_/]*)$`)

type HTTPSrv struct {
	fsrv *fnsrv.FnSrv
}

func NewHTTPSrv(fsrv *fnsrv.FnSrv) *HTTPSrv {
	return &HTTPSrv{fsrv: fsrv}
}

func (hs *HTTPSrv) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(FN, hs.newHandler(doFn))
	mux.HandleFunc(DUMP, hs.newHandler(doDump))
	mux.HandleFunc(HELLO, doHello)
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	return mux
}

func RunHTTPSrv(cfg *config.FnConfig) error {
	fsrv, err := fnsrv.NewFnSrv(cfg)
	if err != nil {
		return err
	}
	hs := NewHTTPSrv(fsrv)
	db.DPrintf(db.ALWAYS, "listening on %v", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, hs.Mux())
}

func (hs *HTTPSrv) newHandler(fn func(*HTTPSrv, http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db.DPrintf(db.HTTPSRV, "%v %v", r.Method, r.URL.Path)
		m := validPath.FindStringSubmatch(r.URL.Path)
		if m == nil {
			http.NotFound(w, r)
			return
		}
		fn(hs, w, r, m[2])
	}
}

func doFn(hs *HTTPSrv, w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := hs.fsrv.ServeRequest(r.Context(), name, body)
	if errors.Is(err, fnsrv.ErrUnknownFn) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		db.DPrintf(db.HTTPSRV_ERR, "fn %v err %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write(res)
}

// doDump serves the gateway datastore's contents when the gateway
// runs on the memory store; other backends have their own tooling.
func doDump(hs *HTTPSrv, w http.ResponseWriter, r *http.Request, name string) {
	ms, ok := hs.fsrv.Datastore().(*kvstore.MemStore)
	if !ok {
		http.NotFound(w, r)
		return
	}
	b, err := ms.Dump()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

func doHello(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "<html><h1>hello</h1></html>\n")
}
