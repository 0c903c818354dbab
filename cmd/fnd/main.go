package main

import (
	"os"

	"wasmfn/config"
	db "wasmfn/debug"
	"wasmfn/httpsrv"
)

func main() {
	db.SetName("fnd")
	var pn string
	if len(os.Args) > 1 {
		pn = os.Args[1]
	}
	cfg := config.GetFnConfig(pn)
	db.DPrintf(db.ALWAYS, "config:\n%v", cfg.Marshal())
	if err := httpsrv.RunHTTPSrv(cfg); err != nil {
		db.DFatalf("RunHTTPSrv err %v", err)
	}
}
