package main

import (
	"os"

	"wasmfn/config"
	db "wasmfn/debug"
	"wasmfn/lambdasrv"
)

// Config path comes from the environment; Lambda gives us no argv.
const WASMFNCONFIG = "WASMFNCONFIG"

func main() {
	db.SetName("fn-lambda")
	cfg := config.GetFnConfig(os.Getenv(WASMFNCONFIG))
	ls, err := lambdasrv.NewLambdaSrv(cfg)
	if err != nil {
		db.DFatalf("NewLambdaSrv err %v", err)
	}
	ls.Run()
}
