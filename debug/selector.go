package debug

type Tselector string

// ALWAYS
const (
	ALWAYS Tselector = "ALWAYS"
	ERROR            = "ERROR"
	NEVER            = "NEVER"
)

// ERR
const (
	ERR Tselector = "_ERR"
)

// Tests & benchmarks
const (
	TEST    Tselector = "TEST"
	BENCH             = "BENCH"
	LOADGEN           = "LOADGEN"
)

// Latency break-down.
const (
	INVOKE_LAT Tselector = "INVOKE_LAT"
	FETCH_LAT            = "FETCH_LAT"
)

// Runtime
const (
	WASMRT     Tselector = "WASMRT"
	WASMRT_ERR           = WASMRT + ERR
)

// Datastore
const (
	KVSTORE     Tselector = "KVSTORE"
	KVSTORE_ERR           = KVSTORE + ERR
)

// Module fetch & cache
const (
	MODCLNT     Tselector = "MODCLNT"
	MODCLNT_ERR           = MODCLNT + ERR
)

// Function server
const (
	FNSRV     Tselector = "FNSRV"
	FNSRV_ERR           = FNSRV + ERR
)

// Front ends
const (
	HTTPSRV       Tselector = "HTTPSRV"
	HTTPSRV_ERR             = HTTPSRV + ERR
	LAMBDASRV               = "LAMBDASRV"
	LAMBDASRV_ERR           = LAMBDASRV + ERR
)
