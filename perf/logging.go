// Convenience functions for logging performance-related data.
package perf

import (
	"fmt"
	"time"

	db "wasmfn/debug"
)

var TIME_NOT_SET time.Time = time.Unix(0, 0)

func LogInvokeLatency(format string, fn string, opStart time.Time, v ...interface{}) {
	// Bail out early if not logging
	if !db.WillBePrinted(db.INVOKE_LAT) {
		return
	}
	var sinceOpStart time.Duration
	if opStart != TIME_NOT_SET {
		sinceOpStart = time.Since(opStart)
	}
	db.DPrintf(db.INVOKE_LAT, "[%s] %s op:%v", fn, fmt.Sprintf(format, v...), sinceOpStart)
}

func LogFetchLatency(format string, src string, opStart time.Time, v ...interface{}) {
	if !db.WillBePrinted(db.FETCH_LAT) {
		return
	}
	var sinceOpStart time.Duration
	if opStart != TIME_NOT_SET {
		sinceOpStart = time.Since(opStart)
	}
	db.DPrintf(db.FETCH_LAT, "[%s] %s op:%v", src, fmt.Sprintf(format, v...), sinceOpStart)
}
