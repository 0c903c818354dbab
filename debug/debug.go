package debug

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

//
// Debug output is controled by the WASMFNDEBUG environment variable,
// which can be a list of selectors (e.g., "WASMRT;KVSTORE").
//

const DEBUG = "WASMFNDEBUG"

var name string

var labels map[Tselector]bool
var once sync.Once

func init() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	name = filepath.Base(os.Args[0])
}

// SetName overrides the program name printed on every line.
func SetName(n string) {
	name = n
}

func readLabels() {
	labels = make(map[Tselector]bool)
	s := os.Getenv(DEBUG)
	if s == "" {
		return
	}
	for _, l := range strings.Split(s, ";") {
		labels[Tselector(l)] = true
	}
}

// WillBePrinted lets callers skip expensive formatting when a
// selector is off.
func WillBePrinted(label Tselector) bool {
	once.Do(readLabels)
	if label == ALWAYS || label == ERROR {
		return true
	}
	return labels[label]
}

func DPrintf(label Tselector, format string, v ...interface{}) {
	if WillBePrinted(label) {
		log.Printf("%v %v %v", name, label, fmt.Sprintf(format, v...))
	}
}

func DFatalf(format string, v ...interface{}) {
	// Get info for the caller.
	pc, file, line, ok := runtime.Caller(1)
	fnDetails := runtime.FuncForPC(pc)
	if ok && fnDetails != nil {
		log.Fatalf("FATAL %v %v %v:%v %v", name, fnDetails.Name(), file, line, fmt.Sprintf(format, v...))
	} else {
		log.Fatalf("FATAL %v (missing details) %v", name, fmt.Sprintf(format, v...))
	}
}
