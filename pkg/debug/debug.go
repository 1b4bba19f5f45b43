// Package debug is treeview's opt-in trace log. It is off unless
// TREESTATE_DEBUG is set, and every call is a no-op while it is off:
//
//	TREESTATE_DEBUG=1 treeview tree.json 2>trace.log
//
// Lines go to stderr with a [TS_DEBUG] prefix and a microsecond timestamp.
// Timings recorded through pkg/metrics are traced here as well.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const prefix = "[TS_DEBUG] "

var (
	enabled atomic.Bool

	mu     sync.Mutex
	logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
)

func init() {
	enabled.Store(os.Getenv("TREESTATE_DEBUG") != "")
}

func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns tracing on or off at runtime.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// SetOutput redirects the trace, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

func printf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Printf(format, args...)
}

// Log writes one printf-style line.
func Log(format string, args ...any) {
	if enabled.Load() {
		printf(format, args...)
	}
}

// LogTiming writes "<name> took <d>".
func LogTiming(name string, d time.Duration) {
	if enabled.Load() {
		printf("%s took %v", name, d)
	}
}

// LogEnterExit traces entry now and exit, with the elapsed time, when the
// returned function runs:
//
//	defer debug.LogEnterExit("loadAll")()
func LogEnterExit(name string) func() {
	if !enabled.Load() {
		return func() {}
	}
	printf("-> %s", name)
	start := time.Now()
	return func() { printf("<- %s (%v)", name, time.Since(start)) }
}
