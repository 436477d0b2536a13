// Package goroutine provides panic recovery for long-lived goroutines.
package goroutine

import (
	"fmt"
	"os"
	"runtime"

	"vigil/metrics"

	"go.uber.org/zap"
)

// StackTraceBufferSize is the buffer size for stack trace collection.
const StackTraceBufferSize = 4096

// Recover recovers from panics in goroutines, counts them per goroutine
// name, and logs them with the captured stack. It falls back to stderr
// when logger is nil so the panic is never lost.
//
// Note: this guard is for served goroutines (HTTP handlers, worker
// pools). Panics inside predicate/extractor evaluation are captured by
// the engine itself and surfaced as verdict errors instead.
func Recover(name string, logger *zap.SugaredLogger) {
	if r := recover(); r != nil {
		metrics.GoroutinePanics.WithLabelValues(name).Inc()

		buf := make([]byte, StackTraceBufferSize)
		n := runtime.Stack(buf, false)

		if logger != nil {
			logger.Errorw("Goroutine panic recovered",
				"goroutine", name,
				"panic", r,
				"stack", string(buf[:n]))
		} else {
			fmt.Fprintf(os.Stderr, "PANIC in goroutine %s (no logger): %v\n%s\n",
				name, r, string(buf[:n]))
		}
	}
}
