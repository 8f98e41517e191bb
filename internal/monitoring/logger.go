// Package monitoring carries the diagnostic logger and the Prometheus
// metrics shared by the segmentation packages.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

var verbose atomic.Bool

// SetVerbose toggles Debugf output.
func SetVerbose(on bool) { verbose.Store(on) }

// IsVerbose reports whether Debugf output is enabled.
func IsVerbose() bool { return verbose.Load() }

// Debugf logs through Logf only when verbose output is enabled. Per-segment
// and per-merge detail goes here; phase summaries use Logf directly.
func Debugf(format string, v ...interface{}) {
	if verbose.Load() {
		Logf(format, v...)
	}
}
