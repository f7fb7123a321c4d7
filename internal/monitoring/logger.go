package monitoring

import "log"

// Logf is the package-level operational logger. It defaults to log.Printf and
// may be swapped out with SetLogger so tests can capture or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose bool

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose toggles debug-level output. Off by default; the server enables it
// in dev mode.
func SetVerbose(v bool) {
	verbose = v
}

// Debugf logs through Logf only when verbose output is enabled. Import loops
// use it for per-row diagnostics that would swamp production logs.
func Debugf(format string, v ...interface{}) {
	if verbose {
		Logf(format, v...)
	}
}
