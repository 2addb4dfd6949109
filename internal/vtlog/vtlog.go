// Package vtlog is a thin wrapper around the standard library's log
// package, the same logger RavenTerminal's main.go calls directly via
// log.Printf/log.Fatalf. It adds one thing stdlib log doesn't: a way for
// tests to silence or capture the debug-level "no-op"/"unhandled sequence"
// notices that spec.md §4.D and §7 call for, without redirecting the
// package-global log.Default() output for every other caller.
package vtlog

import (
	"log"
	"sync"
)

var (
	mu     sync.Mutex
	output = log.Printf
)

// Debugf logs a debug-level message through the same call shape as
// log.Printf. Call sites are the no-op C0/C1 codes and unhandled ESC/CSI
// final bytes in terminal.Terminal.
func Debugf(format string, args ...any) {
	mu.Lock()
	out := output
	mu.Unlock()
	out(format, args...)
}

// SetOutput replaces the logging function, letting tests capture or
// silence Debugf calls instead of writing to the real logger.
func SetOutput(f func(format string, args ...any)) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		f = log.Printf
	}
	output = f
}
