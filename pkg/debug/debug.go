// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Classify controls whether per-frame classifier diagnostics are shown
// (eye apertures, corner elevation, mouth ratio). Very verbose at 30 fps.
// Use --debug-classify flag to enable these logs
var Classify bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// ClassifyLog prints a message only if classifier debug mode is enabled
func ClassifyLog(format string, args ...interface{}) {
	if Classify {
		fmt.Printf(format, args...)
	}
}
