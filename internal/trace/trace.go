// Package trace gates the engine's diagnostic logging behind a single
// switch, the Go equivalent of the DO_DBG_PRINT compile-time macro the
// original engine used: when Verbose is false, logrus's own level
// check short-circuits before any formatting happens.
package trace

import "github.com/sirupsen/logrus"

// Verbose controls whether engine components emit debug-level trace
// output. It defaults to false; change it with SetVerbose before
// calling Engine.Run, since assigning Verbose directly leaves logrus
// at info level and debug output stays suppressed.
var Verbose bool

func init() {
	logrus.SetLevel(logrus.InfoLevel)
}

// SetVerbose flips the package-level Verbose switch and adjusts the
// logrus level to match, so callers only have to touch one knob.
func SetVerbose(v bool) {
	Verbose = v
	if v {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Debugf logs at debug level when Verbose is set. It is a thin wrapper
// so call sites don't each need to guard on Verbose themselves.
func Debugf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	logrus.Debugf(format, args...)
}

// Errorf logs an error unconditionally; fatal engine conditions are
// always reported regardless of the Verbose switch.
func Errorf(format string, args ...interface{}) {
	logrus.Errorf(format, args...)
}
