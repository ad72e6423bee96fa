// SPDX-License-Identifier: MPL-2.0

// Package output provides terminal output utilities shared by all commands.
package output

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the global logger instance. Commands configure it once via
// SetupLogging and then use the package-level helpers below.
var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
}

// SetupLogging configures the logger based on verbosity. Verbose mode lowers
// the level to debug and turns on timestamps.
func SetupLogging(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
	})
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...any) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...any) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...any) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...any) {
	Logger.Error(msg, keyvals...)
}

// Println prints a message to stdout with a newline. Pipeline results that
// are program output (checksums, artifact names) go through here rather than
// the logger so they survive piping.
func Println(msg string) {
	os.Stdout.WriteString(msg + "\n")
}
