// Package logging is the process-wide leveled logger. Output goes to
// stderr so the CLI keeps stdout for its own messages; Disable silences
// everything, which the serve command uses for quiet runs and tests use
// to keep output clean.
package logging

import (
	"context"
	"log"
	"os"
)

var (
	disabled = false
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

// Disable turns off all logging.
func Disable() {
	disabled = true
}

// Enable turns logging back on.
func Enable() {
	disabled = false
}

func emit(level string, v ...any) {
	if disabled {
		return
	}
	std.Println(append([]any{level}, v...)...)
}

func emitf(level, format string, v ...any) {
	if disabled {
		return
	}
	std.Printf(level+" "+format, v...)
}

func Info(v ...any) {
	emit("INFO", v...)
}

func Infof(format string, v ...any) {
	emitf("INFO", format, v...)
}

func Warn(v ...any) {
	emit("WARN", v...)
}

func Warnf(format string, v ...any) {
	emitf("WARN", format, v...)
}

func Error(v ...any) {
	emit("ERROR", v...)
}

func Errorf(format string, v ...any) {
	emitf("ERROR", format, v...)
}

func Debug(v ...any) {
	emit("DEBUG", v...)
}

func Debugf(format string, v ...any) {
	emitf("DEBUG", format, v...)
}

// Logger embeds into handler logic structs so call sites read
// l.Infof(...) without importing this package everywhere.
type Logger struct{}

// WithContext returns a Logger for one request. The context is accepted
// so call sites keep their shape if per-request fields are ever added.
func WithContext(ctx context.Context) Logger {
	return Logger{}
}

func (l Logger) Info(v ...any)                  { Info(v...) }
func (l Logger) Infof(format string, v ...any)  { Infof(format, v...) }
func (l Logger) Error(v ...any)                 { Error(v...) }
func (l Logger) Errorf(format string, v ...any) { Errorf(format, v...) }
