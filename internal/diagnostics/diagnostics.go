// Package diagnostics is the process-wide logger: stdlib log.Printf
// for warnings written to stderr, plus an optional websocket event
// stream for a live compile/evaluate event feed, the same shape as
// the warning-on-unexpected-constant-type log.Printf calls scattered
// through the block evaluator's hot paths.
package diagnostics

import (
	"fmt"
	"log"
	"os"
)

// Logger writes leveled diagnostic lines and fans them out to any
// attached live-event subscribers.
type Logger struct {
	std *log.Logger
	hub *Hub
}

// NewLogger returns a Logger writing to stderr with no attached hub.
func NewLogger() *Logger {
	return &Logger{std: log.New(os.Stderr, "numexpr: ", log.LstdFlags)}
}

// Attach wires a Hub so every logged event is also broadcast to
// connected websocket clients.
func (l *Logger) Attach(hub *Hub) { l.hub = hub }

func (l *Logger) log(level, format string, args ...interface{}) {
	l.std.Printf("["+level+"] "+format, args...)
	if l.hub != nil {
		l.hub.Broadcast(Event{Level: level, Message: fmt.Sprintf(format, args...)})
	}
}

// Warnf logs a recoverable anomaly: a degraded fallback path taken, a
// cache miss that forced a recompile, a JIT rejection that fell back
// to the interpreter.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log("warn", format, args...) }

// Infof logs a routine lifecycle event: kernel compiled, cache hit,
// tier promotion.
func (l *Logger) Infof(format string, args ...interface{}) { l.log("info", format, args...) }

// Errorf logs a failure that was still recovered from (e.g. returned
// to the caller as an error rather than panicking).
func (l *Logger) Errorf(format string, args ...interface{}) { l.log("error", format, args...) }
