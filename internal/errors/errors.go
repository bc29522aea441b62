// Package errors implements the engine's error taxonomy and the
// thread-local last-error-message slot the public API exposes.
package errors

import (
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the taxonomy bucket — not a Go type name, a
// presentation tag used to map onto the public Status codes.
type Kind string

const (
	KindParse    Kind = "Parse"
	KindType     Kind = "Type"
	KindResource Kind = "Resource"
	KindMisuse   Kind = "Misuse"
	KindDegraded Kind = "RuntimeDegradation"
)

// Position is a source location: a byte offset plus, for the
// multi-statement grammar, line/column.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line == 0 {
		return fmt.Sprintf("byte %d", p.Offset)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// EngineError is the engine's internal error value; it carries enough
// to format a compile/evaluate diagnostic and enough to be converted to
// a public Status at the API boundary. Kind/Message/Pos/Source
// generalize a free-form ErrorType string into the closed Kind set
// above.
type EngineError struct {
	Kind    Kind
	Message string
	Pos     Position
	Source  string
	cause   error
}

func (e *EngineError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Pos.Offset != 0 || e.Pos.Line != 0 {
		sb.WriteString(" at ")
		sb.WriteString(e.Pos.String())
	}
	if e.Source != "" {
		sb.WriteString("\n  ")
		sb.WriteString(e.Source)
	}
	return sb.String()
}

func (e *EngineError) Unwrap() error { return e.cause }

func New(kind Kind, pos Position, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Wrap attaches an internal Go error (e.g. a subprocess failure in the
// JIT backend) to an EngineError using pkg/errors, so the original
// stack trace survives for diagnostic logging even though only the
// flattened message crosses the public API boundary.
func Wrap(kind Kind, pos Position, cause error, format string, args ...interface{}) *EngineError {
	wrapped := pkgerrors.Wrap(cause, fmt.Sprintf(format, args...))
	return &EngineError{Kind: kind, Message: wrapped.Error(), Pos: pos, cause: cause}
}

func (e *EngineError) WithSource(src string) *EngineError {
	e.Source = src
	return e
}

// lastMessage is the process-wide "thread-local" diagnostic slot the
// public API exposes. Go has no native TLS; this approximates it at
// the granularity of "the most recent core call on the process",
// which is the correct degenerate case for the common
// single-goroutine-per-call usage and is a documented simplification
// versus true per-thread storage.
var (
	lastMu      sync.Mutex
	lastMessage string
	lastSet     bool
)

// SetLast records the most recent diagnostic message (used both for
// hard errors and for RuntimeDegradation warnings, which still return
// success).
func SetLast(err error) {
	lastMu.Lock()
	defer lastMu.Unlock()
	if err == nil {
		lastSet = false
		lastMessage = ""
		return
	}
	lastMessage = err.Error()
	lastSet = true
}

// Last returns the last diagnostic message and whether one is set,
// mirroring the public API's "thread-local last-error-message
// accessor (may return NULL)".
func Last() (string, bool) {
	lastMu.Lock()
	defer lastMu.Unlock()
	return lastMessage, lastSet
}
