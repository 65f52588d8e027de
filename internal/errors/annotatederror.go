// Package errors annotates errors with structured slog attributes and the source location where
// they were created, so that the binary boundary can log a single rich record.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Re-exports so callers only need to import this package.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
	Join   = stderrors.Join
	New    = stderrors.New
)

type annotatedError struct {
	err   error
	msg   string
	attrs []slog.Attr
	// source is "file.go:line" of the call site that created the error.
	source string
}

func (e *annotatedError) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// NewSentinel creates a comparable error value meant to be declared at package level and matched
// with [Is].
func NewSentinel(msg string) error {
	return &annotatedError{err: nil, msg: msg, attrs: nil, source: callerSource(2)} //nolint:mnd // caller of NewSentinel
}

// Wrap annotates err with msg and attrs. Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{err: err, msg: msg, attrs: attrs, source: callerSource(2)} //nolint:mnd // caller of Wrap
}

// DecoratePanic converts a recovered panic value into an error pointing at the panicking line.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	var cause error
	if err, ok := recovered.(error); ok {
		cause = err
	}
	return &annotatedError{
		err:    cause,
		msg:    fmt.Sprintf("panic: %v", recovered),
		attrs:  nil,
		source: panicSource(),
	}
}

// SlogError returns an "error" group attribute with the message, every annotation in the wrap chain
// and the innermost known source location.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}

	var (
		annotations []any
		source      string
	)
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		ae, ok := e.(*annotatedError) //nolint:errorlint // walking the chain manually
		if !ok {
			continue
		}
		for _, attr := range ae.attrs {
			annotations = append(annotations, attr)
		}
		if ae.source != "" {
			source = ae.source
		}
		if ae.msg != "" && strings.HasPrefix(ae.msg, "panic: ") {
			// The panic location is the most useful one, stop descending.
			break
		}
	}

	args := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		args = append(args, slog.Group("annotations", annotations...))
	}
	if source != "" {
		args = append(args, slog.String("source", source))
	}
	return slog.Group("error", args...)
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// panicSource finds the frame that called panic by looking for the frame after runtime.gopanic.
func panicSource() string {
	pcs := make([]uintptr, 32) //nolint:mnd // deep enough for any recover site
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			return ""
		}
	}
}
