// Package testhelpers contains helpers shared by the test suites.
package testhelpers

import (
	"io"
	"strings"
	"sync"
	"testing"
)

// Writer implements io.Writer on top of t.Log so log output only shows up for failing tests.
type Writer struct {
	t    testing.TB
	mu   sync.Mutex
	done bool
}

// NewWriter creates a Writer bound to t. Writing after the test has finished panics, which surfaces
// goroutines such as the database optimizer that outlive their test.
func NewWriter(t testing.TB) io.Writer {
	w := &Writer{t: t, mu: sync.Mutex{}, done: false}
	t.Cleanup(func() {
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		panic("testwriter: attempted to write after test completion, is a background goroutine still running?")
	}
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
