package eval

import (
	"io"
	"os"
	"sync"

	"github.com/marcelocantos/tsh/internal/redirect"
)

// guardStdio serializes access to streams that branches share. Files are
// passed through: child processes write to them directly and the kernel
// orders the writes. Any other stream is fed by a copy goroutine per child,
// so its writes and reads go through a lock. Out and Err share one lock
// because callers often pass the same writer for both.
func guardStdio(s redirect.Stdio) redirect.Stdio {
	var wmu, rmu sync.Mutex
	if s.In != nil && !shareable(s.In) {
		s.In = &lockedReader{mu: &rmu, r: s.In}
	}
	if s.Out != nil && !shareable(s.Out) {
		s.Out = &lockedWriter{mu: &wmu, w: s.Out}
	}
	if s.Err != nil && !shareable(s.Err) {
		s.Err = &lockedWriter{mu: &wmu, w: s.Err}
	}
	return s
}

// shareable reports whether v can be handed to concurrent branches as is.
func shareable(v any) bool {
	switch v.(type) {
	case *os.File, *lockedWriter, *lockedReader:
		return true
	}
	return false
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type lockedReader struct {
	mu *sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
