package orchestrator

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// Terminal is the surface progress is drawn on and cancel keys come from.
type Terminal interface {
	io.Writer
	// Interactive reports whether spinner frames should be drawn.
	Interactive() bool
	// EnterRaw switches to raw mode and returns the restore function.
	EnterRaw() (restore func() error, err error)
	// Keys streams raw input until stop is called. stop must be idempotent
	// and must not return before the reader goroutine has exited.
	Keys() (keys <-chan []byte, stop func())
}

// IsTerminal reports whether f is a TTY.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// StdTerminal drives a real TTY with x/term raw mode and a cancelable
// stdin reader.
type StdTerminal struct {
	in  *os.File
	out io.Writer
}

// NewStdTerminal wraps in (usually os.Stdin) and out (usually os.Stdout).
func NewStdTerminal(in *os.File, out io.Writer) *StdTerminal {
	return &StdTerminal{in: in, out: out}
}

func (t *StdTerminal) Write(p []byte) (int, error) { return t.out.Write(p) }

// Interactive is true when input is a TTY.
func (t *StdTerminal) Interactive() bool { return IsTerminal(t.in) }

// EnterRaw puts the input TTY in raw mode so Ctrl-C arrives as a byte.
// A non-TTY input is left alone.
func (t *StdTerminal) EnterRaw() (func() error, error) {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	return func() error { return term.Restore(fd, state) }, nil
}

// Keys reads input on a goroutine until stop cancels the reader.
func (t *StdTerminal) Keys() (<-chan []byte, func()) {
	keys := make(chan []byte, 8)
	r, err := cancelreader.NewReader(t.in)
	if err != nil {
		return keys, func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case keys <- append([]byte(nil), buf[:n]...):
				default:
				}
			}
			if err != nil {
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if r.Cancel() {
				<-done
			}
			_ = r.Close()
		})
	}
	return keys, stop
}

// PlainTerminal writes only final status lines and never reads input.
// Cancellation comes from the context, e.g. SIGINT.
type PlainTerminal struct {
	Out io.Writer
}

func (t PlainTerminal) Write(p []byte) (int, error) { return t.Out.Write(p) }

func (PlainTerminal) Interactive() bool { return false }

func (PlainTerminal) EnterRaw() (func() error, error) { return func() error { return nil }, nil }

func (PlainTerminal) Keys() (<-chan []byte, func()) { return nil, func() {} }
