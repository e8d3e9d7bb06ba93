// Package orchestrator runs one network request at a time behind a spinner
// line, racing it against Ctrl-C and context cancellation. The terminal is
// put in raw mode for the duration and restored exactly once on every exit
// path, including panics.
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"catchcli/internal/logging"
	"catchcli/internal/ui"

	"github.com/charmbracelet/bubbles/spinner"
	"go.uber.org/zap"
)

// DefaultTickInterval is the spinner redraw period.
const DefaultTickInterval = 100 * time.Millisecond

const ctrlC = 0x03

// ErrCanceled is returned by Outcome.Result for a canceled request.
var ErrCanceled = errors.New("canceled")

// BrailleSix is the spinner used for request progress.
var BrailleSix = spinner.Spinner{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    DefaultTickInterval,
}

// Task is the work being waited on. It must honour ctx.
type Task[T any] func(ctx context.Context) (T, error)

// PanicError is a recovered task panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Outcome is the terminal state of a Run.
type Outcome[T any] struct {
	State State
	Value T
	Err   error
}

// Result collapses the outcome into the usual value/error pair.
func (o Outcome[T]) Result() (T, error) {
	switch o.State {
	case StateSucceeded:
		return o.Value, nil
	case StateCanceled:
		var zero T
		return zero, ErrCanceled
	default:
		var zero T
		return zero, o.Err
	}
}

// Orchestrator owns the terminal for the duration of each Run.
type Orchestrator struct {
	term   Terminal
	tick   time.Duration
	styles ui.Styles
	logger *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTickInterval sets the spinner redraw period.
func WithTickInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithStyles overrides the detected styles.
func WithStyles(s ui.Styles) Option {
	return func(o *Orchestrator) { o.styles = s }
}

// New creates an orchestrator drawing on term.
func New(term Terminal, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		term:   term,
		tick:   DefaultTickInterval,
		styles: ui.DefaultStyles(),
		logger: logging.Get(logging.CategoryOrchestrator),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type result[T any] struct {
	value T
	err   error
}

// Run executes task on its own goroutine and waits for the first of: task
// completion, a Ctrl-C byte, or ctx cancellation. On cancellation the task
// context is canceled and Run returns without waiting for the task.
func Run[T any](ctx context.Context, o *Orchestrator, label string, task Task[T]) Outcome[T] {
	m := &machine{}
	log := o.logger.With(zap.String("label", label))

	restore, err := o.term.EnterRaw()
	if err != nil {
		return Outcome[T]{State: StateFailed, Err: err}
	}
	var restoreOnce sync.Once
	release := func() {
		restoreOnce.Do(func() {
			if err := restore(); err != nil {
				log.Warn("failed to restore terminal", zap.Error(err))
			}
		})
	}
	defer release()

	taskCtx, cancelTask := context.WithCancel(ctx)
	defer cancelTask()

	_ = m.to(StateRequesting)
	log.Debug("request started")

	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
		}()
		v, err := task(taskCtx)
		done <- result[T]{value: v, err: err}
	}()

	keys, stopKeys := o.term.Keys()
	defer stopKeys()

	sp := spinner.New(spinner.WithSpinner(BrailleSix), spinner.WithStyle(o.styles.Spinner))
	draw := func() {
		if o.term.Interactive() {
			fmt.Fprintf(o.term, "\r\x1b[2K%s %s", sp.View(), o.styles.Label.Render(label))
		}
	}
	draw()

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	finish := func(s State, v T, err error) Outcome[T] {
		if terr := m.to(s); terr != nil {
			log.Error("state machine", zap.Error(terr))
		}
		release()
		stopKeys()
		if s == StateCanceled {
			cancelTask()
		}
		prefix := ""
		if o.term.Interactive() {
			prefix = "\r\x1b[2K"
		}
		fmt.Fprintf(o.term, "%s %s - %s\n", prefix, label, o.styles.Outcome(s.Word()))
		log.Info("request finished", zap.Stringer("state", s), zap.Error(err))
		return Outcome[T]{State: s, Value: v, Err: err}
	}

	var zero T
	for {
		select {
		case <-ticker.C:
			sp, _ = sp.Update(spinner.TickMsg{ID: sp.ID(), Time: time.Now()})
			draw()
		case b := <-keys:
			if bytes.IndexByte(b, ctrlC) >= 0 {
				return finish(StateCanceled, zero, ErrCanceled)
			}
		case <-ctx.Done():
			return finish(StateCanceled, zero, ctx.Err())
		case r := <-done:
			if r.err != nil && ctx.Err() != nil {
				return finish(StateCanceled, zero, ctx.Err())
			}
			if r.err != nil {
				return finish(StateFailed, zero, r.err)
			}
			return finish(StateSucceeded, r.value, nil)
		}
	}
}
