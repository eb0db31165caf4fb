package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner draws a progress indicator on stderr while a batch runs. When
// total is positive it also shows how many records have finished.
//
// Spinner implements observability.ItemHooks so it can be passed as
// pipeline.Options.Hooks and count completions as they happen.
type Spinner struct {
	message string
	total   int
	done    atomic.Int64
	failed  atomic.Int64

	out     io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
	mu      sync.Mutex
	width   int
}

// newSpinner creates a spinner for a batch of total records.
func newSpinner(ctx context.Context, message string, total int) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		total:   total,
		out:     os.Stderr,
		ctx:     spinnerCtx,
		cancel:  cancel,
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.quit:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// Stop stops the spinner and clears the line. It is safe to call more than
// once but only after Start.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		close(s.quit)
	})
	<-s.stopped
	s.clearLine()
}

// Cancelled reports whether the spinner's context ended before Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// OnItemStart is a no-op.
func (s *Spinner) OnItemStart(context.Context, string) {}

// OnItemComplete counts a finished record.
func (s *Spinner) OnItemComplete(_ context.Context, _ string, _ time.Duration, err error) {
	s.done.Add(1)
	if err != nil {
		s.failed.Add(1)
	}
}

// status renders the message with the completion counter.
func (s *Spinner) status() string {
	if s.total <= 0 {
		return s.message
	}
	st := fmt.Sprintf("%s %d/%d", s.message, s.done.Load(), s.total)
	if f := s.failed.Load(); f > 0 {
		st += fmt.Sprintf(" (%d failed)", f)
	}
	return st
}

func (s *Spinner) draw(frame string) {
	st := s.status()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, len(st)+2)
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(st))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width+2))
}
