// Package ui holds terminal helpers for the interactive commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner displays an animated progress indicator. Update may be called
// from any goroutine, which lets it serve as a platform.ProgressFunc.
type Spinner struct {
	w        io.Writer
	interval time.Duration

	mu      sync.Mutex
	msg     string
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a Spinner writing to stderr (not yet running).
func NewSpinner() *Spinner {
	return NewSpinnerTo(os.Stderr, 80*time.Millisecond)
}

// NewSpinnerTo creates a Spinner writing to w every interval.
func NewSpinnerTo(w io.Writer, interval time.Duration) *Spinner {
	return &Spinner{w: w, interval: interval}
}

// Start begins the spinner animation with the given message. Starting a
// running spinner only changes its message.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(s.done, s.stopped)
}

// Update changes the spinner message while it's running.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop halts the spinner and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.mu.Lock()
	done, stopped := s.done, s.stopped
	s.done, s.stopped = nil, nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-stopped

	// Clear the spinner line
	fmt.Fprint(s.w, "\r\033[K")
}

func (s *Spinner) run(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			msg := s.msg
			s.mu.Unlock()
			fmt.Fprintf(s.w, "\r\033[K%c %s", frames[i%len(frames)], msg)
		}
	}
}
