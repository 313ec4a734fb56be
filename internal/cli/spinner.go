package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line on w until stopped or until its context
// is cancelled. Used around store round trips and SVG rendering.
type spinner struct {
	w       io.Writer
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	started bool

	mu      sync.Mutex
	message string
	width   int // widest line drawn so far
}

func newSpinner(parent context.Context, w io.Writer, message string) *spinner {
	ctx, cancel := context.WithCancel(parent)
	return &spinner{
		w:       w,
		parent:  parent,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		message: message,
	}
}

// start begins the animation and returns s.
func (s *spinner) start() *spinner {
	s.started = true
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
	return s
}

// update replaces the message shown next to the spinner.
func (s *spinner) update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + styleDim.Render(s.message)
	s.width = max(s.width, len(s.message)+2)
	fmt.Fprintf(s.w, "\r%s", line)
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *spinner) stop() {
	s.once.Do(func() {
		s.cancel()
		if s.started {
			<-s.stopped
		}
	})
}

// cancelled reports whether the parent context ended the spinner.
func (s *spinner) cancelled() bool {
	return s.parent.Err() != nil
}
