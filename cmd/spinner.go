package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// spinner renders a rotating indicator with a label and a detail line
// that updates in-place while an operation is running.
type spinner struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	detail  string
	done    chan struct{}
	stopped chan struct{}
	tick    time.Duration
}

func newSpinner() *spinner { return newSpinnerTo(os.Stdout) }

func newSpinnerTo(w io.Writer) *spinner {
	return &spinner{
		out:     w,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		tick:    80 * time.Millisecond,
	}
}

func (s *spinner) setLabel(l string) {
	s.mu.Lock()
	s.label = l
	s.mu.Unlock()
}

func (s *spinner) setDetail(d string) {
	s.mu.Lock()
	// Truncate long progress lines so they fit on one terminal line.
	if r := []rune(d); len(r) > 72 {
		d = string(r[:69]) + "..."
	}
	s.detail = d
	s.mu.Unlock()
}

// start launches the render loop in a goroutine.
func (s *spinner) start() {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	go func() {
		defer close(s.stopped)
		t := time.NewTicker(s.tick)
		defer t.Stop()
		i := 0
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				s.mu.Lock()
				label := s.label
				detail := s.detail
				frame := frames[i%len(frames)]
				i++
				// \r returns to column 0; \033[K clears to end of line.
				fmt.Fprintf(s.out, "\r\033[K  %s %s\n\r\033[K    %s",
					frame,
					label,
					dimStyle.Render(detail),
				)
				// Move cursor up one line so next tick overwrites both lines.
				fmt.Fprint(s.out, "\033[1A")
				s.mu.Unlock()
			}
		}
	}()
}

// stop halts the spinner and prints a final status line.
func (s *spinner) stop(err error) {
	close(s.done)
	<-s.stopped

	s.mu.Lock()
	defer s.mu.Unlock()

	// Clear both lines used by the spinner.
	fmt.Fprint(s.out, "\r\033[K\033[1B\r\033[K\033[1A")

	if err == nil {
		fmt.Fprintf(s.out, "  %s %s\n", okStyle.Render("✓"), s.label)
	} else {
		fmt.Fprintf(s.out, "  %s %s\n", badStyle.Render("✗"), s.label)
	}
}
