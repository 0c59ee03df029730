package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner shows which stage of a command is working on a network, together
// with the time spent so far. A Spinner with a nil writer draws nothing, so
// callers need no special case for piped or scripted output.
type Spinner struct {
	w       io.Writer
	network string
	start   time.Time

	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string

	mu      sync.Mutex
	stage   string
	width   int // printed width of the last frame, for clearing
	started bool
	once    sync.Once
}

// newSpinner creates a spinner for the named network that stops when ctx is
// cancelled.
func newSpinner(ctx context.Context, w io.Writer, network string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		network: network,
		parent:  ctx,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the animation with the given stage, e.g. "Estimating".
func (s *Spinner) Start(stage string) {
	s.mu.Lock()
	s.stage = stage
	s.start = time.Now()
	s.started = s.w != nil
	s.mu.Unlock()
	if s.w == nil {
		return
	}

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(s.frames[i%len(s.frames)])
				i++
			}
		}
	}()
}

// Stage switches to the next stage of the command without resetting the
// elapsed time.
func (s *Spinner) Stage(stage string) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

// Line returns the status text for the current stage, e.g.
// "Rendering svg of feeder · 1.2s".
func (s *Spinner) Line() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lineLocked()
}

func (s *Spinner) lineLocked() string {
	text := s.stage
	if s.network != "" {
		text += " " + s.network
	}
	if s.start.IsZero() {
		return text
	}
	return fmt.Sprintf("%s · %s", text, time.Since(s.start).Round(100*time.Millisecond))
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.lineLocked())
	pad := ""
	if w := lipgloss.Width(line); w < s.width {
		pad = strings.Repeat(" ", s.width-w)
	} else {
		s.width = w
	}
	fmt.Fprintf(s.w, "\r%s%s", line, pad)
}

// Stop stops the spinner and clears the line. It is safe to call more than
// once, and before Start.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
			s.clearLine()
		}
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil || s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled returns true if the command's context was cancelled, as opposed
// to the spinner being stopped.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
