package camera

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Step is one scripted Read result of a MockSource.
type Step struct {
	Frame Frame
	Err   error
}

// MockSource replays a fixed script of frames and errors, then reports
// ErrEndOfStream. It is meant for tests and offline demos.
type MockSource struct {
	mu     sync.Mutex
	steps  []Step
	pos    int
	seq    uint64
	closed bool

	// Loop restarts the script instead of ending the stream.
	Loop bool
}

// NewMockSource creates a source that replays steps in order.
func NewMockSource(steps ...Step) *MockSource {
	return &MockSource{steps: steps}
}

// BlankFrame returns a black BGR frame of the given size.
func BlankFrame(width, height int) Frame {
	return Frame{
		Timestamp: time.Now(),
		Width:     width,
		Height:    height,
		Data:      make([]byte, width*height*3),
	}
}

// Frames is a convenience that scripts n blank frames of the given size.
func Frames(n, width, height int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{Frame: BlankFrame(width, height)}
	}
	return steps
}

// Read returns the next scripted step.
func (m *MockSource) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Frame{}, ErrEndOfStream
	}
	if m.pos >= len(m.steps) {
		if !m.Loop || len(m.steps) == 0 {
			return Frame{}, ErrEndOfStream
		}
		m.pos = 0
	}

	step := m.steps[m.pos]
	m.pos++
	if step.Err != nil {
		return Frame{}, step.Err
	}

	m.seq++
	f := step.Frame
	f.Seq = m.seq
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	return f, nil
}

// Close marks the source closed. Safe to call more than once.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ErrTransient is a stand-in for a recoverable read failure.
var ErrTransient = errors.New("camera: transient read failure")
