// Package smoothing suppresses frame-to-frame jitter in the engagement
// signal with a trailing mean over the last N instant ratios.
package smoothing

import "fmt"

// DefaultSize is the number of frames averaged (about one second at 30 FPS).
const DefaultSize = 30

// Window is a bounded FIFO of ratios with a running mean.
// It is not safe for concurrent use.
type Window struct {
	buf   []float64
	head  int // index of the oldest value
	count int
	mean  float64
}

// NewWindow creates a window holding at most size values.
func NewWindow(size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("smoothing: window size must be positive, got %d", size)
	}
	return &Window{buf: make([]float64, size)}, nil
}

// Push appends ratio, evicting the oldest value once the window is full,
// and returns the new mean.
func (w *Window) Push(ratio float64) float64 {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = ratio
		w.count++
	} else {
		w.buf[w.head] = ratio
		w.head = (w.head + 1) % len(w.buf)
	}

	sum := 0.0
	for i := 0; i < w.count; i++ {
		sum += w.buf[(w.head+i)%len(w.buf)]
	}
	w.mean = sum / float64(w.count)
	return w.mean
}

// Current returns the mean of the window, or 0 when empty.
func (w *Window) Current() float64 {
	if w.count == 0 {
		return 0
	}
	return w.mean
}

// Len returns the number of values held.
func (w *Window) Len() int { return w.count }

// Cap returns the maximum number of values held.
func (w *Window) Cap() int { return len(w.buf) }

// Values returns the window contents, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.count)
	for i := range out {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Reset empties the window.
func (w *Window) Reset() {
	w.head, w.count, w.mean = 0, 0, 0
}
