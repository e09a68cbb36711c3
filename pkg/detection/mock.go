package detection

import (
	"sync"

	"github.com/teslashibe/go-classroom/pkg/camera"
)

// Mock implements Detector for testing.
// Results are returned in order, one per Detect call; once exhausted the
// last result repeats.
type Mock struct {
	mu      sync.Mutex
	results []MockResult
	calls   int
	closed  bool

	// DetectFunc, when set, takes precedence over the scripted results.
	DetectFunc func(frame camera.Frame) ([]Detection, error)
}

// MockResult is one scripted Detect outcome.
type MockResult struct {
	Detections []Detection
	Err        error
}

// NewMock creates a mock detector with scripted results.
func NewMock(results ...MockResult) *Mock {
	return &Mock{results: results}
}

// Detect returns the next scripted result.
func (m *Mock) Detect(frame camera.Frame) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.DetectFunc != nil {
		return m.DetectFunc(frame)
	}
	if len(m.results) == 0 {
		return nil, nil
	}

	idx := m.calls - 1
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	r := m.results[idx]
	return r.Detections, r.Err
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns how many times Detect was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PersonAt returns a person detection of size w x h centered on (cx, cy).
func PersonAt(cx, cy, w, h float64) Detection {
	return Detection{
		Left:       cx - w/2,
		Top:        cy - h/2,
		Right:      cx + w/2,
		Bottom:     cy + h/2,
		Label:      PersonLabel,
		Confidence: 0.9,
	}
}
