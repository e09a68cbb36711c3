package pipeline

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/detection"
	"github.com/teslashibe/go-classroom/pkg/engagement"
)

// State is the driver lifecycle state.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// FrameState is what the pipeline exposes for one processed frame.
type FrameState struct {
	RunID      string                  `json:"run_id"`
	Seq        uint64                  `json:"seq"`
	Timestamp  time.Time               `json:"timestamp"`
	Width      int                     `json:"width"`
	Height     int                     `json:"height"`
	Detections []detection.Detection   `json:"detections"`
	Metrics    engagement.FrameMetrics `json:"metrics"`
	Smoothed   float64                 `json:"smoothed_engagement"`
	Zone       engagement.Zone         `json:"zone"`
}

// Captions returns the on-frame text: the student count and the smoothed
// engagement as a whole percentage.
func (s FrameState) Captions() []string {
	return []string{
		fmt.Sprintf("Students: %d", s.Metrics.StudentCount),
		fmt.Sprintf("Engagement: %.0f%%", s.Smoothed*100),
	}
}

// Display receives every processed frame for rendering. Implementations
// must not retain frame.Data after Show returns.
type Display interface {
	Show(frame camera.Frame, state FrameState) error
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(frame camera.Frame, state FrameState) error

// Show calls f.
func (f DisplayFunc) Show(frame camera.Frame, state FrameState) error {
	return f(frame, state)
}

// Displays fans a frame out to several displays, in order. The first error
// is returned after every display has been called.
type Displays []Display

// Show calls every display.
func (ds Displays) Show(frame camera.Frame, state FrameState) error {
	var first error
	for _, d := range ds {
		if err := d.Show(frame, state); err != nil && first == nil {
			first = err
		}
	}
	return first
}
