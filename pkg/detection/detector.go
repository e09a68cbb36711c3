// Package detection provides person detection for the classroom monitor.
package detection

import "github.com/teslashibe/go-classroom/pkg/camera"

// PersonLabel is the COCO class name counted as a student.
const PersonLabel = "person"

// Detection is a single detected object in frame pixel coordinates.
type Detection struct {
	Left       float64 `json:"left"` // Bounding box corners in pixels
	Top        float64 `json:"top"`
	Right      float64 `json:"right"`
	Bottom     float64 `json:"bottom"`
	Label      string  `json:"label"`      // Class name
	Confidence float64 `json:"confidence"` // Detection confidence (0-1)
}

// Center returns the center point of the bounding box
func (d Detection) Center() (x, y float64) {
	return (d.Left + d.Right) / 2, (d.Top + d.Bottom) / 2
}

// Width returns the box width in pixels
func (d Detection) Width() float64 {
	return d.Right - d.Left
}

// Height returns the box height in pixels
func (d Detection) Height() float64 {
	return d.Bottom - d.Top
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.Width() * d.Height()
}

// Detector is the interface for object detection backends
type Detector interface {
	// Detect finds objects in the frame
	Detect(frame camera.Frame) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds the post-detection filter applied by the Adapter.
type Config struct {
	ConfidenceThresh float64  // Minimum confidence (default 0.35)
	Classes          []string // Labels kept (default person only)
}

// DefaultConfig returns the filter used for counting students
func DefaultConfig() Config {
	return Config{
		ConfidenceThresh: 0.35,
		Classes:          []string{PersonLabel},
	}
}

// Validate checks if the config values are within valid ranges.
func (c *Config) Validate() []string {
	var errors []string
	if c.ConfidenceThresh < 0 || c.ConfidenceThresh > 1 {
		errors = append(errors, "confidence threshold must be between 0 and 1")
	}
	if len(c.Classes) == 0 {
		errors = append(errors, "at least one class is required")
	}
	return errors
}

// IsPerson returns true if the class is a person
func IsPerson(className string) bool {
	return className == PersonLabel
}
