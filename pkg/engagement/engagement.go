// Package engagement classifies detected students as engaged or not using
// a fixed spatial rule: a student whose box center falls inside the
// engagement zone (middle third horizontally, upper two thirds vertically by
// default) counts as engaged.
package engagement

import "github.com/teslashibe/go-classroom/pkg/detection"

// ZoneConfig holds the zone bounds as fractions of the frame size.
// Intervals are half-open: [Left, Right) x [Top, Bottom).
type ZoneConfig struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultZone returns the middle-third, upper-two-thirds zone.
func DefaultZone() ZoneConfig {
	return ZoneConfig{
		Left:   1.0 / 3,
		Right:  2.0 / 3,
		Top:    0,
		Bottom: 2.0 / 3,
	}
}

// Validate checks that the fractions describe a non-empty zone inside the frame.
func (z *ZoneConfig) Validate() []string {
	var errors []string
	if z.Left < 0 || z.Right > 1 || z.Left >= z.Right {
		errors = append(errors, "zone horizontal bounds must satisfy 0 <= left < right <= 1")
	}
	if z.Top < 0 || z.Bottom > 1 || z.Top >= z.Bottom {
		errors = append(errors, "zone vertical bounds must satisfy 0 <= top < bottom <= 1")
	}
	return errors
}

// Zone is the engagement rectangle in pixels for one frame.
type Zone struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// ZoneFor computes the zone for a width x height frame.
func ZoneFor(width, height int, zc ZoneConfig) Zone {
	w, h := float64(width), float64(height)
	return Zone{
		Left:   w * zc.Left,
		Top:    h * zc.Top,
		Right:  w * zc.Right,
		Bottom: h * zc.Bottom,
	}
}

// Contains reports whether (x, y) lies in the zone. The right and bottom
// edges are excluded.
func (z Zone) Contains(x, y float64) bool {
	return x >= z.Left && x < z.Right && y >= z.Top && y < z.Bottom
}

// FrameMetrics is the per-frame classification result.
type FrameMetrics struct {
	StudentCount int     `json:"student_count"`
	EngagedCount int     `json:"engaged_count"`
	Ratio        float64 `json:"instant_engagement"`
}

// Classify counts students and engaged students in one frame.
// With no students the ratio is 0, never NaN.
func Classify(width, height int, dets []detection.Detection, zc ZoneConfig) FrameMetrics {
	zone := ZoneFor(width, height, zc)

	m := FrameMetrics{StudentCount: len(dets)}
	for _, d := range dets {
		if zone.Contains(d.Center()) {
			m.EngagedCount++
		}
	}
	if m.StudentCount > 0 {
		m.Ratio = float64(m.EngagedCount) / float64(m.StudentCount)
	}
	return m
}
