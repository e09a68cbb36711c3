package camera

import "fmt"

// DefaultPipeline is the GStreamer pipeline for a USB camera on /dev/video0
// delivering MJPEG at 1280x720.
const DefaultPipeline = "v4l2src device=/dev/video0 ! " +
	"image/jpeg,width=1280,height=720,framerate=30/1 ! jpegdec ! " +
	"videoconvert ! appsink"

// Config holds camera acquisition settings.
type Config struct {
	// File plays back a video file instead of a live camera when set.
	File string `json:"file"`

	// UseGStreamer tries Pipeline before falling back to Device.
	UseGStreamer bool   `json:"use_gstreamer"`
	Pipeline     string `json:"pipeline"`

	// Device is the V4L2 index used by the fallback capture.
	Device int `json:"device"`

	Width     int `json:"width"`
	Height    int `json:"height"`
	Framerate int `json:"framerate"`

	// MaxReadFailures is how many consecutive failed reads a live camera
	// tolerates before the stream is considered closed.
	MaxReadFailures int `json:"max_read_failures"`
}

// DefaultConfig returns settings for a Jetson-style USB camera.
func DefaultConfig() Config {
	return Config{
		UseGStreamer:    true,
		Pipeline:        DefaultPipeline,
		Device:          0,
		Width:           1280,
		Height:          720,
		Framerate:       30,
		MaxReadFailures: 30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.File == "" {
		if c.UseGStreamer && c.Pipeline == "" {
			errors = append(errors, "pipeline is required when use_gstreamer is set")
		}
		if c.Device < 0 {
			errors = append(errors, "device must be >= 0")
		}
	}
	if c.Width < 0 || c.Height < 0 {
		errors = append(errors, "width and height must not be negative")
	}
	if c.Framerate < 0 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 0 and 120")
	}
	if c.MaxReadFailures < 1 {
		errors = append(errors, "max_read_failures must be at least 1")
	}

	return errors
}

// Describe returns a short human-readable description of the source.
func (c Config) Describe() string {
	switch {
	case c.File != "":
		return "file " + c.File
	case c.UseGStreamer:
		return fmt.Sprintf("gstreamer (fallback device %d)", c.Device)
	default:
		return fmt.Sprintf("device %d", c.Device)
	}
}
