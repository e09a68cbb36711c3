package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-classroom/pkg/aggregate"
	"github.com/teslashibe/go-classroom/pkg/detection"
	"github.com/teslashibe/go-classroom/pkg/engagement"
	"github.com/teslashibe/go-classroom/pkg/smoothing"
)

// Sentinel errors.
var (
	// ErrInvalidConfig is returned by New when the configuration is rejected.
	ErrInvalidConfig = errors.New("pipeline: invalid configuration")

	// ErrAcquisition is returned by Run when the frame source cannot be opened.
	ErrAcquisition = errors.New("pipeline: frame source acquisition failed")

	// ErrAlreadyRun is returned when Run is called twice.
	ErrAlreadyRun = errors.New("pipeline: already run")
)

// Config holds the tunable parameters of the per-frame pipeline.
type Config struct {
	Detection   detection.Config
	Zone        engagement.ZoneConfig
	WindowSize  int           // Frames averaged by the smoother
	LogInterval time.Duration // Minimum spacing between records

	// FailOnSinkError stops the pipeline when a record cannot be written.
	// By default the failure is logged and the pipeline keeps running.
	FailOnSinkError bool
}

// DefaultConfig returns the classroom defaults: 0.35 confidence, 30-frame
// window, one record every 10 seconds, middle-third zone.
func DefaultConfig() Config {
	return Config{
		Detection:   detection.DefaultConfig(),
		Zone:        engagement.DefaultZone(),
		WindowSize:  smoothing.DefaultSize,
		LogInterval: aggregate.DefaultInterval,
	}
}

// Validate rejects out-of-range values instead of clamping them.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Detection.Validate()...)
	errs = append(errs, c.Zone.Validate()...)
	if c.WindowSize <= 0 {
		errs = append(errs, fmt.Sprintf("window size must be positive, got %d", c.WindowSize))
	}
	if c.LogInterval <= 0 {
		errs = append(errs, fmt.Sprintf("log interval must be positive, got %s", c.LogInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
