// Package monitor assembles the classroom monitor from its parts: camera
// capture, YOLO detection, the analytics pipeline, record sinks, the
// preview window and the web dashboard.
package monitor

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-classroom/internal/config"
	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/detection/yolo"
	"github.com/teslashibe/go-classroom/pkg/overlay"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
	"github.com/teslashibe/go-classroom/pkg/web"
)

// DefaultLogFile is where aggregate records are appended.
const DefaultLogFile = "engagement_log.csv"

// Config holds all configuration for the monitor.
// Flag parsing is done in cmd/classroom-monitor; this struct is data only.
type Config struct {
	Camera   camera.Config
	Model    yolo.Config
	Pipeline pipeline.Config
	Web      web.Config

	// LogFile is the CSV file records are appended to.
	LogFile string

	// DSN enables the Postgres record sink when set.
	DSN string

	// Headless disables the preview window.
	Headless bool

	// DashboardEnabled serves the web dashboard on Web.Port.
	DashboardEnabled bool

	// RecentRecords is how many records the dashboard keeps in memory.
	RecentRecords int

	// JPEGQuality of dashboard camera frames.
	JPEGQuality int
}

// DefaultConfig returns the classroom defaults.
func DefaultConfig() Config {
	return Config{
		Camera:           camera.DefaultConfig(),
		Model:            yolo.DefaultConfig(),
		Pipeline:         pipeline.DefaultConfig(),
		Web:              web.DefaultConfig(),
		LogFile:          DefaultLogFile,
		DashboardEnabled: true,
		RecentRecords:    500,
		JPEGQuality:      overlay.DefaultJPEGQuality,
	}
}

// LoadEnvConfig applies environment overrides. Call it before registering
// flags so the values become flag defaults and explicit flags still win.
func (c *Config) LoadEnvConfig() {
	c.LogFile = config.String(config.EnvLogFile, c.LogFile)
	c.Model.ModelPath = config.String(config.EnvModel, c.Model.ModelPath)
	c.DSN = config.String(config.EnvDSN, c.DSN)
	c.Camera.Device = config.Int(config.EnvDevice, c.Camera.Device)
	c.Web.Port = config.String(config.EnvHTTPPort, c.Web.Port)
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string
	for _, e := range c.Camera.Validate() {
		errs = append(errs, "camera: "+e)
	}
	if err := c.Pipeline.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.LogFile == "" {
		errs = append(errs, "log file is required")
	}
	if c.Model.ModelPath == "" {
		errs = append(errs, "model path is required")
	}
	if c.Model.NMSThresh <= 0 || c.Model.NMSThresh > 1 {
		errs = append(errs, "nms threshold must be in (0, 1]")
	}
	if _, err := yolo.ClassIDs(c.Pipeline.Detection.Classes); err != nil {
		errs = append(errs, err.Error())
	}
	if c.DashboardEnabled && c.Web.Port == "" {
		errs = append(errs, "dashboard port is required")
	}
	if len(errs) > 0 {
		return &ConfigError{Problems: errs}
	}
	return nil
}

// ConfigError lists every invalid setting.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match pipeline.ErrInvalidConfig.
func (e *ConfigError) Unwrap() error { return pipeline.ErrInvalidConfig }
