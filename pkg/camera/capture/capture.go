// Package capture opens classroom cameras through OpenCV.
//
// A live camera is tried through the configured GStreamer pipeline first and
// then through the plain V4L2 device index. Video files are supported for
// offline replays.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-classroom/pkg/camera"
	"gocv.io/x/gocv"
)

// Capture is a camera.Source backed by gocv.VideoCapture.
type Capture struct {
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	bgr    gocv.Mat
	cfg    camera.Config
	logger *slog.Logger

	seq      uint64
	failures int
	isFile   bool
	closed   bool
}

// Open tries each capture method allowed by cfg and returns the first one
// that opens. It returns an error wrapping camera.ErrSourceUnavailable when
// none does.
func Open(cfg camera.Config, logger *slog.Logger) (*Capture, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "capture")

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("capture: invalid config: %v", errs)
	}

	if cfg.File != "" {
		vc, err := gocv.VideoCaptureFile(cfg.File)
		if err != nil || !vc.IsOpened() {
			closeQuietly(vc)
			return nil, fmt.Errorf("%w: open file %s: %v", camera.ErrSourceUnavailable, cfg.File, err)
		}
		logger.Info("camera opened", "method", "file", "path", cfg.File)
		return newCapture(vc, cfg, logger, true), nil
	}

	if cfg.UseGStreamer {
		logger.Info("trying gstreamer pipeline")
		vc, err := gocv.VideoCaptureFileWithAPI(cfg.Pipeline, gocv.VideoCaptureGstreamer)
		if err == nil && vc.IsOpened() {
			logger.Info("camera opened", "method", "gstreamer")
			return newCapture(vc, cfg, logger, false), nil
		}
		closeQuietly(vc)
		logger.Warn("failed to open camera with gstreamer pipeline", "error", err)
	}

	logger.Info("trying device capture", "device", cfg.Device)
	vc, err := gocv.VideoCaptureDevice(cfg.Device)
	if err != nil || !vc.IsOpened() {
		closeQuietly(vc)
		return nil, fmt.Errorf("%w: device %d: %v", camera.ErrSourceUnavailable, cfg.Device, err)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}
	logger.Info("camera opened", "method", "device", "device", cfg.Device)
	return newCapture(vc, cfg, logger, false), nil
}

func newCapture(vc *gocv.VideoCapture, cfg camera.Config, logger *slog.Logger, isFile bool) *Capture {
	return &Capture{
		vc:     vc,
		mat:    gocv.NewMat(),
		bgr:    gocv.NewMat(),
		cfg:    cfg,
		logger: logger,
		isFile: isFile,
	}
}

// Read grabs the next frame. A failed grab on a file, or more than
// MaxReadFailures consecutive failed grabs on a live camera, ends the stream.
func (c *Capture) Read(ctx context.Context) (camera.Frame, error) {
	if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}
	if c.closed || !c.vc.IsOpened() {
		return camera.Frame{}, camera.ErrEndOfStream
	}

	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		if c.isFile {
			return camera.Frame{}, camera.ErrEndOfStream
		}
		return camera.Frame{}, c.grabFailed(errEmptyGrab)
	}

	img, err := toBGR(c.mat, &c.bgr)
	if err != nil {
		return camera.Frame{}, c.grabFailed(err)
	}
	c.failures = 0

	c.seq++
	return camera.Frame{
		Seq:       c.seq,
		Timestamp: time.Now(),
		Width:     img.Cols(),
		Height:    img.Rows(),
		Data:      img.ToBytes(),
	}, nil
}

var errEmptyGrab = errors.New("empty frame")

// grabFailed counts a grab that produced no usable frame. Enough of them in
// a row end the stream.
func (c *Capture) grabFailed(cause error) error {
	c.failures++
	if c.failures >= c.cfg.MaxReadFailures {
		c.logger.Warn("camera stopped delivering frames", "failures", c.failures, "error", cause)
		return camera.ErrEndOfStream
	}
	return fmt.Errorf("capture: failed to grab frame (%d in a row): %w", c.failures, cause)
}

// toBGR returns src when it is already 3-channel BGR. Gray and BGRA frames
// are converted into dst, which is returned instead.
func toBGR(src gocv.Mat, dst *gocv.Mat) (gocv.Mat, error) {
	var code gocv.ColorConversionCode
	switch ch := src.Channels(); ch {
	case 3:
		return src, nil
	case 1:
		code = gocv.ColorGrayToBGR
	case 4:
		code = gocv.ColorBGRAToBGR
	default:
		return gocv.Mat{}, fmt.Errorf("unsupported channel count %d", ch)
	}
	if err := gocv.CvtColor(src, dst, code); err != nil {
		return gocv.Mat{}, fmt.Errorf("convert to bgr: %w", err)
	}
	return *dst, nil
}

// Close releases the capture device. Safe to call more than once.
func (c *Capture) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.mat.Close()
	c.bgr.Close()
	return c.vc.Close()
}

func closeQuietly(vc *gocv.VideoCapture) {
	if vc != nil {
		vc.Close()
	}
}
