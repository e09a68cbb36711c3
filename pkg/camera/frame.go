// Package camera defines the frame source contract used by the monitor
// and the configuration for opening a classroom camera.
package camera

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for frame acquisition.
var (
	// ErrEndOfStream is returned by Source.Read when the source is
	// permanently closed. Any other Read error is transient.
	ErrEndOfStream = errors.New("camera: end of stream")

	// ErrSourceUnavailable is returned when no capture method could be opened.
	ErrSourceUnavailable = errors.New("camera: source unavailable")
)

// Frame is a single captured image. Data holds packed 8-bit BGR pixels,
// row-major, Width*Height*3 bytes. Frames are never persisted.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Data      []byte
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Data) == 0
}

// Source produces frames until it reports ErrEndOfStream.
type Source interface {
	// Read blocks until the next frame is available.
	Read(ctx context.Context) (Frame, error)

	// Close releases the underlying device.
	Close() error
}
