package overlay

import (
	"fmt"

	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
	"gocv.io/x/gocv"
)

// DefaultJPEGQuality balances dashboard bandwidth against legibility.
const DefaultJPEGQuality = 70

// JPEGEncoder turns annotated frames into JPEG bytes for the dashboard.
type JPEGEncoder struct {
	Quality int
	Style   Style
}

// NewJPEGEncoder creates an encoder with the default style.
func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &JPEGEncoder{Quality: quality, Style: DefaultStyle()}
}

// Encode renders the frame with its annotations and returns a JPEG.
func (e *JPEGEncoder) Encode(frame camera.Frame, state pipeline.FrameState) ([]byte, error) {
	img, err := Render(frame, state, e.Style)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), e.Quality})
	if err != nil {
		return nil, fmt.Errorf("overlay: encode jpeg: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
