// Package overlay draws classroom analytics onto camera frames with OpenCV
// and shows them in a desktop window or encodes them for the dashboard.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
	"gocv.io/x/gocv"
)

// Style controls how annotations look.
type Style struct {
	BoxColor   color.RGBA
	ZoneColor  color.RGBA
	TextColor  color.RGBA
	TextScale  float64
	Thickness  int
	ShowLabels bool // Draw "person 0.87" above each box
}

// DefaultStyle draws green boxes and text with a blue engagement zone.
func DefaultStyle() Style {
	return Style{
		BoxColor:   color.RGBA{0, 255, 0, 255},
		ZoneColor:  color.RGBA{0, 0, 255, 255},
		TextColor:  color.RGBA{0, 255, 0, 255},
		TextScale:  1.0,
		Thickness:  2,
		ShowLabels: true,
	}
}

// Render copies frame into a new Mat and draws state on it.
// The caller owns the returned Mat.
func Render(frame camera.Frame, state pipeline.FrameState, style Style) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("overlay: empty frame")
	}

	view, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("overlay: frame to mat: %w", err)
	}
	defer view.Close()

	img := view.Clone()
	Annotate(&img, state, style)
	return img, nil
}

// Annotate draws detection boxes, the engagement zone and the captions.
func Annotate(img *gocv.Mat, state pipeline.FrameState, style Style) {
	for _, d := range state.Detections {
		box := image.Rect(int(d.Left), int(d.Top), int(d.Right), int(d.Bottom))
		gocv.Rectangle(img, box, style.BoxColor, style.Thickness)
		if style.ShowLabels {
			label := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
			gocv.PutText(img, label, image.Pt(box.Min.X, max(box.Min.Y-6, 12)),
				gocv.FontHersheySimplex, 0.4, style.BoxColor, 1)
		}
	}

	z := state.Zone
	gocv.Rectangle(img, image.Rect(int(z.Left), int(z.Top), int(z.Right), int(z.Bottom)),
		style.ZoneColor, style.Thickness)

	for i, line := range state.Captions() {
		gocv.PutText(img, line, image.Pt(10, 30+40*i),
			gocv.FontHersheySimplex, style.TextScale, style.TextColor, style.Thickness)
	}
}
