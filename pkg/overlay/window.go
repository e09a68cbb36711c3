package overlay

import (
	"sync"

	"github.com/teslashibe/go-classroom/pkg/camera"
	"github.com/teslashibe/go-classroom/pkg/pipeline"
	"gocv.io/x/gocv"
)

// WindowTitle is the title of the desktop preview window.
const WindowTitle = "Classroom Monitor"

// QuitKey closes the preview when pressed in the window.
const QuitKey = 'q'

// Window shows annotated frames in a HighGUI window. It implements
// pipeline.Display and must be used from the goroutine that created it.
type Window struct {
	win   *gocv.Window
	style Style
	once  sync.Once

	// OnQuit is called once when the quit key is pressed.
	OnQuit func()
}

// NewWindow opens the preview window.
func NewWindow(title string, style Style) *Window {
	if title == "" {
		title = WindowTitle
	}
	return &Window{win: gocv.NewWindow(title), style: style}
}

// Show renders the frame and polls the keyboard for the quit key.
func (w *Window) Show(frame camera.Frame, state pipeline.FrameState) error {
	img, err := Render(frame, state, w.style)
	if err != nil {
		return err
	}
	defer img.Close()

	w.win.IMShow(img)
	if key := w.win.WaitKey(1); key >= 0 && key&0xFF == QuitKey {
		w.once.Do(func() {
			if w.OnQuit != nil {
				w.OnQuit()
			}
		})
	}
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
